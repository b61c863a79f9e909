// Package network maps chain identifiers to the per-network contract
// addresses the orchestrator needs.
package network

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupported is returned when a chain is not in the registry.
var ErrUnsupported = errors.New("unsupported network")

// Config holds the contract addresses for one chain. PositionManager and
// Factory are optional; chains without them support only the v2 path.
type Config struct {
	ChainID         int64
	Name            string
	Router          common.Address // constant-product router
	PositionManager common.Address // zero when v3 is unavailable
	Factory         common.Address // zero when v3 is unavailable
	WrappedNative   common.Address
	NativeSymbol    string
}

// SupportsV3 reports whether the chain carries the concentrated-liquidity
// contracts. Both addresses must be present; a half-configured chain is
// treated as unsupported rather than silently falling back.
func (c *Config) SupportsV3() bool {
	return c.PositionManager != (common.Address{}) && c.Factory != (common.Address{})
}

// Registry holds registered network configurations. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[int64]*Config
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int64]*Config)}
}

// Register adds or updates a network configuration.
func (r *Registry) Register(cfg *Config) {
	if cfg == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cfg.ChainID] = cfg
}

// Resolve returns the configuration for a chain id.
func (r *Registry) Resolve(chainID int64) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.entries[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: chain %d", ErrUnsupported, chainID)
	}
	return cfg, nil
}

// ChainIDs returns all registered chain ids.
func (r *Registry) ChainIDs() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// DefaultRegistry returns a registry pre-populated with the built-in chains.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EthereumMainnet())
	r.Register(Sepolia())
	r.Register(BNBChain())
	r.Register(Base())
	return r
}

// EthereumMainnet returns the Ethereum mainnet configuration.
func EthereumMainnet() *Config {
	return &Config{
		ChainID:         1,
		Name:            "ethereum",
		Router:          common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
		PositionManager: common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88"),
		Factory:         common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984"),
		WrappedNative:   common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		NativeSymbol:    "ETH",
	}
}

// Sepolia returns the Sepolia testnet configuration.
func Sepolia() *Config {
	return &Config{
		ChainID:         11155111,
		Name:            "sepolia",
		Router:          common.HexToAddress("0xeE567Fe1712Faf6149d80dA1E6934E354124CfE3"),
		PositionManager: common.HexToAddress("0x1238536071E1c677A632429e3655c799b22cDA52"),
		Factory:         common.HexToAddress("0x0227628f3F023bb0B980b67D528571c95c6DaC1c"),
		WrappedNative:   common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"),
		NativeSymbol:    "ETH",
	}
}

// BNBChain returns the BNB Smart Chain configuration.
// Router/position manager are the PancakeSwap deployments.
func BNBChain() *Config {
	return &Config{
		ChainID:         56,
		Name:            "bnb",
		Router:          common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"),
		PositionManager: common.HexToAddress("0x46A15B0b27311cedF172AB29E4f4766fbE7F4364"),
		Factory:         common.HexToAddress("0x0BFbCF9fa4f9C56B0F40a671Ad40E0805A091865"),
		WrappedNative:   common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
		NativeSymbol:    "BNB",
	}
}

// Base returns the Base mainnet configuration.
func Base() *Config {
	return &Config{
		ChainID:         8453,
		Name:            "base",
		Router:          common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24"),
		PositionManager: common.HexToAddress("0x03a520b32C04BF3bEEf7BEb72E919cf822Ed34f1"),
		Factory:         common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD"),
		WrappedNative:   common.HexToAddress("0x4200000000000000000000000000000000000006"),
		NativeSymbol:    "ETH",
	}
}
