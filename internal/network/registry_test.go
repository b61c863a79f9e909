package network

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestResolveKnownChains(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		chainID    int64
		wantName   string
		wantSymbol string
		wantV3     bool
	}{
		{1, "ethereum", "ETH", true},
		{11155111, "sepolia", "ETH", true},
		{56, "bnb", "BNB", true},
		{8453, "base", "ETH", true},
	}

	for _, tt := range tests {
		cfg, err := r.Resolve(tt.chainID)
		if err != nil {
			t.Fatalf("Resolve(%d) error: %v", tt.chainID, err)
		}
		if cfg.Name != tt.wantName {
			t.Errorf("Resolve(%d).Name = %s, want %s", tt.chainID, cfg.Name, tt.wantName)
		}
		if cfg.NativeSymbol != tt.wantSymbol {
			t.Errorf("Resolve(%d).NativeSymbol = %s, want %s", tt.chainID, cfg.NativeSymbol, tt.wantSymbol)
		}
		if cfg.SupportsV3() != tt.wantV3 {
			t.Errorf("Resolve(%d).SupportsV3() = %v, want %v", tt.chainID, cfg.SupportsV3(), tt.wantV3)
		}
		if cfg.Router == (common.Address{}) || cfg.WrappedNative == (common.Address{}) {
			t.Errorf("Resolve(%d) has zero router or wrapped-native address", tt.chainID)
		}
	}
}

func TestResolveUnknownChain(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Resolve(999999)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Resolve(999999) error = %v, want ErrUnsupported", err)
	}
}

func TestSupportsV3RequiresBothAddresses(t *testing.T) {
	cfg := &Config{
		ChainID:         42,
		PositionManager: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		// Factory missing
	}
	if cfg.SupportsV3() {
		t.Error("SupportsV3() should be false with a missing factory")
	}
}

func TestRegisterOverride(t *testing.T) {
	r := NewRegistry()
	r.Register(&Config{ChainID: 7, Name: "first"})
	r.Register(&Config{ChainID: 7, Name: "second"})

	cfg, err := r.Resolve(7)
	if err != nil {
		t.Fatalf("Resolve(7) error: %v", err)
	}
	if cfg.Name != "second" {
		t.Errorf("Resolve(7).Name = %s, want second", cfg.Name)
	}
	if len(r.ChainIDs()) != 1 {
		t.Errorf("ChainIDs() length = %d, want 1", len(r.ChainIDs()))
	}
}
