// Package config handles configuration loading and validation.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds liquidity service configuration.
type Config struct {
	RPCURL             string
	ChainID            int64
	PrivateKey         string // Hex-encoded signer key; env only, never a flag
	ListenAddr         string
	DatabasePath       string        // Path to SQLite database file
	CORSAllowedOrigins string        // Comma-separated list of allowed origins, or "*" for all (default: "*")
	UseLegacyTxs       bool          // Submit pre-EIP-1559 transactions
	ReceiptTimeout     time.Duration // How long to wait for transaction confirmation
	LogLevel           string        // debug, info, warn, error
}

// Defaults
const (
	DefaultRPCURL             = "http://localhost:8545"
	DefaultChainID            = 1
	DefaultListenAddr         = ":3001"
	DefaultDatabasePath       = "./data/liquidity.db"
	DefaultCORSAllowedOrigins = "*" // Allow all origins by default for dev
	DefaultReceiptTimeout     = 90 * time.Second
	DefaultLogLevel           = "info"
)

// Load reads configuration from environment variables and command-line
// flags. Command-line flags take precedence over environment variables.
// The signer key is accepted only through PRIVATE_KEY so it never shows
// up in process listings.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		RPCURL:             DefaultRPCURL,
		ChainID:            DefaultChainID,
		ListenAddr:         DefaultListenAddr,
		DatabasePath:       DefaultDatabasePath,
		CORSAllowedOrigins: DefaultCORSAllowedOrigins,
		ReceiptTimeout:     DefaultReceiptTimeout,
		LogLevel:           DefaultLogLevel,
	}

	// Load from environment variables first
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.RPCURL = v
	}
	if v := os.Getenv("CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			cfg.ChainID = id
		}
	}
	cfg.PrivateKey = os.Getenv("PRIVATE_KEY")
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	fs := flag.NewFlagSet("liquidityd", flag.ContinueOnError)
	var (
		rpcURL         = fs.String("rpc", cfg.RPCURL, "Ethereum JSON-RPC URL")
		chainID        = fs.Int64("chainid", cfg.ChainID, "Chain ID")
		listenAddr     = fs.String("listen", cfg.ListenAddr, "HTTP listen address")
		databasePath   = fs.String("db", cfg.DatabasePath, "SQLite database path")
		legacyTxs      = fs.Bool("legacy-txs", false, "Submit pre-EIP-1559 transactions")
		receiptTimeout = fs.Duration("receipt-timeout", cfg.ReceiptTimeout, "How long to wait for transaction confirmation")
		logLevel       = fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.RPCURL = *rpcURL
	cfg.ChainID = *chainID
	cfg.ListenAddr = *listenAddr
	cfg.DatabasePath = *databasePath
	cfg.UseLegacyTxs = *legacyTxs
	cfg.ReceiptTimeout = *receiptTimeout
	cfg.LogLevel = *logLevel

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL is required")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("chain ID must be positive")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY environment variable is required")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.ReceiptTimeout <= 0 {
		return fmt.Errorf("receipt timeout must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}
