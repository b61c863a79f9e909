// Liquidity provisioning service.
// Exposes the orchestrator over an HTTP API with WebSocket phase
// streaming, persisting every attempt to SQLite.
package main

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tokenforge/liquidity/internal/account"
	"github.com/tokenforge/liquidity/internal/config"
	"github.com/tokenforge/liquidity/internal/metrics"
	"github.com/tokenforge/liquidity/internal/network"
	"github.com/tokenforge/liquidity/internal/orchestrator"
	"github.com/tokenforge/liquidity/internal/rpc"
	"github.com/tokenforge/liquidity/internal/service"
	"github.com/tokenforge/liquidity/internal/storage"
	"github.com/tokenforge/liquidity/internal/transport"
	"github.com/tokenforge/liquidity/internal/wallet"
)

// healthChecker backs the /ready probe with live RPC and storage checks.
type healthChecker struct {
	client rpc.Client
	store  storage.Storage
}

func (h *healthChecker) CheckRPC() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.client.GetGasPrice(ctx)
	return err
}

func (h *healthChecker) CheckStorage() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := h.store.ListAttempts(ctx, 1, 0)
	return err
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	registry := network.DefaultRegistry()
	if _, err := registry.Resolve(cfg.ChainID); err != nil {
		logger.Error("unsupported chain", "chainId", cfg.ChainID, "supported", registry.ChainIDs())
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("initialized storage", "path", cfg.DatabasePath)

	clientCfg := rpc.DefaultClientConfig(cfg.RPCURL)
	clientCfg.Logger = logger
	client := rpc.NewHTTPClient(clientCfg)

	acct, err := account.NewAccountFromHex(cfg.PrivateKey)
	if err != nil {
		logger.Error("invalid private key", "error", err)
		os.Exit(1)
	}
	logger.Info("signer loaded", "address", acct.Address.Hex())

	w := wallet.NewKeyWallet(acct, client, wallet.Config{
		ChainID:        big.NewInt(cfg.ChainID),
		UseLegacyTxs:   cfg.UseLegacyTxs,
		ReceiptTimeout: cfg.ReceiptTimeout,
		Logger:         logger,
	})

	orch := orchestrator.New(registry, client, w, logger)
	m := metrics.NewPrometheusMetrics(nil)
	svc := service.New(orch, store, m, cfg.ChainID, logger)

	server := transport.NewServer(svc, &healthChecker{client: client, store: store}, logger, cfg.CORSAllowedOrigins)
	defer server.Stop()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting HTTP server", "addr", cfg.ListenAddr, "chainId", cfg.ChainID)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
