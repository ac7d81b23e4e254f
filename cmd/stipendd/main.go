package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stipend/config"
	"stipend/core"
	"stipend/observability/logging"
	"stipend/rpc"
	"stipend/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "stipendd: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger := logging.Setup("stipendd", cfg.Environment)

	clock, err := cfg.Clock()
	if err != nil {
		return err
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}
	tokenCfg, err := cfg.TokenConfig()
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	node := core.NewNode(core.Config{
		DB:       db,
		Clock:    clock,
		Schedule: schedule,
		Token:    tokenCfg,
		Decimals: cfg.TokenDecimals,
		Logger:   logger,
	})

	if treasury := strings.TrimSpace(cfg.Treasury); treasury != "" {
		if err := applyTreasury(node, treasury); err != nil {
			return err
		}
	}

	server := rpc.NewServer(node, cfg.AdminToken)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc listening", "address", cfg.ListenAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func applyTreasury(node *core.Node, treasury string) error {
	decoded, err := hex.DecodeString(strings.TrimPrefix(treasury, "0x"))
	if err != nil {
		return fmt.Errorf("treasury address: %w", err)
	}
	var addr [20]byte
	if len(decoded) != len(addr) {
		return fmt.Errorf("treasury must be a 20-byte hex address")
	}
	copy(addr[:], decoded)
	return node.SetTreasury(addr)
}
