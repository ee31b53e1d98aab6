package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jluxury929-hash/gas/internal/chain"
	"github.com/jluxury929-hash/gas/internal/config"
	"github.com/jluxury929-hash/gas/internal/relay"
	"github.com/jluxury929-hash/gas/internal/router"
	"github.com/jluxury929-hash/gas/internal/wallet"
)

func main() {
	// .env is optional, env vars may come from the deployment instead
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	registry := config.DefaultRegistry()
	engine := initEngine(cfg, registry)

	r := router.SetupRouter(cfg, engine)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("Starting gasless withdrawal backend")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Forced shutdown")
	}
	if client := engine.Client(); client != nil {
		client.Close()
	}
}

// initEngine builds the relay engine. Wallet or RPC initialization failure
// leaves the service running in a permanently not-ready state: every
// withdrawal is rejected with 503 instead of crashing at startup.
func initEngine(cfg *config.Config, registry *config.Registry) *relay.Engine {
	operator, err := wallet.New(cfg.Wallet.SeedPhrase, cfg.Wallet.PrivateKey)
	if err != nil {
		logrus.WithError(err).Warn("Operator wallet not configured, service will report not-ready")
		return relay.NewEngine(nil, nil, registry, cfg.Relay)
	}
	logrus.WithFields(logrus.Fields{
		"address": operator.Address.Hex(),
		"source":  operator.Source,
	}).Info("Operator wallet initialized")

	rpcURL := cfg.Chain.RPCEndpoint()
	if rpcURL == "" {
		logrus.Warn("No RPC endpoint configured, service will report not-ready")
		return relay.NewEngine(nil, operator, registry, cfg.Relay)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := chain.Dial(ctx, rpcURL, cfg.Chain.ChainID)
	if err != nil {
		logrus.WithError(err).Warn("RPC connection failed, service will report not-ready")
		return relay.NewEngine(nil, operator, registry, cfg.Relay)
	}

	if balance, err := client.NativeBalance(ctx, operator.Address); err == nil {
		engine := relay.NewEngine(client, operator, registry, cfg.Relay)
		guard := engine.Guard()
		if !guard.Ready(ctx) {
			logrus.WithField("balance_wei", balance.String()).Warn("Low operator balance, fund the admin wallet")
		}
		return engine
	}

	return relay.NewEngine(client, operator, registry, cfg.Relay)
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
