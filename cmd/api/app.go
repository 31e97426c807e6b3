package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"wallet-session-api/internal/config"
	"wallet-session-api/internal/events"
	"wallet-session-api/internal/ledger"
	"wallet-session-api/internal/logging"
	"wallet-session-api/internal/session"
	"wallet-session-api/internal/storage"
	"wallet-session-api/internal/wallet"
)

// app owns everything the session manager depends on.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *session.Manager

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	opts := session.Options{
		Logger: logger,
		Notifier: session.NotifierFunc(func(msg string) {
			logger.Warn("user notice", zap.String("message", msg))
		}),
	}

	store, err := storage.Open(cfg.StorageBackend, cfg.StoragePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.StorageBackend, err)
	}
	a.closers = append(a.closers, store.Close)
	opts.Store = store

	if cfg.WalletPresent() {
		provider, err := wallet.Dial(ctx, cfg.WalletRPCURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("dial wallet: %w", err)
		}
		a.closers = append(a.closers, func() error { provider.Close(); return nil })
		opts.Provider = provider

		if address, ok := cfg.Contract(); ok {
			contract, err := ledger.NewContract(address, ethclient.NewClient(provider.Client()), provider, logger)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("bind contract: %w", err)
			}
			contract.PollInterval = cfg.ReceiptPollInterval
			opts.Ledger = contract
		} else {
			logger.Warn("CONTRACT_ADDRESS not set, ledger calls disabled")
		}
	} else {
		logger.Warn("WALLET_RPC_URL not set, running without a wallet")
	}

	if cfg.KafkaEnabled() {
		publisher, err := events.NewKafkaPublisher(events.KafkaParams{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		opts.Events = publisher
	}

	a.manager = session.New(opts)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close", zap.Error(err))
		}
	}
	a.closers = nil
	a.logger.Sync()
}
