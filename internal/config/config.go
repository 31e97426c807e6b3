package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"wallet-session-api/internal/events"
	"wallet-session-api/internal/ledger"
	"wallet-session-api/internal/storage"
)

const (
	DefaultHTTPAddr    = ":8080"
	DefaultStoragePath = "data/session"
	DefaultKafkaTopic  = "wallet-session-events"
	DefaultLogLevel    = "info"
)

type Config struct {
	WalletRPCURL        string
	ContractAddress     string
	StorageBackend      string
	StoragePath         string
	DatabaseURL         string
	KafkaBrokers        []string
	KafkaTopic          string
	HTTPAddr            string
	LogLevel            string
	ReceiptPollInterval time.Duration
}

// Load reads a .env file if one exists, then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		WalletRPCURL:        os.Getenv("WALLET_RPC_URL"),
		ContractAddress:     os.Getenv("CONTRACT_ADDRESS"),
		StorageBackend:      getenv("STORAGE_BACKEND", storage.BackendLevelDB),
		StoragePath:         getenv("STORAGE_PATH", DefaultStoragePath),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		KafkaBrokers:        events.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getenv("KAFKA_TOPIC", DefaultKafkaTopic),
		HTTPAddr:            getenv("HTTP_ADDR", DefaultHTTPAddr),
		LogLevel:            getenv("LOG_LEVEL", DefaultLogLevel),
		ReceiptPollInterval: ledger.DefaultPollInterval,
	}

	if raw := os.Getenv("RECEIPT_POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("RECEIPT_POLL_INTERVAL: %w", err)
		}
		cfg.ReceiptPollInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ContractAddress != "" && !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("CONTRACT_ADDRESS %q is not a hex address", c.ContractAddress)
	}
	switch c.StorageBackend {
	case storage.BackendLevelDB:
		if c.StoragePath == "" {
			return errors.New("STORAGE_PATH is required for the leveldb backend")
		}
	case storage.BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.ReceiptPollInterval <= 0 {
		return errors.New("RECEIPT_POLL_INTERVAL must be positive")
	}
	return nil
}

// WalletPresent reports whether a wallet endpoint is configured.
func (c *Config) WalletPresent() bool {
	return c.WalletRPCURL != ""
}

// Contract returns the configured contract address, if any.
func (c *Config) Contract() (common.Address, bool) {
	if c.ContractAddress == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.ContractAddress), true
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
