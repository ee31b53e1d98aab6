package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Wallet   WalletConfig `yaml:"wallet"`
	Chain    ChainConfig  `yaml:"chain"`
	Relay    RelayConfig  `yaml:"relay"`
	CORS     CORSConfig   `yaml:"cors"`
	LogLevel string       `yaml:"logLevel"`
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WalletConfig operator wallet configuration.
// Exactly one of SeedPhrase or PrivateKey must be set; SeedPhrase wins
// when both are present.
type WalletConfig struct {
	SeedPhrase string `yaml:"seedPhrase"`
	PrivateKey string `yaml:"privateKey"`
}

// ChainConfig RPC endpoint configuration
type ChainConfig struct {
	RPCURL     string `yaml:"rpcUrl"`
	AlchemyKey string `yaml:"alchemyKey"`
	ChainID    int64  `yaml:"chainId"`
}

// RelayConfig withdrawal relay tunables
type RelayConfig struct {
	NativePriceUSD     float64 `yaml:"nativePriceUSD"`
	MinRelayBalanceEth float64 `yaml:"minRelayBalanceEth"`
	ReadyBalanceEth    float64 `yaml:"readyBalanceEth"`
	MintGasLimit       uint64  `yaml:"mintGasLimit"`
	TransferGasLimit   uint64  `yaml:"transferGasLimit"`
	GasPriceMultiplier float64 `yaml:"gasPriceMultiplier"`
	ReceiptTimeoutSec  int     `yaml:"receiptTimeoutSec"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

// ReceiptTimeout confirmation wait bound per sub-attempt
func (r RelayConfig) ReceiptTimeout() time.Duration {
	return time.Duration(r.ReceiptTimeoutSec) * time.Second
}

// RPCEndpoint resolves the effective RPC URL. An explicit rpcUrl wins;
// otherwise the Alchemy mainnet URL is composed from the key.
func (c ChainConfig) RPCEndpoint() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	if c.AlchemyKey != "" {
		return "https://eth-mainnet.g.alchemy.com/v2/" + c.AlchemyKey
	}
	return ""
}

// Default returns the built-in configuration mirroring the production
// deployment values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Chain: ChainConfig{
			ChainID: 1,
		},
		Relay: RelayConfig{
			NativePriceUSD:     3450,
			MinRelayBalanceEth: 0.005,
			ReadyBalanceEth:    0.01,
			MintGasLimit:       250000,
			TransferGasLimit:   150000,
			GasPriceMultiplier: 1.2,
			ReceiptTimeoutSec:  120,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           3600,
		},
		LogLevel: "info",
	}
}

// Load reads the configuration file, preferring config.local.yaml when it
// exists, and applies environment-variable overrides on top. A missing file
// is not an error: env vars alone can carry a full deployment.
func Load(configPath string) (*Config, error) {
	config := Default()

	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
		}
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	overrideFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the tunables land in usable ranges. Wallet and RPC
// credentials are intentionally not required here: the service starts
// without them and reports not-ready instead.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Relay.GasPriceMultiplier < 1 {
		return fmt.Errorf("gas price multiplier must be >= 1, got %v", c.Relay.GasPriceMultiplier)
	}
	if c.Relay.NativePriceUSD <= 0 {
		return fmt.Errorf("native price must be positive, got %v", c.Relay.NativePriceUSD)
	}
	if c.Relay.ReceiptTimeoutSec <= 0 {
		return fmt.Errorf("receipt timeout must be positive, got %d", c.Relay.ReceiptTimeoutSec)
	}
	if c.Relay.MinRelayBalanceEth > c.Relay.ReadyBalanceEth {
		return fmt.Errorf("minRelayBalanceEth %v exceeds readyBalanceEth %v",
			c.Relay.MinRelayBalanceEth, c.Relay.ReadyBalanceEth)
	}
	return nil
}

// overrideFromEnv applies environment-variable overrides
func overrideFromEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if seed := os.Getenv("ADMIN_SEED_PHRASE"); seed != "" {
		config.Wallet.SeedPhrase = seed
	}
	if key := os.Getenv("ADMIN_PRIVATE_KEY"); key != "" {
		config.Wallet.PrivateKey = key
	}
	if url := os.Getenv("RPC_URL"); url != "" {
		config.Chain.RPCURL = url
	}
	if key := os.Getenv("ALCHEMY_API_KEY"); key != "" {
		config.Chain.AlchemyKey = key
	}
	if chainID := os.Getenv("CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseInt(chainID, 10, 64); err == nil {
			config.Chain.ChainID = id
		}
	}
	if price := os.Getenv("NATIVE_PRICE_USD"); price != "" {
		if p, err := strconv.ParseFloat(price, 64); err == nil {
			config.Relay.NativePriceUSD = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
}
