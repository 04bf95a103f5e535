package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Detector DetectorConfig `mapstructure:"detector"`
	Chains   ChainsConfig   `mapstructure:"chains"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// DetectorConfig holds the knobs of the detection engine. All values are
// fixed at startup and never mutated at runtime.
type DetectorConfig struct {
	RPCTimeout          time.Duration `mapstructure:"rpc_timeout"`
	ProviderCacheTTL    time.Duration `mapstructure:"provider_cache_ttl"`
	RateWindow          time.Duration `mapstructure:"rate_window"`
	RateCeiling         int           `mapstructure:"rate_ceiling"`
	BackoffStart        time.Duration `mapstructure:"backoff_start"`
	BackoffCap          time.Duration `mapstructure:"backoff_cap"`
	BackoffFactor       int           `mapstructure:"backoff_factor"`
	SolanaFanout        int           `mapstructure:"solana_fanout"`
	TxEndpointsPerChain int           `mapstructure:"tx_endpoints_per_chain"`
}

// ChainsConfig holds the ordered RPC endpoint lists per chain. Order encodes
// preference: the first endpoint is the most trusted one.
type ChainsConfig struct {
	Solana   []string `mapstructure:"solana"`
	Ethereum []string `mapstructure:"ethereum"`
	BSC      []string `mapstructure:"bsc"`
	Base     []string `mapstructure:"base"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "chaindetect")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("detector.rpc_timeout", "10s")
	v.SetDefault("detector.provider_cache_ttl", "5m")
	v.SetDefault("detector.rate_window", "60s")
	v.SetDefault("detector.rate_ceiling", 30)
	v.SetDefault("detector.backoff_start", "100ms")
	v.SetDefault("detector.backoff_cap", "1s")
	v.SetDefault("detector.backoff_factor", 2)
	v.SetDefault("detector.solana_fanout", 3)
	v.SetDefault("detector.tx_endpoints_per_chain", 2)
	v.SetDefault("chains.solana", []string{
		"https://api.mainnet-beta.solana.com",
		"https://solana-rpc.publicnode.com",
		"https://rpc.ankr.com/solana",
	})
	v.SetDefault("chains.ethereum", []string{
		"https://eth.llamarpc.com",
		"https://ethereum-rpc.publicnode.com",
		"https://rpc.ankr.com/eth",
	})
	v.SetDefault("chains.bsc", []string{
		"https://bsc-dataseed.bnbchain.org",
		"https://bsc-rpc.publicnode.com",
		"https://rpc.ankr.com/bsc",
	})
	v.SetDefault("chains.base", []string{
		"https://mainnet.base.org",
		"https://base-rpc.publicnode.com",
		"https://rpc.ankr.com/base",
	})

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
		}
	}

	v.SetEnvPrefix("CHAINDETECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c DetectorConfig) GetRPCTimeout() time.Duration {
	return c.RPCTimeout
}

func (c DetectorConfig) GetProviderCacheTTL() time.Duration {
	return c.ProviderCacheTTL
}

func (c DetectorConfig) GetRateWindow() time.Duration {
	return c.RateWindow
}
