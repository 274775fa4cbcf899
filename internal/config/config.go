// Package config loads the proxy's runtime configuration: an optional
// TOML file layered under environment variables, the same file-then-env
// precedence cmd/geth's own config loading uses (reduced here to
// file-then-env since flags are out of scope for the core — spec.md §6's
// environment list has no CLI-only settings).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full set of settings spec.md §6 names: the foreign-ledger
// RPC URL, minimum gas price, DB connection string, executor count,
// resource pool size, service/maintenance bind addresses, mempool tx
// cache TTL, and genesis timestamp.
//
// None of these fields carry envconfig's "default" or "required" tags:
// envconfig.Process applies a default purely on "env var absent", with no
// regard for a value toml.DecodeFile already wrote into the struct, and
// it applies "required" the same way — both would silently clobber, or
// spuriously reject, a value that came from the TOML file alone. Defaults
// and required-field checks are applied by hand in Load instead, after
// both decode steps have run.
type Config struct {
	ForeignLedgerRPCURL string        `toml:"foreign_ledger_rpc_url" envconfig:"FOREIGN_LEDGER_RPC_URL"`
	MinimumGasPrice     uint64        `toml:"minimum_gas_price" envconfig:"MINIMUM_GAS_PRICE"`
	SuggestedGasPrice   uint64        `toml:"suggested_gas_price" envconfig:"SUGGESTED_GAS_PRICE"`
	DatabaseURL         string        `toml:"database_url" envconfig:"DATABASE_URL"`
	ExecutorCount       int           `toml:"executor_count" envconfig:"EXECUTOR_COUNT"`
	ResourcePoolSize    int           `toml:"resource_pool_size" envconfig:"RESOURCE_POOL_SIZE"`
	ServiceBindAddr     string        `toml:"service_bind_addr" envconfig:"SERVICE_BIND_ADDR"`
	MaintenanceBindAddr string        `toml:"maintenance_bind_addr" envconfig:"MAINTENANCE_BIND_ADDR"`
	RPCBindAddr         string        `toml:"rpc_bind_addr" envconfig:"RPC_BIND_ADDR"`
	MempoolCacheTTL     time.Duration `toml:"mempool_cache_ttl" envconfig:"MEMPOOL_CACHE_TTL"`
	GenesisTimestamp    int64         `toml:"genesis_timestamp" envconfig:"GENESIS_TIMESTAMP"`
	ChainID             uint64        `toml:"chain_id" envconfig:"CHAIN_ID"`
	NetVersion          string        `toml:"net_version" envconfig:"NET_VERSION"`
	ClientVersion       string        `toml:"client_version" envconfig:"CLIENT_VERSION"`
	ForeignRPCTimeout   time.Duration `toml:"foreign_rpc_timeout" envconfig:"FOREIGN_RPC_TIMEOUT"`
}

// Load builds a Config by first reading tomlPath (if non-empty and the
// file exists) then overlaying environment variables — env always wins,
// matching cmd/geth's own "config file sets defaults, flags/env override"
// layering. Defaults for optional fields and presence checks for required
// fields are applied afterward by hand, so a value either layer already
// set survives untouched.
func Load(tomlPath string) (*Config, error) {
	var cfg Config

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", tomlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", tomlPath, err)
		}
	}

	if err := envconfig.Process("NEON_PROXY", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}

	applyDefaults(&cfg)

	for _, req := range []struct {
		name string
		set  bool
	}{
		{"foreign_ledger_rpc_url/FOREIGN_LEDGER_RPC_URL", cfg.ForeignLedgerRPCURL != ""},
		{"database_url/DATABASE_URL", cfg.DatabaseURL != ""},
		{"genesis_timestamp/GENESIS_TIMESTAMP", cfg.GenesisTimestamp != 0},
	} {
		if !req.set {
			return nil, fmt.Errorf("config: required key %s missing value", req.name)
		}
	}

	return &cfg, nil
}

// applyDefaults fills every optional field still at its zero value after
// both the TOML and env layers have run.
func applyDefaults(cfg *Config) {
	if cfg.MinimumGasPrice == 0 {
		cfg.MinimumGasPrice = 1
	}
	if cfg.SuggestedGasPrice == 0 {
		cfg.SuggestedGasPrice = 1
	}
	if cfg.ExecutorCount == 0 {
		cfg.ExecutorCount = 4
	}
	if cfg.ResourcePoolSize == 0 {
		cfg.ResourcePoolSize = 8
	}
	if cfg.ServiceBindAddr == "" {
		cfg.ServiceBindAddr = "0.0.0.0:9091"
	}
	if cfg.MaintenanceBindAddr == "" {
		cfg.MaintenanceBindAddr = "0.0.0.0:9092"
	}
	if cfg.RPCBindAddr == "" {
		cfg.RPCBindAddr = "0.0.0.0:9090"
	}
	if cfg.MempoolCacheTTL == 0 {
		cfg.MempoolCacheTTL = 15 * time.Second
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 111
	}
	if cfg.NetVersion == "" {
		cfg.NetVersion = "111"
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = "neon-proxy-go/dev"
	}
	if cfg.ForeignRPCTimeout == 0 {
		cfg.ForeignRPCTimeout = 10 * time.Second
	}
}
