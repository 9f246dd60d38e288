package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stategrc/posturehub/pkg/constants"
)

// LoadConfig loads the configuration from file and environment variables.
// File lookup order: /etc/posturehub/config.yaml, then ./config.yaml.
// Environment variables use the POSTUREHUB_ prefix with "." replaced by "_".
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.idle_timeout", 60)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", 30)
	v.SetDefault("database.statement_timeout", constants.DefaultStorageTimeoutSec)
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.tier_cache_ttl", 60)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.audit_topic", "posture-access-audit")
	v.SetDefault("kafka.write_timeout", 10*time.Second)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", time.Second)
	v.SetDefault("kafka.required_acks", -1)
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.fingerprint_path", "posturehub/access/fingerprints")
	v.SetDefault("aggregate.enabled", true)
	v.SetDefault("aggregate.hour_utc", constants.DefaultAggregateHourUTC)
	v.SetDefault("context.tenant_cap", constants.DefaultContextTenantCap)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "posturehub")
	v.SetDefault("monitoring.pprof_enabled", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/posturehub/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("POSTUREHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
