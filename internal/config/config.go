package config

import (
	"fmt"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Policy     PolicyConfig     `mapstructure:"policy"`
	Aggregate  AggregateConfig  `mapstructure:"aggregate"`
	Context    ContextConfig    `mapstructure:"context"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"` // in minutes
	StatementTimout int    `mapstructure:"statement_timeout"` // in seconds
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// StorageTimeout returns the bounded timeout applied to every store call.
func (c *DatabaseConfig) StorageTimeout() time.Duration {
	if c.StatementTimout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.StatementTimout) * time.Second
}

type RedisConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
	PoolSize     int      `mapstructure:"pool_size"`
	MinIdleConns int      `mapstructure:"min_idle_conns"`
	TierCacheTTL int      `mapstructure:"tier_cache_ttl"` // in minutes
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

type VaultConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Address         string `mapstructure:"address"`
	Token           string `mapstructure:"token"`
	MountPath       string `mapstructure:"mount_path"`
	FingerprintPath string `mapstructure:"fingerprint_path"`
}

// PolicyConfig seeds the access policy. PolicyFile, when set, is watched for
// changes and reloaded by atomic swap of the whole policy object.
type PolicyConfig struct {
	AllowedTenants      []string `mapstructure:"allowed_tenants"`
	AllowedFingerprints []string `mapstructure:"allowed_fingerprints"`
	PolicyFile          string   `mapstructure:"policy_file"`
}

type AggregateConfig struct {
	Enabled bool `mapstructure:"enabled"`
	HourUTC int  `mapstructure:"hour_utc"`
}

type ContextConfig struct {
	TenantCap int `mapstructure:"tenant_cap"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

type MonitoringConfig struct {
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if len(c.Policy.AllowedTenants) == 0 && c.Policy.PolicyFile == "" {
		return fmt.Errorf("policy.allowed_tenants or policy.policy_file is required")
	}
	if c.Aggregate.HourUTC < 0 || c.Aggregate.HourUTC > 23 {
		return fmt.Errorf("aggregate.hour_utc out of range: %d", c.Aggregate.HourUTC)
	}
	return nil
}
