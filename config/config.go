package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Near     NearConfig     `mapstructure:"near"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// NearConfig selects the NEAR RPC endpoint used to confirm wallet keys.
type NearConfig struct {
	Network       string        `mapstructure:"network"` // testnet, mainnet
	RPCTestnetURL string        `mapstructure:"rpc_testnet_url"`
	RPCMainnetURL string        `mapstructure:"rpc_mainnet_url"`
	RPCTimeout    time.Duration `mapstructure:"rpc_timeout"`
}

// RPCURL returns the endpoint for the configured network.
func (n NearConfig) RPCURL() string {
	if n.Network == "mainnet" {
		return n.RPCMainnetURL
	}
	return n.RPCTestnetURL
}

type AuthConfig struct {
	ReplayTTL time.Duration `mapstructure:"replay_ttl"` // 0 disables the signed-payload replay guard
}

// WebhookConfig holds the shared secrets used by indexer webhook callers.
type WebhookConfig struct {
	PagodaBearer string        `mapstructure:"pagoda_bearer"`
	HMACSecret   string        `mapstructure:"hmac_secret"` // empty disables the signed variant
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type RabbitMQConfig struct {
	URL      string `mapstructure:"url"` // empty = events are logged and dropped
	Exchange string `mapstructure:"exchange"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: DEV3_.
// Nested keys use underscore: DEV3_DATABASE_HOST, DEV3_WEBHOOK_PAGODA_BEARER, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "dev3")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "168h")
	v.SetDefault("jwt.issuer", "dev3-backend")
	v.SetDefault("near.network", "testnet")
	v.SetDefault("near.rpc_testnet_url", "https://rpc.testnet.near.org")
	v.SetDefault("near.rpc_mainnet_url", "https://rpc.mainnet.near.org")
	v.SetDefault("near.rpc_timeout", "5s")
	v.SetDefault("auth.replay_ttl", "10m")
	v.SetDefault("webhook.pagoda_bearer", "")
	v.SetDefault("webhook.hmac_secret", "")
	v.SetDefault("webhook.cache_ttl", "24h")
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "payment_events")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DEV3")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Webhook.PagodaBearer == "" {
		errs = append(errs, errors.New("webhook.pagoda_bearer is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}
	switch c.Near.Network {
	case "testnet", "mainnet":
	default:
		errs = append(errs, fmt.Errorf("near.network must be testnet or mainnet, got %q", c.Near.Network))
	}
	if c.Near.RPCURL() == "" {
		errs = append(errs, errors.New("near rpc url is empty"))
	}
	return errors.Join(errs...)
}
