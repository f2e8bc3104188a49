package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Wallet      WalletConfig      `mapstructure:"wallet"`
	Facilitator FacilitatorConfig `mapstructure:"facilitator"`
	Pricing     PricingConfig     `mapstructure:"pricing"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// WalletConfig drives wallet provider selection and the approval gate.
type WalletConfig struct {
	// Custodial provider (tried first).
	CustodialBaseURL string `mapstructure:"custodial_base_url"`
	CustodialAPIKey  string `mapstructure:"custodial_api_key"`
	OwnerID          string `mapstructure:"owner_id"`

	// Local key fallback. Hex-encoded secp256k1 private key.
	PrivateKey string `mapstructure:"private_key"`
	RPCURL     string `mapstructure:"rpc_url"`

	// ERC-20 asset the wallet pays with.
	AssetContract string `mapstructure:"asset_contract"`
	AssetSymbol   string `mapstructure:"asset_symbol"`
	AssetDecimals int    `mapstructure:"asset_decimals"`

	// Reserve is a balance floor in smallest asset units that outbound
	// spends may not dip into.
	Reserve int64 `mapstructure:"reserve"`

	ChainID         int64         `mapstructure:"chain_id"`
	Network         string        `mapstructure:"network"`
	ApprovalTimeout time.Duration `mapstructure:"approval_timeout"`
	InitTimeout     time.Duration `mapstructure:"init_timeout"`
}

// FacilitatorConfig points at the external payment verification service.
type FacilitatorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	PayTo   string        `mapstructure:"pay_to"` // address challenges direct payment to
}

// PricingConfig holds nightly rates in whole units of the settlement asset.
type PricingConfig struct {
	// Rates maps resource id to nightly rate in whole asset units.
	Rates map[string]int64 `mapstructure:"rates"`
	// DefaultRate applies when a resource has no explicit entry. Zero disables it.
	DefaultRate int64 `mapstructure:"default_rate"`
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

// AuthConfig holds the operator login credential. The hash is argon2id
// in PHC string format, generated offline.
type AuthConfig struct {
	OperatorUsername     string `mapstructure:"operator_username"`
	OperatorPasswordHash string `mapstructure:"operator_password_hash"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SEAPAY.
// Nested keys use underscore: SEAPAY_WALLET_PRIVATE_KEY, SEAPAY_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("wallet.custodial_base_url", "")
	v.SetDefault("wallet.custodial_api_key", "")
	v.SetDefault("wallet.owner_id", "")
	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.rpc_url", "https://sepolia.base.org")
	v.SetDefault("wallet.asset_contract", "0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	v.SetDefault("wallet.asset_symbol", "USDC")
	v.SetDefault("wallet.asset_decimals", 6)
	v.SetDefault("wallet.reserve", 0)
	v.SetDefault("wallet.chain_id", 84532)
	v.SetDefault("wallet.network", "base-sepolia")
	v.SetDefault("wallet.approval_timeout", "120s")
	v.SetDefault("wallet.init_timeout", "30s")
	v.SetDefault("facilitator.base_url", "https://x402.org/facilitator")
	v.SetDefault("facilitator.timeout", "10s")
	v.SetDefault("facilitator.pay_to", "")
	v.SetDefault("pricing.default_rate", 0)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "seapay")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.operator_username", "operator")
	v.SetDefault("auth.operator_password_hash", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "seapay")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SEAPAY_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SEAPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional. Env vars can carry everything.
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
