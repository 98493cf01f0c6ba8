package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/precinctdesk/go-auth"
)

const EnvPrefix = "AUTHD"

const (
	AddrKey            = "addr"
	DSNKey             = "dsn"
	JWTSecretKey       = "jwt_secret"
	TokenTTLKey        = "token_ttl"
	IssuerKey          = "issuer"
	AudienceKey        = "audience"
	ContextKeyKey      = "context_key"
	TokenLookupKey     = "token_lookup"
	AuthSchemeKey      = "auth_scheme"
	HashedIDsKey       = "hashed_ids"
	RegistryTimeoutKey = "registry_timeout"
	MobileRegionKey    = "mobile_region"
	LogLevelKey        = "log.level"
	LogFormatKey       = "log.format"
	LogNoColorKey      = "log.no_color"
)

// Config is the authd process configuration
type Config struct {
	Addr            string        `mapstructure:"addr"`
	DSN             string        `mapstructure:"dsn"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        []string      `mapstructure:"audience"`
	ContextKey      string        `mapstructure:"context_key"`
	TokenLookup     string        `mapstructure:"token_lookup"`
	AuthScheme      string        `mapstructure:"auth_scheme"`
	HashedIDs       bool          `mapstructure:"hashed_ids"`
	RegistryTimeout time.Duration `mapstructure:"registry_timeout"`
	MobileRegion    string        `mapstructure:"mobile_region"`
	Log             Log           `mapstructure:"log"`
}

type Log struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var _ auth.Config = (*Config)(nil)

// NewViper returns a viper instance reading AUTHD_* variables with every
// default registered, so env only keys are picked up by Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(AddrKey, ":8080")
	v.SetDefault(DSNKey, "file:auth.db?cache=shared")
	v.SetDefault(JWTSecretKey, "")
	v.SetDefault(TokenTTLKey, auth.DefaultTokenExpiration)
	v.SetDefault(IssuerKey, "")
	v.SetDefault(AudienceKey, []string{})
	v.SetDefault(ContextKeyKey, auth.DefaultContextKey)
	v.SetDefault(TokenLookupKey, "header:Authorization")
	v.SetDefault(AuthSchemeKey, "Bearer")
	v.SetDefault(HashedIDsKey, false)
	v.SetDefault(RegistryTimeoutKey, auth.DefaultRegistryTimeout)
	v.SetDefault(MobileRegionKey, "")
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LogFormatKey, "console")
	v.SetDefault(LogNoColorKey, false)
}

// Load decodes v into a Config. A missing signing secret is a
// configuration error.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, auth.NewConfigurationError("failed to decode configuration: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return auth.NewConfigurationError(EnvPrefix + "_JWT_SECRET is required")
	}
	if c.TokenTTL < 0 {
		return auth.NewConfigurationError("token_ttl must not be negative")
	}
	if c.RegistryTimeout < 0 {
		return auth.NewConfigurationError("registry_timeout must not be negative")
	}
	return nil
}

func (c *Config) GetSigningKey() string {
	return c.JWTSecret
}

func (c *Config) GetTokenExpiration() time.Duration {
	if c.TokenTTL <= 0 {
		return auth.DefaultTokenExpiration
	}
	return c.TokenTTL
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

func (c *Config) GetAudience() []string {
	return c.Audience
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}
