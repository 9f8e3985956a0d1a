package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port          string `koanf:"port"`
	AppEnv        string `koanf:"app_env"`
	MongoURI      string `koanf:"mongodb_uri"`
	DBName        string `koanf:"mongodb_db"`
	JWTSecret     string `koanf:"jwt_secret"`
	TokenTTLHours int    `koanf:"token_ttl_hours"`
	CORSOrigins   string `koanf:"cors_origins"`

	S3Bucket      string `koanf:"aws_s3_bucket"`
	S3Region      string `koanf:"aws_region"`
	S3AccessKeyID string `koanf:"aws_access_key_id"`
	S3SecretKey   string `koanf:"aws_secret_access_key"`
	MaxUploadMB   int64  `koanf:"max_upload_mb"`

	RedisAddr         string `koanf:"redis_addr"`
	RedisPassword     string `koanf:"redis_password"`
	RateLimitDisabled bool   `koanf:"rate_limit_disabled"`

	RecommendSeed int64 `koanf:"recommend_seed"`

	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPFrom     string `koanf:"smtp_from"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaults() Config {
	return Config{
		Port:          "8080",
		AppEnv:        "development",
		MongoURI:      "mongodb://localhost:27017",
		DBName:        "bookworm",
		JWTSecret:     defaultJWTSecret,
		TokenTTLHours: 24 * 7,
		CORSOrigins:   "http://localhost:3000",
		S3Region:      "us-east-1",
		MaxUploadMB:   5,
		SMTPPort:      587,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load builds the config from defaults overridden by environment variables.
// Env names map to keys by lowercasing: MONGODB_URI -> mongodb_uri.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 5
	}
	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = 24 * 7
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey skips unset-but-empty variables so they don't clobber defaults.
func envKey(key, value string) (string, interface{}) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return strings.ToLower(key), value
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Origins splits CORS_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// Validate rejects configurations that must not reach production.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Production() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
	if c.MongoURI == "" || c.DBName == "" {
		return errors.New("MONGODB_URI and MONGODB_DB are required")
	}
	return nil
}
