package config

import (
	"errors"
	"time"

	"tunicharge/libs/config"
)

// Config is the service configuration, loadable from YAML plus env overrides.
type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Auth     Auth     `yaml:"auth"`
	Routing  Routing  `yaml:"routing"`
	Import   Import   `yaml:"import"`
}

// HTTP is the listener configuration.
type HTTP struct {
	Port string `yaml:"port" env:"HTTP_PORT"`
}

// Postgres is the database configuration.
type Postgres struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

// Redis is the cache configuration. Addr empty disables route caching.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

// Auth configures token issuance.
type Auth struct {
	JWTSecret   string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenExpiry time.Duration `yaml:"token_expiry" env:"TOKEN_EXPIRY"`
}

// Routing configures the driving-directions provider.
type Routing struct {
	BaseURL  string        `yaml:"base_url" env:"ROUTING_BASE_URL"`
	APIKey   string        `yaml:"api_key" env:"ROUTING_API_KEY"`
	Timeout  time.Duration `yaml:"timeout" env:"ROUTING_TIMEOUT"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"ROUTING_CACHE_TTL"`
}

// Import configures the station importer CLI.
type Import struct {
	OpenChargeMapKey string `yaml:"open_charge_map_key" env:"OCM_API_KEY"`
	CountryCode      string `yaml:"country_code" env:"OCM_COUNTRY_CODE"`
	MaxResults       int    `yaml:"max_results" env:"OCM_MAX_RESULTS"`
}

// Load reads the configuration, applies defaults and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:    HTTP{Port: "8080"},
		Auth:    Auth{TokenExpiry: 24 * time.Hour},
		Routing: Routing{BaseURL: "https://api.openrouteservice.org", Timeout: 8 * time.Second, CacheTTL: time.Hour},
		Import:  Import{CountryCode: "TN", MaxResults: 500},
	}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}

	if cfg.Postgres.DSN == "" {
		return nil, errors.New("config: POSTGRES_DSN is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET is required")
	}
	return cfg, nil
}
