package config

import "time"

// Config represents the full page-service configuration
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`

	// Storefront domains requests may target
	Domains []string `yaml:"domains" mapstructure:"domains"`

	// Request keys copied into the overrides forwarded to the order service.
	// A list rather than a map because viper lower-cases map keys.
	Overrides []OverrideConfig `yaml:"overrides" mapstructure:"overrides"`

	// Time budget for the upstream calls of one page (0 = none)
	Budget time.Duration `yaml:"budget" mapstructure:"budget"`

	Pages     PagesConfig     `yaml:"pages" mapstructure:"pages"`
	SEO       SEOConfig       `yaml:"seo" mapstructure:"seo"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Upstreams UpstreamsConfig `yaml:"upstreams" mapstructure:"upstreams"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig configures logging
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// OverrideConfig maps one request key to the override name it populates
type OverrideConfig struct {
	Key  string `yaml:"key" mapstructure:"key"`
	Name string `yaml:"name" mapstructure:"name"`
}

// PagesConfig configures page composition
type PagesConfig struct {
	ProductsPerPage int    `yaml:"products_per_page" mapstructure:"products_per_page"`
	CanonicalScheme string `yaml:"canonical_scheme" mapstructure:"canonical_scheme"`
}

// SEOConfig configures the metadata store
type SEOConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
}

// CacheConfig configures the upstream read-through cache
type CacheConfig struct {
	Size int           `yaml:"size" mapstructure:"size"`
	TTL  time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// UpstreamsConfig holds one entry per upstream collaborator
type UpstreamsConfig struct {
	Catalog UpstreamConfig `yaml:"catalog" mapstructure:"catalog"`
	Content UpstreamConfig `yaml:"content" mapstructure:"content"`
	Vehicle UpstreamConfig `yaml:"vehicle" mapstructure:"vehicle"`
	Order   UpstreamConfig `yaml:"order" mapstructure:"order"`
	Rating  UpstreamConfig `yaml:"rating" mapstructure:"rating"`
}

// UpstreamConfig configures one upstream HTTP client
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retries int           `yaml:"retries" mapstructure:"retries"`
}

// Named returns the upstreams keyed by name.
func (u UpstreamsConfig) Named() map[string]UpstreamConfig {
	return map[string]UpstreamConfig{
		"catalog": u.Catalog,
		"content": u.Content,
		"vehicle": u.Vehicle,
		"order":   u.Order,
		"rating":  u.Rating,
	}
}
