package config

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/team-pogie-react/page-service/internal/core"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGESVC"

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then PAGESVC_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Seed viper with the defaults so that every key is known to AutomaticEnv.
	defaults, err := Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs error
	if len(c.Domains) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("domains: at least one domain is required"))
	}
	if c.Budget < 0 {
		errs = multierr.Append(errs, fmt.Errorf("budget: must not be negative"))
	}
	if c.Cache.Size < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cache.size: must not be negative"))
	}
	for i, o := range c.Overrides {
		if o.Key == "" || o.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("overrides[%d]: key and name are required", i))
		}
	}
	for name, u := range c.Upstreams.Named() {
		if u.BaseURL == "" {
			errs = multierr.Append(errs, fmt.Errorf("upstreams.%s.base_url: required", name))
			continue
		}
		if parsed, err := url.Parse(u.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("upstreams.%s.base_url: %q is not an absolute URL", name, u.BaseURL))
		}
		if u.Retries < 0 {
			errs = multierr.Append(errs, fmt.Errorf("upstreams.%s.retries: must not be negative", name))
		}
	}
	return errs
}

// EngineConfig returns the page engine's view of the configuration.
func (c *Config) EngineConfig() core.Config {
	overrides := make(map[string]string, len(c.Overrides))
	for _, o := range c.Overrides {
		overrides[o.Key] = o.Name
	}
	return core.Config{
		KnownDomains:    append([]string(nil), c.Domains...),
		OverrideKeys:    overrides,
		Budget:          c.Budget,
		CanonicalScheme: c.Pages.CanonicalScheme,
		ProductsPerPage: c.Pages.ProductsPerPage,
	}
}
