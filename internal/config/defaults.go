package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const header = `# page-service configuration
# Every key can be overridden from the environment with the PAGESVC_ prefix,
# e.g. PAGESVC_SERVER_ADDR=:9090 or PAGESVC_UPSTREAMS_CATALOG_BASE_URL=http://catalog.
`

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	upstream := func(baseURL string) UpstreamConfig {
		return UpstreamConfig{BaseURL: baseURL, Timeout: 2 * time.Second, Retries: 1}
	}
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Domains: []string{"carparts.com"},
		Overrides: []OverrideConfig{
			{Key: "previewDate", Name: "preview_date"},
		},
		Budget: 3 * time.Second,
		Pages: PagesConfig{
			ProductsPerPage: 24,
			CanonicalScheme: "https",
		},
		SEO: SEOConfig{
			DBPath: "~/.page-service/seo.db",
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  5 * time.Minute,
		},
		Upstreams: UpstreamsConfig{
			Catalog: upstream("http://localhost:9001"),
			Content: upstream("http://localhost:9002"),
			Vehicle: upstream("http://localhost:9003"),
			Order:   upstream("http://localhost:9004"),
			Rating:  upstream("http://localhost:9005"),
		},
	}
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default configuration to a file
func WriteDefault(path string) error {
	body, err := Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(header), body...), 0644)
}
