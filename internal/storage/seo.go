package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/team-pogie-react/page-service/internal/apierr"
	"github.com/team-pogie-react/page-service/internal/core"
)

// AnyDomain is the domain of entries that apply to every storefront.
const AnyDomain = "*"

// SEOStore serves page metadata templates from SQLite.
// It implements core.MetadataService.
type SEOStore struct {
	db *sql.DB
}

// PageMeta is one metadata template. Text fields may contain {param} placeholders.
type PageMeta struct {
	Domain      string    `yaml:"domain"`
	PageKey     string    `yaml:"page"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Keywords    string    `yaml:"keywords,omitempty"`
	H1          string    `yaml:"h1,omitempty"`
	Robots      string    `yaml:"robots,omitempty"`
	UpdatedAt   time.Time `yaml:"-"`
}

// ImportFile is the YAML document accepted by Import.
type ImportFile struct {
	Pages []PageMeta `yaml:"pages"`
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// NewSEOStore opens (or creates) the store at dbPath.
func NewSEOStore(dbPath string) (*SEOStore, error) {
	// Expand ~ in path
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &SEOStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *SEOStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS page_meta (
			domain TEXT NOT NULL,
			page_key TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '',
			h1 TEXT NOT NULL DEFAULT '',
			robots TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (domain, page_key)
		);

		CREATE INDEX IF NOT EXISTS idx_page_meta_page ON page_meta(page_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SEOStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SEOStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts or replaces one template.
func (s *SEOStore) Save(ctx context.Context, m PageMeta) error {
	return s.save(ctx, s.db, m)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SEOStore) save(ctx context.Context, db execer, m PageMeta) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO page_meta (domain, page_key, title, description, keywords, h1, robots, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, normalizeDomain(m.Domain), m.PageKey, m.Title, m.Description, m.Keywords, m.H1, m.Robots, m.UpdatedAt)
	return err
}

// Get returns the raw template for domain and pageKey, falling back to the
// AnyDomain entry.
func (s *SEOStore) Get(ctx context.Context, domain, pageKey string) (*PageMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT domain, page_key, title, description, keywords, h1, robots, updated_at
		FROM page_meta
		WHERE page_key = ? AND domain IN (?, ?)
		ORDER BY CASE domain WHEN ? THEN 1 ELSE 0 END
		LIMIT 1
	`, pageKey, normalizeDomain(domain), AnyDomain, AnyDomain)

	var m PageMeta
	err := row.Scan(&m.Domain, &m.PageKey, &m.Title, &m.Description, &m.Keywords, &m.H1, &m.Robots, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierr.NotFound("no metadata for page %q on %s", pageKey, domain)
		}
		return nil, err
	}
	return &m, nil
}

// List returns every template, ordered by domain and page.
func (s *SEOStore) List(ctx context.Context) ([]PageMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, page_key, title, description, keywords, h1, robots, updated_at
		FROM page_meta
		ORDER BY domain, page_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PageMeta
	for rows.Next() {
		var m PageMeta
		if err := rows.Scan(&m.Domain, &m.PageKey, &m.Title, &m.Description, &m.Keywords, &m.H1, &m.Robots, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetMetadata renders the template for pageKey on params["domain"].
func (s *SEOStore) GetMetadata(ctx context.Context, pageKey string, params map[string]string) (*core.Metadata, error) {
	m, err := s.Get(ctx, params["domain"], pageKey)
	if err != nil {
		return nil, err
	}
	return &core.Metadata{
		Title:       Render(m.Title, params),
		Description: Render(m.Description, params),
		Keywords:    Render(m.Keywords, params),
		H1:          Render(m.H1, params),
		Robots:      m.Robots,
	}, nil
}

// Render fills {param} placeholders from params. Unknown placeholders are dropped
// and the surrounding whitespace collapsed.
func Render(tmpl string, params map[string]string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		return params[m[1:len(m)-1]]
	})
	return strings.Join(strings.Fields(out), " ")
}

// Import loads an ImportFile from path and saves every entry in one transaction.
// Invalid entries are all reported and nothing is written.
func (s *SEOStore) Import(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var f ImportFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var errs error
	for i, m := range f.Pages {
		if m.Domain == "" {
			errs = multierr.Append(errs, fmt.Errorf("pages[%d]: domain is required", i))
		}
		if m.PageKey == "" {
			errs = multierr.Append(errs, fmt.Errorf("pages[%d]: page is required", i))
		}
		if m.Title == "" {
			errs = multierr.Append(errs, fmt.Errorf("pages[%d]: title is required", i))
		}
	}
	if errs != nil {
		return 0, errs
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	for _, m := range f.Pages {
		if err := s.save(ctx, tx, m); err != nil {
			return 0, multierr.Append(fmt.Errorf("failed to save %s/%s: %w", m.Domain, m.PageKey, err), tx.Rollback())
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(f.Pages), nil
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	return strings.TrimPrefix(d, "www.")
}
