package dataset

import (
	"context"
	"database/sql"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/pkg/errors"

	// Drivers for the SQL-backed sources.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DefaultURL is the public copy of the historical automobile sales dataset.
const DefaultURL = "https://cf-courses-data.s3.us.cloud-object-storage.appdomain.cloud/IBMDeveloperSkillsNetwork-DV0101EN-SkillsNetwork/Data%20Files/historical_automobile_sales.csv"

//go:generate mockgen -source=source.go -destination=mocks/source.go -package=mocks

// Source produces the sales table. Implementations are used once at startup.
type Source interface {
	Load(ctx context.Context) (*Table, error)
	String() string
}

type SourceOptions struct {
	Table      string
	Parse      ParseOptions
	HTTPClient *http.Client
}

// NewSource picks a Source implementation from the URI scheme:
// http(s) fetches a CSV, postgres and sqlite read a table, anything else is
// a local CSV path.
func NewSource(uri string, opts SourceOptions) (Source, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, errors.New("dataset source is empty")
	}

	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return &HTTPSource{URL: uri, Client: opts.HTTPClient, Options: opts.Parse}, nil

	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		db, err := sql.Open("postgres", uri)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres")
		}
		return newOwnedSQLSource(db, opts, redact(uri))

	case strings.HasPrefix(uri, "sqlite://"):
		path := strings.TrimPrefix(uri, "sqlite://")
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite")
		}
		return newOwnedSQLSource(db, opts, uri)

	default:
		return &FileSource{Path: strings.TrimPrefix(uri, "file://"), Options: opts.Parse}, nil
	}
}

func newOwnedSQLSource(db *sql.DB, opts SourceOptions, name string) (*SQLSource, error) {
	src, err := NewSQLSource(db, opts.Table, opts.Parse)
	if err != nil {
		db.Close()
		return nil, err
	}
	src.name = name
	src.closeAfterLoad = true
	return src, nil
}

func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "postgres://<invalid>"
	}
	return u.Redacted()
}

// HTTPSource fetches a CSV document over HTTP(S).
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Options ParseOptions
}

func (s *HTTPSource) Load(ctx context.Context) (*Table, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", s.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("fetch %s: unexpected status %s", s.URL, resp.Status)
	}

	table, err := Parse(ctx, resp.Body, s.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", s.URL)
	}
	return table, nil
}

func (s *HTTPSource) String() string {
	return s.URL
}

// FileSource reads a CSV document from the local filesystem.
type FileSource struct {
	Path    string
	Options ParseOptions
}

func (s *FileSource) Load(ctx context.Context) (*Table, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	defer file.Close()

	table, err := Parse(ctx, file, s.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", s.Path)
	}
	return table, nil
}

func (s *FileSource) String() string {
	return "file://" + s.Path
}
