// Package source fetches the published yearly donation datasets, either from
// a web server or from a local directory of <year>.json files.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stwalsh4118/donations/api/internal/config"
	"github.com/stwalsh4118/donations/api/internal/models"
)

// ErrNotFound means the source has no dataset for the requested year.
var ErrNotFound = errors.New("dataset not found")

// maxDatasetBytes caps a single downloaded dataset.
const maxDatasetBytes = 256 << 20

// Source returns the raw records of one year.
type Source interface {
	Fetch(ctx context.Context, year models.Year) ([]models.RawRecord, error)

	// Describe names the location records are fetched from, for logs.
	Describe() string
}

// New builds the source described by cfg. A base URL wins over a directory.
func New(cfg config.SourceConfig) (Source, error) {
	switch {
	case cfg.BaseURL != "":
		return NewHTTPSource(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}), nil
	case cfg.Dir != "":
		return NewDirSource(cfg.Dir), nil
	default:
		return nil, errors.New("no dataset source configured")
	}
}

func fileName(year models.Year) string {
	return strconv.Itoa(int(year)) + ".json"
}

// HTTPSource downloads <base>/<year>.json.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates an HTTPSource. A nil client gets a 30 second timeout.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{baseURL: baseURL, client: client}
}

func (s *HTTPSource) Describe() string { return s.baseURL }

// Fetch downloads and decodes one year. 404 maps to ErrNotFound and any
// other non-200 status is an error.
func (s *HTTPSource) Fetch(ctx context.Context, year models.Year) ([]models.RawRecord, error) {
	url := s.baseURL + "/" + fileName(year)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	records, err := models.DecodeDataset(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return records, nil
}

// DirSource reads <dir>/<year>.json from the local filesystem.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Describe() string { return s.dir }

func (s *DirSource) Fetch(ctx context.Context, year models.Year) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, fileName(year))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := models.DecodeDataset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
