package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/donations/api/internal/config"
)

const dataset2024 = `{"adatok":[
	{"i":1,"n":"Alpha Kft.","a":"12345678-2-42","c":"1051 Budapest","o":150000,"f":12},
	{"i":2,"n":"Béta Zrt.","o":"90000","f":null}
]}`

func TestHTTPSource_Fetch(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch r.URL.Path {
		case "/data/2024.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(dataset2024))
		case "/data/2023.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/data", server.Client())

	t.Run("decodes records", func(t *testing.T) {
		records, err := src.Fetch(context.Background(), 2024)
		require.NoError(t, err)
		assert.Equal(t, "/data/2024.json", gotPath)
		require.Len(t, records, 2)
		assert.Equal(t, "Alpha Kft.", records[0].Name)
		assert.Equal(t, "1", records[0].Index)
		assert.Equal(t, 90000.0, records[1].Amount)
		assert.Equal(t, 0, records[1].DonorCount)
	})

	t.Run("missing year", func(t *testing.T) {
		_, err := src.Fetch(context.Background(), 2022)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := src.Fetch(context.Background(), 2023)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestHTTPSource_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL, nil).Fetch(context.Background(), 2024)
	assert.Error(t, err)
}

func TestHTTPSource_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSource(server.URL, nil).Fetch(ctx, 2024)
	assert.Error(t, err)
}

func TestDirSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024.json"), []byte(dataset2024), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025.json"), []byte(`[]`), 0o600))

	src := NewDirSource(dir)

	records, err := src.Fetch(context.Background(), 2024)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	empty, err := src.Fetch(context.Background(), 2025)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = src.Fetch(context.Background(), 2023)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SourceConfig
		wantType Source
		wantErr  bool
	}{
		{name: "base url wins", cfg: config.SourceConfig{BaseURL: "https://example.org", Dir: "./data", Timeout: time.Second}, wantType: &HTTPSource{}},
		{name: "directory", cfg: config.SourceConfig{Dir: "./data"}, wantType: &DirSource{}},
		{name: "nothing configured", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, src)
		})
	}
}
