package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/stwalsh4118/donations/api/internal/analytics"
	"github.com/stwalsh4118/donations/api/internal/models"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Storage   StorageConfig
	Source    SourceConfig
	Analytics AnalyticsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	PoolMin  int
	PoolMax  int
}

// URL returns the connection URL with the given scheme, for example
// "postgres" for pgx or "pgx5" for golang-migrate.
func (d DatabaseConfig) URL(scheme string) string {
	return fmt.Sprintf(
		"%s://%s:%s@%s:%s/%s?sslmode=%s",
		scheme,
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// StorageConfig selects where loaded datasets are cached between restarts.
type StorageConfig struct {
	Backend    string
	BadgerPath string
	Enabled    bool
}

// SourceConfig locates the published yearly dataset files. BaseURL wins over
// Dir when both are set.
type SourceConfig struct {
	BaseURL string
	Dir     string
	Timeout time.Duration
}

// AnalyticsConfig holds the analysed year window and every analytics tunable.
type AnalyticsConfig struct {
	Years                      []models.Year
	FlaggedTaxIDs              []string
	FlaggedTaxIDsFile          string
	UnknownLocation            string
	JoinKey                    string
	DisclosureRatio            float64
	HighIncomeMonthlyThreshold float64
	SingleDonorMinAmount       float64
	SmallDonorMinAmount        float64
	LargeAmountThreshold       float64
	TopN                       int
	LocationMinMembers         int
	SmallDonorMaxCount         int
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "donations")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")

	v.SetDefault("STORAGE_BACKEND", BackendMemory)
	v.SetDefault("STORAGE_ENABLED", true)
	v.SetDefault("BADGER_PATH", "./data/cache")

	v.SetDefault("SOURCE_DIR", "./data")
	v.SetDefault("SOURCE_TIMEOUT", "30s")

	v.SetDefault("YEARS", "2023,2024,2025")
	v.SetDefault("DISCLOSURE_RATIO", analytics.DefaultDisclosureRatio)
	v.SetDefault("HIGH_INCOME_MONTHLY_THRESHOLD", analytics.DefaultHighIncomeMonthlyThreshold)
	v.SetDefault("TOP_N", analytics.DefaultTopN)
	v.SetDefault("LOCATION_MIN_MEMBERS", analytics.DefaultLocationMinMembers)
	v.SetDefault("SINGLE_DONOR_MIN_AMOUNT", analytics.DefaultSingleDonorMinAmount)
	v.SetDefault("SMALL_DONOR_MAX_COUNT", analytics.DefaultSmallDonorMaxCount)
	v.SetDefault("SMALL_DONOR_MIN_AMOUNT", analytics.DefaultSmallDonorMinAmount)
	v.SetDefault("LARGE_AMOUNT_THRESHOLD", analytics.DefaultLargeAmountThreshold)
	v.SetDefault("UNKNOWN_LOCATION", analytics.DefaultUnknownLocation)
	v.SetDefault("JOIN_KEY", analytics.JoinByName)

	// Bind environment variables
	v.AutomaticEnv()

	years, err := parseYears(v.GetString("YEARS"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Build configuration
	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseList(v.GetString("CORS_ORIGINS")),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(v.GetString("STORAGE_BACKEND")),
			BadgerPath: v.GetString("BADGER_PATH"),
			Enabled:    v.GetBool("STORAGE_ENABLED"),
		},
		Source: SourceConfig{
			BaseURL: strings.TrimRight(v.GetString("SOURCE_BASE_URL"), "/"),
			Dir:     v.GetString("SOURCE_DIR"),
			Timeout: v.GetDuration("SOURCE_TIMEOUT"),
		},
		Analytics: AnalyticsConfig{
			Years:                      years,
			FlaggedTaxIDs:              parseList(v.GetString("FLAGGED_TAX_IDS")),
			FlaggedTaxIDsFile:          v.GetString("FLAGGED_TAX_IDS_FILE"),
			UnknownLocation:            v.GetString("UNKNOWN_LOCATION"),
			JoinKey:                    v.GetString("JOIN_KEY"),
			DisclosureRatio:            v.GetFloat64("DISCLOSURE_RATIO"),
			HighIncomeMonthlyThreshold: v.GetFloat64("HIGH_INCOME_MONTHLY_THRESHOLD"),
			SingleDonorMinAmount:       v.GetFloat64("SINGLE_DONOR_MIN_AMOUNT"),
			SmallDonorMinAmount:        v.GetFloat64("SMALL_DONOR_MIN_AMOUNT"),
			LargeAmountThreshold:       v.GetFloat64("LARGE_AMOUNT_THRESHOLD"),
			TopN:                       v.GetInt("TOP_N"),
			LocationMinMembers:         v.GetInt("LOCATION_MIN_MEMBERS"),
			SmallDonorMaxCount:         v.GetInt("SMALL_DONOR_MAX_COUNT"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
// Database settings are only checked when the postgres backend is selected.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case BackendBadger:
		if c.Storage.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of %s, %s, %s, got %q",
			BackendMemory, BackendPostgres, BackendBadger, c.Storage.Backend)
	}

	if c.Source.BaseURL == "" && c.Source.Dir == "" {
		return fmt.Errorf("SOURCE_BASE_URL or SOURCE_DIR is required")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return c.Analytics.Validate()
}

// Validate checks the PostgreSQL settings.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// Validate checks the year window and the join key. The numeric tunables are
// checked again by analytics.Params.Validate.
func (a AnalyticsConfig) Validate() error {
	if len(a.Years) == 0 {
		return fmt.Errorf("YEARS is required")
	}
	for i := 1; i < len(a.Years); i++ {
		if a.Years[i] != a.Years[i-1]+1 {
			return fmt.Errorf("YEARS must be unique and contiguous, got %v", a.Years)
		}
	}
	if _, ok := analytics.SelectorByName(a.JoinKey); !ok {
		return fmt.Errorf("JOIN_KEY must be one of %s, %s, %s, got %q",
			analytics.JoinByName, analytics.JoinByTaxID, analytics.JoinByNormalizedName, a.JoinKey)
	}
	return nil
}

// Params builds the analytics parameters, reading the allow-list file when
// one is configured.
func (a AnalyticsConfig) Params() (analytics.Params, error) {
	key, ok := analytics.SelectorByName(a.JoinKey)
	if !ok {
		return analytics.Params{}, fmt.Errorf("unknown join key %q", a.JoinKey)
	}

	flagged := analytics.NewAllowList(a.FlaggedTaxIDs...)
	if a.FlaggedTaxIDsFile != "" {
		fromFile, err := analytics.LoadAllowListFile(a.FlaggedTaxIDsFile)
		if err != nil {
			return analytics.Params{}, err
		}
		flagged = flagged.Merge(fromFile)
	}

	p := analytics.Params{
		Key:                        key,
		FlaggedTaxIDs:              flagged,
		UnknownLocation:            a.UnknownLocation,
		Years:                      slices.Clone(a.Years),
		DisclosureRatio:            a.DisclosureRatio,
		HighIncomeMonthlyThreshold: a.HighIncomeMonthlyThreshold,
		SingleDonorMinAmount:       a.SingleDonorMinAmount,
		SmallDonorMinAmount:        a.SmallDonorMinAmount,
		LargeAmountThreshold:       a.LargeAmountThreshold,
		TopN:                       a.TopN,
		LocationMinMembers:         a.LocationMinMembers,
		SmallDonorMaxCount:         a.SmallDonorMaxCount,
	}
	if err := p.Validate(); err != nil {
		return analytics.Params{}, err
	}
	return p, nil
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// parseYears parses a comma-separated year list and returns it sorted.
func parseYears(s string) ([]models.Year, error) {
	parts := parseList(s)
	years := make([]models.Year, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("YEARS contains invalid year %q", part)
		}
		years = append(years, models.Year(n))
	}
	slices.Sort(years)
	return years, nil
}

// parseList splits a comma-separated string into trimmed, non-empty parts.
func parseList(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
