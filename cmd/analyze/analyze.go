package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"github.com/stwalsh4118/donations/api/internal/analytics"
	"github.com/stwalsh4118/donations/api/internal/config"
	"github.com/stwalsh4118/donations/api/internal/format"
	"github.com/stwalsh4118/donations/api/internal/logger"
	"github.com/stwalsh4118/donations/api/internal/models"
	"github.com/stwalsh4118/donations/api/internal/report"
	"github.com/stwalsh4118/donations/api/internal/services"
	"github.com/stwalsh4118/donations/api/internal/source"
	"github.com/stwalsh4118/donations/api/internal/store"
)

// View selectors besides the named views.
const (
	viewAll      = "all"
	viewCombined = "combined"
	viewYears    = "years"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var errNothingLoaded = errors.New("no dataset could be loaded")

type options struct {
	dir         string
	baseURL     string
	years       []int
	view        string
	output      string
	flaggedFile string
	joinKey     string
	limit       int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze published donation disclosure datasets",
		Long: "Reads <dir>/<year>.json (or <base-url>/<year>.json) for every year of the window, " +
			"aggregates entities across years and prints the analytical views.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, stdout, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "", "directory holding <year>.json files (default SOURCE_DIR)")
	f.StringVar(&opts.baseURL, "base-url", "", "base URL serving <year>.json files, overrides --dir")
	f.IntSliceVar(&opts.years, "years", nil, "contiguous years to analyze (default YEARS)")
	f.StringVar(&opts.view, "view", viewAll, "all, combined, years or one of the view names")
	f.StringVarP(&opts.output, "output", "o", outputTable, "output format: table or json")
	f.StringVar(&opts.flaggedFile, "flagged-file", "", "YAML or JSON file of flagged tax ids")
	f.StringVar(&opts.joinKey, "join-key", "", "entity join key: name, tax_id or normalized_name")
	f.IntVar(&opts.limit, "limit", 0, "keep only the first n rows of each view")

	return cmd
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.output != outputTable && opts.output != outputJSON {
		return fmt.Errorf("unknown output %q, want %s or %s", opts.output, outputTable, outputJSON)
	}
	if !isKnownView(opts.view) {
		return fmt.Errorf("%w: %q", analytics.ErrUnknownView, opts.view)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cfg, opts)
	if err := cfg.Analytics.Validate(); err != nil {
		return err
	}

	log := logger.NewWithWriter(stderr, cfg.Server.Env).WithComponent("analyze")

	params, err := cfg.Analytics.Params()
	if err != nil {
		return err
	}
	analyzer, err := analytics.New(params)
	if err != nil {
		return err
	}

	src, err := source.New(cfg.Source)
	if err != nil {
		return err
	}

	records := store.NewRecordStore()
	datasets := services.NewDatasetService(services.DatasetServiceOptions{
		Source: src,
		Store:  records,
		Years:  cfg.Analytics.Years,
		Logger: log,
	})

	statuses, err := datasets.LoadAll(ctx, false)
	if err != nil {
		log.Warn("Some years could not be loaded", map[string]interface{}{
			"source": src.Describe(),
			"error":  err.Error(),
		})
	}
	if len(records.Years()) == 0 {
		return fmt.Errorf("%w from %s", errNothingLoaded, src.Describe())
	}
	for _, st := range statuses {
		if st.Status != models.StatusLoaded {
			log.Warn("Year skipped", map[string]interface{}{"year": int(st.Year)})
		}
	}

	svc := services.NewAnalyticsService(analyzer, records, nil, log)
	p := &printer{svc: svc, out: stdout, years: analyzer.Years(), loaded: records.Years(), limit: opts.limit, numbers: format.Hungarian()}

	if opts.output == outputJSON {
		return p.json(opts.view)
	}
	return p.table(opts.view)
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.dir != "" {
		cfg.Source.Dir = opts.dir
		cfg.Source.BaseURL = ""
	}
	if opts.baseURL != "" {
		cfg.Source.BaseURL = opts.baseURL
	}
	if len(opts.years) > 0 {
		years := make([]models.Year, 0, len(opts.years))
		for _, y := range opts.years {
			years = append(years, models.Year(y))
		}
		slices.Sort(years)
		cfg.Analytics.Years = slices.Compact(years)
	}
	if opts.flaggedFile != "" {
		cfg.Analytics.FlaggedTaxIDsFile = opts.flaggedFile
	}
	if opts.joinKey != "" {
		cfg.Analytics.JoinKey = opts.joinKey
	}
}

func isKnownView(name string) bool {
	switch name {
	case viewAll, viewCombined, viewYears:
		return true
	}
	return slices.Contains(analytics.ViewNames, name)
}

type printer struct {
	svc     services.AnalyticsService
	out     io.Writer
	years   []models.Year
	loaded  []models.Year
	limit   int
	numbers *format.Formatter
}

func (p *printer) json(view string) error {
	var v any
	switch view {
	case viewAll:
		results := make([]*services.ViewResult, 0, len(analytics.ViewNames))
		for _, name := range analytics.ViewNames {
			r, err := p.svc.View(name, p.limit)
			if err != nil {
				return err
			}
			results = append(results, r)
		}
		v = results
	case viewCombined:
		r, err := p.svc.Combined()
		if err != nil {
			return err
		}
		v = r
	case viewYears:
		reports, err := p.yearReports()
		if err != nil {
			return err
		}
		v = reports
	default:
		r, err := p.svc.View(view, p.limit)
		if err != nil {
			return err
		}
		v = r
	}

	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) table(view string) error {
	switch view {
	case viewAll:
		for i, name := range analytics.ViewNames {
			if i > 0 {
				fmt.Fprintln(p.out)
			}
			if err := p.viewTable(name); err != nil {
				return err
			}
		}
		return nil
	case viewCombined:
		r, err := p.svc.Combined()
		if err != nil {
			return err
		}
		return p.render(report.CombinedTable(r))
	case viewYears:
		reports, err := p.yearReports()
		if err != nil {
			return err
		}
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(p.out)
			}
			if err := p.render(report.YearTable(r.Summary.Year, r.Rows)); err != nil {
				return err
			}
		}
		return nil
	default:
		return p.viewTable(view)
	}
}

func (p *printer) viewTable(name string) error {
	r, err := p.svc.View(name, p.limit)
	if err != nil {
		return err
	}
	t, err := report.ViewTable(name, r.Rows, p.years)
	if err != nil {
		return err
	}
	return p.render(t)
}

func (p *printer) render(t *report.Table) error {
	if p.limit > 0 && len(t.Rows) > p.limit {
		t.Rows = t.Rows[:p.limit]
	}
	return t.Render(p.out, p.numbers)
}

func (p *printer) yearReports() ([]*services.YearReport, error) {
	reports := make([]*services.YearReport, 0, len(p.loaded))
	for _, y := range p.loaded {
		r, err := p.svc.YearSummary(y)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
