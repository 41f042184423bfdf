// Package report lays analytics rows out as titled, locale formatted text
// tables with the dashboard's Hungarian column headings.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/stwalsh4118/donations/api/internal/analytics"
	"github.com/stwalsh4118/donations/api/internal/format"
	"github.com/stwalsh4118/donations/api/internal/models"
)

// Column is one table column.
type Column struct {
	Title string
	Kind  format.Kind
}

// Table is a titled grid of tuple values, one value per column.
type Table struct {
	Title   string
	Columns []Column
	Rows    [][]any
}

type tupler interface {
	Tuple() []any
}

func tuples[T tupler](rows []T) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Tuple())
	}
	return out
}

var viewTitles = map[string]string{
	analytics.ViewTopRevenue:  "Magas havi jövedelem/fő",
	analytics.ViewTop100:      "Top 100",
	analytics.ViewLocations:   "Közös székhelyek",
	analytics.ViewFlagged:     "Kiemelt adószámok",
	analytics.ViewSingleDonor: "Egy felajánlós cégek",
	analytics.ViewSmallDonor:  "Kevés felajánlós cégek",
}

func amountCol(y models.Year) Column {
	return Column{Title: fmt.Sprintf("%d összeg (Ft)", y), Kind: format.Amount}
}

func countCol(y models.Year) Column {
	return Column{Title: fmt.Sprintf("%d fő", y), Kind: format.Count}
}

func totalCol(years []models.Year) Column {
	return Column{Title: fmt.Sprintf("%d év összesen (Ft)", len(years)), Kind: format.Amount}
}

var nameCol = Column{Title: "Cégnév", Kind: format.Text}

// entityYearsColumns is name, then amount and count per year.
func entityYearsColumns(years []models.Year) []Column {
	cols := []Column{nameCol}
	for _, y := range years {
		cols = append(cols, amountCol(y), countCol(y))
	}
	return cols
}

// ViewTable lays out the rows returned for a named view.
func ViewTable(name string, rows any, years []models.Year) (*Table, error) {
	if len(years) == 0 {
		return nil, analytics.ErrNoYears
	}
	t := &Table{Title: viewTitles[name]}

	switch r := rows.(type) {
	case []analytics.TopRevenueRow:
		t.Columns = []Column{nameCol}
		for i, y := range years {
			t.Columns = append(t.Columns, amountCol(y), countCol(y))
			if i > 0 {
				t.Columns = append(t.Columns, Column{Title: fmt.Sprintf("%d-%d változás", y, years[i-1]), Kind: format.Percent})
			}
		}
		t.Columns = append(t.Columns,
			Column{Title: fmt.Sprintf("%d havi jöv./fő (Ft)", years[len(years)-1]), Kind: format.Amount},
			Column{Title: "Átl. havi jöv./fő (Ft)", Kind: format.Amount},
			totalCol(years),
		)
		t.Rows = tuples(r)

	case []analytics.TopRow:
		t.Columns = []Column{nameCol}
		for _, y := range years {
			t.Columns = append(t.Columns, amountCol(y))
		}
		for i := 1; i < len(years); i++ {
			t.Columns = append(t.Columns, Column{Title: fmt.Sprintf("%d-%d változás (Ft)", years[i], years[i-1]), Kind: format.Delta})
		}
		t.Columns = append(t.Columns, totalCol(years))
		t.Rows = tuples(r)

	case []analytics.LocationRow:
		t.Columns = []Column{
			{Title: "Székhely", Kind: format.Text},
			{Title: "Cégek száma (db)", Kind: format.Count},
			{Title: "Cégek listája", Kind: format.Text},
			totalCol(years),
		}
		t.Rows = tuples(r)

	case []analytics.EntityYearsRow:
		t.Columns = append(entityYearsColumns(years), totalCol(years))
		t.Rows = tuples(r)

	case []analytics.SingleDonorRow:
		t.Columns = entityYearsColumns(years)
		t.Rows = tuples(r)

	default:
		return nil, fmt.Errorf("%w: %q", analytics.ErrUnknownView, name)
	}
	return t, nil
}

// CombinedTable lays out the cross-year entity table.
func CombinedTable(r *analytics.CombinedReport) *Table {
	return &Table{
		Title: "Összesített adatok",
		Columns: append(entityYearsColumns(r.Years),
			totalCol(r.Years),
			Column{Title: "Átlag/fő", Kind: format.Amount},
			Column{Title: "Éves jövedelem/fő", Kind: format.Amount},
			Column{Title: "Adószám", Kind: format.Text},
			Column{Title: "Cím", Kind: format.Text},
		),
		Rows: tuples(r.Rows),
	}
}

// YearTable lays out one year's record table.
func YearTable(year models.Year, rows []analytics.YearRow) *Table {
	return &Table{
		Title: fmt.Sprintf("%d", year),
		Columns: []Column{
			{Title: "Sorszám", Kind: format.Text},
			{Title: "Név", Kind: format.Text},
			{Title: "Összeg", Kind: format.Amount},
			{Title: "Létszám", Kind: format.Count},
			{Title: "Átlag/fő", Kind: format.Amount},
			{Title: "Éves jövedelem/fő", Kind: format.Amount},
			{Title: "Adószám", Kind: format.Text},
			{Title: "Cím", Kind: format.Text},
		},
		Rows: tuples(rows),
	}
}

// Render writes the table as aligned text. Rows wider than the header are
// an error.
func (t *Table) Render(w io.Writer, f *format.Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if t.Title != "" {
		fmt.Fprintf(tw, "%s\n", t.Title)
	}

	titles := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = c.Title
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))

	cells := make([]string, len(t.Columns))
	for n, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d values for %d columns", n, len(row), len(t.Columns))
		}
		for i, v := range row {
			cells[i] = f.Cell(t.Columns[i].Kind, v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}
