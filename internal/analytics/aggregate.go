package analytics

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/stwalsh4118/donations/api/internal/models"
)

// KeySelector resolves the cross-year identity of a record.
//
// The published data has no reliable company id: names may be spelled
// differently between years, and tax ids are sometimes missing or malformed.
// Name keying merges same-named companies; tax id keying splits a company
// whose id was mistyped. The choice is left to configuration.
type KeySelector func(r models.RawRecord) string

// Join key names accepted by SelectorByName.
const (
	JoinByName           = "name"
	JoinByTaxID          = "tax_id"
	JoinByNormalizedName = "normalized_name"
)

// KeyByName joins records on the display name as published.
func KeyByName(r models.RawRecord) string {
	return r.Name
}

// KeyByTaxID joins records on the digits of the tax id. Records whose tax id
// has no digits fall back to their name so they are not merged together.
func KeyByTaxID(r models.RawRecord) string {
	if id := NormalizeTaxID(r.TaxID); id != "" {
		return "tax:" + id
	}
	return "name:" + r.Name
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// KeyByNormalizedName joins records on the case-folded name with diacritics
// stripped and whitespace collapsed.
func KeyByNormalizedName(r models.RawRecord) string {
	return NormalizeName(r.Name)
}

// NormalizeName lower-cases s, removes combining marks after NFD
// decomposition, and collapses runs of whitespace.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}

	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	return whitespaceRe.ReplaceAllString(b.String(), " ")
}

// SelectorByName maps a configured join key name to its selector.
func SelectorByName(name string) (KeySelector, bool) {
	switch name {
	case "", JoinByName:
		return KeyByName, true
	case JoinByTaxID:
		return KeyByTaxID, true
	case JoinByNormalizedName:
		return KeyByNormalizedName, true
	default:
		return nil, false
	}
}

// Aggregate merges the per-year datasets into entities keyed by key.
//
// Only the given years are read; a year missing from datasets leaves every
// entity's totals for that year at zero. Amounts are summed in input order.
// The only failure is an empty year set.
func Aggregate(datasets map[models.Year][]models.RawRecord, years []models.Year, key KeySelector) (*EntityTable, error) {
	return aggregate(datasets, years, key, nil)
}

func aggregate(
	datasets map[models.Year][]models.RawRecord,
	years []models.Year,
	key KeySelector,
	keep func(models.RawRecord) bool,
) (*EntityTable, error) {
	if len(years) == 0 {
		return nil, ErrNoYears
	}
	if key == nil {
		key = KeyByName
	}

	t := newEntityTable(sortedYears(years))
	for _, y := range t.Years {
		records, ok := datasets[y]
		if !ok {
			continue
		}
		t.Present = append(t.Present, y)

		for _, r := range records {
			if keep != nil && !keep(r) {
				continue
			}
			t.entity(key(r), r).add(y, r)
		}
	}

	return t, nil
}
