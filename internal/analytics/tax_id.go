package analytics

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// taxIDLength is the digit count of a Hungarian company tax number
// (8-digit core, 1 VAT code digit, 2-digit county code).
const taxIDLength = 11

// NormalizeTaxID keeps only the ASCII digits of id.
func NormalizeTaxID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatTaxID renders an 11-digit tax number as XXXXXXXX-X-XX. Any other
// input is returned unchanged, trimmed.
func FormatTaxID(id string) string {
	digits := NormalizeTaxID(id)
	if len(digits) != taxIDLength {
		return strings.TrimSpace(id)
	}
	return digits[:8] + "-" + digits[8:9] + "-" + digits[9:]
}

// AllowList is a set of normalized tax ids.
type AllowList map[string]struct{}

// NewAllowList builds an allow-list from ids in any punctuation. Ids without
// digits are ignored.
func NewAllowList(ids ...string) AllowList {
	list := make(AllowList, len(ids))
	for _, id := range ids {
		if n := NormalizeTaxID(id); n != "" {
			list[n] = struct{}{}
		}
	}
	return list
}

// Contains reports whether id normalizes to a listed tax id.
func (l AllowList) Contains(id string) bool {
	n := NormalizeTaxID(id)
	if n == "" {
		return false
	}
	_, ok := l[n]
	return ok
}

// Merge returns a new list holding the ids of both lists.
func (l AllowList) Merge(other AllowList) AllowList {
	out := make(AllowList, len(l)+len(other))
	for id := range l {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// allowListFile is the YAML layout of a flagged tax id file:
//
//	flagged_tax_ids:
//	  - "12345678-1-23"
//	  - "87654321223"
type allowListFile struct {
	FlaggedTaxIDs []string `yaml:"flagged_tax_ids"`
}

// LoadAllowListFile reads a YAML allow-list file.
func LoadAllowListFile(path string) (AllowList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allow-list file %s: %w", path, err)
	}

	var file allowListFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list file %s: %w", path, err)
	}

	for i, id := range file.FlaggedTaxIDs {
		if NormalizeTaxID(id) == "" {
			return nil, fmt.Errorf("allow-list entry %d (%q) contains no digits", i, id)
		}
	}

	return NewAllowList(file.FlaggedTaxIDs...), nil
}
