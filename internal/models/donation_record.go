package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Year is a calendar year of a disclosure dataset.
type Year int

// RawRecord is one company's disclosed donation total for a single year,
// exactly as published. JSON keys follow the published dataset files.
// Several records in the same year may share a Name; they are parts of the
// same company and are summed during aggregation.
type RawRecord struct {
	Index      string  `json:"i,omitempty"`
	Name       string  `json:"n"`
	TaxID      string  `json:"a,omitempty"`
	Address    string  `json:"c,omitempty"`
	Amount     float64 `json:"o"`
	DonorCount int     `json:"f"`
}

// rawRecordWire accepts any JSON shape for each field so that a single bad
// cell never rejects a whole dataset.
type rawRecordWire struct {
	Index      json.RawMessage `json:"i"`
	Name       json.RawMessage `json:"n"`
	TaxID      json.RawMessage `json:"a"`
	Address    json.RawMessage `json:"c"`
	Amount     json.RawMessage `json:"o"`
	DonorCount json.RawMessage `json:"f"`
}

// UnmarshalJSON decodes a record leniently. Missing, null, non-numeric or
// negative amounts and donor counts become zero; numeric tax ids and indexes
// are kept as their decimal text.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var wire rawRecordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*r = RawRecord{
		Index:      lenientString(wire.Index),
		Name:       strings.TrimSpace(lenientString(wire.Name)),
		TaxID:      strings.TrimSpace(lenientString(wire.TaxID)),
		Address:    strings.TrimSpace(lenientString(wire.Address)),
		Amount:     lenientAmount(wire.Amount),
		DonorCount: lenientCount(wire.DonorCount),
	}
	return nil
}

// lenientString returns the text of a JSON string or number, or "" for
// anything else.
func lenientString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// lenientAmount parses a JSON number or numeric string into a non-negative
// finite float. Everything else is zero.
func lenientAmount(raw json.RawMessage) float64 {
	text := lenientString(raw)
	if text == "" {
		return 0
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), " ", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// lenientCount is lenientAmount truncated to a whole number of donors and
// clamped to math.MaxInt32, so an oversized count stays the largest in its
// year instead of vanishing or overflowing.
func lenientCount(raw json.RawMessage) int {
	v := lenientAmount(raw)
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}
