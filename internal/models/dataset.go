package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// YearDataset is the published file for one year: {"adatok": [...]}.
type YearDataset struct {
	Records []RawRecord `json:"adatok"`
}

// DecodeDataset reads one year's dataset. Both the wrapped object form and a
// bare JSON array of records are accepted. A missing record list decodes to an
// empty, non-nil slice.
func DecodeDataset(r io.Reader) ([]RawRecord, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	if body[0] == '[' {
		var records []RawRecord
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("failed to parse dataset records: %w", err)
		}
		return nonNil(records), nil
	}

	var ds YearDataset
	if err := json.Unmarshal(body, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return nonNil(ds.Records), nil
}

func nonNil(records []RawRecord) []RawRecord {
	if records == nil {
		return []RawRecord{}
	}
	return records
}
