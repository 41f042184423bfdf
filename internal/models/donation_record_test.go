package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

// TestRawRecordUnmarshal tests lenient decoding of a single record
func TestRawRecordUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  RawRecord
	}{
		{
			name:  "well formed",
			input: `{"i":"1","n":" Acme Kft. ","o":1500.5,"f":3,"a":"12345678-1-23","c":"Budapest"}`,
			want:  RawRecord{Index: "1", Name: "Acme Kft.", Amount: 1500.5, DonorCount: 3, TaxID: "12345678-1-23", Address: "Budapest"},
		},
		{
			name:  "numeric strings",
			input: `{"n":"Acme","o":"2 000","f":"4"}`,
			want:  RawRecord{Name: "Acme", Amount: 2000, DonorCount: 4},
		},
		{
			name:  "numeric tax id and index",
			input: `{"i":7,"n":"Acme","o":1,"f":1,"a":12345678123}`,
			want:  RawRecord{Index: "7", Name: "Acme", Amount: 1, DonorCount: 1, TaxID: "12345678123"},
		},
		{
			name:  "missing amount and count",
			input: `{"n":"Acme"}`,
			want:  RawRecord{Name: "Acme"},
		},
		{
			name:  "null and garbage",
			input: `{"n":"Acme","o":null,"f":"many","a":null,"c":{"city":"x"}}`,
			want:  RawRecord{Name: "Acme"},
		},
		{
			name:  "negative values",
			input: `{"n":"Acme","o":-10,"f":-2}`,
			want:  RawRecord{Name: "Acme"},
		},
		{
			name:  "fractional count truncates",
			input: `{"n":"Acme","o":5,"f":2.7}`,
			want:  RawRecord{Name: "Acme", Amount: 5, DonorCount: 2},
		},
		{
			name:  "oversized count clamps",
			input: `{"n":"Acme","o":5,"f":1e12}`,
			want:  RawRecord{Name: "Acme", Amount: 5, DonorCount: math.MaxInt32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got RawRecord
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestRawRecordUnmarshalRejectsNonObject verifies a record must be an object
func TestRawRecordUnmarshalRejectsNonObject(t *testing.T) {
	var r RawRecord
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Error("expected error for array input")
	}
}

// TestDecodeDataset tests both published file shapes
func TestDecodeDataset(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLen   int
		wantError bool
	}{
		{name: "wrapped", input: `{"adatok":[{"n":"A","o":1,"f":1},{"n":"B","o":2,"f":1}]}`, wantLen: 2},
		{name: "bare array", input: `[{"n":"A","o":1,"f":1}]`, wantLen: 1},
		{name: "missing list", input: `{}`, wantLen: 0},
		{name: "empty list", input: `{"adatok":[]}`, wantLen: 0},
		{name: "empty body", input: "  ", wantError: true},
		{name: "malformed", input: `{"adatok":[`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeDataset(strings.NewReader(tt.input))

			if tt.wantError {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if records == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(records) != tt.wantLen {
				t.Errorf("got %d records, want %d", len(records), tt.wantLen)
			}
		})
	}
}

// TestLoadStatusTransitions tests the per-year loading state machine
func TestLoadStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to LoadStatus
		want     bool
	}{
		{StatusUnloaded, StatusLoading, true},
		{StatusUnloaded, StatusLoaded, false},
		{StatusLoading, StatusLoaded, true},
		{StatusLoading, StatusError, true},
		{StatusLoading, StatusLoading, false},
		{StatusLoaded, StatusLoading, true},
		{StatusLoaded, StatusError, false},
		{StatusError, StatusLoading, true},
		{StatusError, StatusLoaded, false},
		{StatusLoaded, StatusUnloaded, true},
		{StatusLoading, StatusUnloaded, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition = %v, want %v", got, tt.want)
			}
		})
	}
}
