package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/donations/api/internal/analytics"
)

var testFiles = map[string]string{
	"2023.json": `{"adatok":[
		{"i":"1","n":"Alfa Kft","a":"12345678-2-41","c":"Budapest","o":100000,"f":10},
		{"i":"2","n":"Béta Zrt","c":"Budapest","o":5000,"f":1}]}`,
	"2024.json": `{"adatok":[
		{"i":"1","n":"Alfa Kft","a":"12345678-2-41","c":"Budapest","o":150000,"f":10},
		{"i":"2","n":"Béta Zrt","c":"Budapest","o":6000,"f":1}]}`,
	"2025.json": `{"adatok":[
		{"i":"1","n":"Alfa Kft","a":"12345678-2-41","c":"Budapest","o":200000,"f":10},
		{"i":"2","n":"Béta Zrt","c":"Budapest","o":7000,"f":1}]}`,
}

func writeDatasets(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(testFiles[name]), 0o600))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("YEARS", "2023,2024,2025")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("SOURCE_BASE_URL", "")
	t.Setenv("JOIN_KEY", "")
	t.Setenv("ENV", "test")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	cmd.SetOut(&stderr)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAnalyze_TableAllViews(t *testing.T) {
	dir := writeDatasets(t, "2023.json", "2024.json", "2025.json")

	out, _, err := execute(t, "--dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Top 100")
	assert.Contains(t, out, "Cégnév")
	assert.Contains(t, out, "2025-2024 változás (Ft)")
	assert.Contains(t, out, "Közös székhelyek")
	assert.Contains(t, out, "Alfa Kft")
}

func TestAnalyze_JSONViewWithLimit(t *testing.T) {
	dir := writeDatasets(t, "2023.json", "2024.json", "2025.json")

	out, _, err := execute(t, "--dir", dir, "--view", analytics.ViewTop100, "-o", "json", "--limit", "1")
	require.NoError(t, err)

	var got struct {
		Name  string           `json:"name"`
		Total int              `json:"total"`
		Rows  []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, analytics.ViewTop100, got.Name)
	assert.Equal(t, 2, got.Total)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Alfa Kft", got.Rows[0]["name"])
}

func TestAnalyze_CombinedAndYears(t *testing.T) {
	dir := writeDatasets(t, "2023.json", "2024.json", "2025.json")

	out, _, err := execute(t, "--dir", dir, "--view", "combined")
	require.NoError(t, err)
	assert.Contains(t, out, "Összesített adatok")
	assert.Contains(t, out, "Adószám")

	out, _, err = execute(t, "--dir", dir, "--view", "years", "--years", "2024,2025")
	require.NoError(t, err)
	assert.Contains(t, out, "Sorszám")
	assert.Contains(t, out, "2024")
	assert.Contains(t, out, "2025")
}

func TestAnalyze_MissingYearIsSkipped(t *testing.T) {
	dir := writeDatasets(t, "2023.json", "2024.json")

	out, stderr, err := execute(t, "--dir", dir, "--view", analytics.ViewFlagged)
	require.NoError(t, err)
	assert.Contains(t, out, "Kiemelt adószámok")
	assert.Contains(t, stderr, "Year skipped")
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "nothing loaded", wantErr: errNothingLoaded},
		{name: "unknown view", args: []string{"--view", "bogus"}, wantErr: analytics.ErrUnknownView},
		{name: "unknown output", args: []string{"-o", "xml"}},
		{name: "non-contiguous years", args: []string{"--years", "2023,2025"}},
		{name: "unknown join key", args: []string{"--join-key", "address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := append([]string{"--dir", dir}, tt.args...)

			_, _, err := execute(t, args...)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
