package format

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func TestNumber(t *testing.T) {
	f := Hungarian()

	out := f.Number(1234567)
	assert.Equal(t, "1234567", digits(out))
	assert.Greater(t, len([]rune(out)), 7, "large numbers are grouped")

	assert.Equal(t, "0", f.Number(0))
	assert.Equal(t, "12", digits(f.Number(1.2)))
}

func TestInteger(t *testing.T) {
	f := Hungarian()

	assert.Equal(t, "42", f.Integer(42))
	assert.Equal(t, "1000000", digits(f.Integer(1_000_000)))
}

func TestSignedNumber(t *testing.T) {
	f := Hungarian()

	assert.True(t, strings.HasPrefix(f.SignedNumber(50), "+"))
	assert.False(t, strings.HasPrefix(f.SignedNumber(0), "+"))
	assert.True(t, strings.HasPrefix(f.SignedNumber(-50), "-"))
}

func TestPercentChange(t *testing.T) {
	f := Hungarian()

	tests := []struct {
		in   float64
		want string
	}{
		{1.0, "+100.0%"},
		{0, "0.0%"},
		{-0.5, "-50.0%"},
		{0.1234, "+12.3%"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, f.PercentChange(tt.in))
		})
	}
}

func TestCell(t *testing.T) {
	f := Hungarian()

	assert.Equal(t, "Acme", f.Cell(Text, "Acme"))
	assert.Equal(t, "3", f.Cell(Count, 3))
	assert.Equal(t, "+100.0%", f.Cell(Percent, 1.0))
	assert.True(t, strings.HasPrefix(f.Cell(Delta, 100.0), "+"))
	assert.Equal(t, "1500", digits(f.Cell(Amount, 1500.0)))
	assert.Equal(t, "true", f.Cell(Text, true))
}
