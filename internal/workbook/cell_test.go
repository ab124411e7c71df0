package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"Plain integer", "100", 100, true},
		{"Plain decimal", "19.90", 19.90, true},
		{"European decimal comma", "19,90", 19.90, true},
		{"Thousands with decimal comma", "1.234,56", 1234.56, true},
		{"Thousands with decimal point", "1,234.56", 1234.56, true},
		{"Currency marker Bs", "Bs 556.80", 556.80, true},
		{"Currency marker dollar", "$12.50", 12.50, true},
		{"Percent suffix", "20%", 20, true},
		{"Leading and trailing spaces", "  42.5  ", 42.5, true},
		{"Negative", "-3.5", -3.5, true},
		{"Empty", "", 0, false},
		{"Dash placeholder", "-", 0, false},
		{"Text", "N/A", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 0.0001)
			}
		})
	}
}

func TestParseDiscount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"Fraction", "0.20", 0.20, true},
		{"Percent number", "20", 0.20, true},
		{"Percent suffix", "20%", 0.20, true},
		{"Decimal comma percent", "12,5", 0.125, true},
		{"One is full percent point", "1", 0.01, true},
		{"Zero allowed", "0", 0, true},
		{"Upper bound", "95", 0.95, true},
		{"Above cap rejected", "96", 0, false},
		{"Negative rejected", "-0.1", 0, false},
		{"Garbage rejected", "descuento", 0, false},
		{"Empty rejected", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDiscount(tt.input, 0.95)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 0.0001)
			}
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		digitsOnly bool
		expected   string
		ok         bool
	}{
		{"Plain digits", "22090", true, "22090", true},
		{"Prefixed code", "PR-22090", true, "22090", true},
		{"Float artifact", "22090.0", true, "22090", true},
		{"Float artifact double zero", "22090.00", true, "22090", true},
		{"Prefixed float artifact", "PR-22090.0", true, "22090", true},
		{"Whitespace", "  22090 ", true, "22090", true},
		{"No digits at all", "SIN-CODIGO", true, "", false},
		{"Empty", "", true, "", false},
		{"Alphanumeric kept verbatim", "AB-123", false, "AB-123", true},
		{"Non-digit fraction preserved", "10.5A", false, "10.5A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeCode(tt.input, tt.digitsOnly)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
