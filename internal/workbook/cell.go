package workbook

import (
	"strconv"
	"strings"
	"unicode"
)

// Supplier sheets mix numeric cells, percent strings, comma decimals and
// free text in the same columns, so every coercion here fails soft: the
// second return value reports whether a usable value was found. Callers
// decide what absence means (skip the row, fall back to a default).

// ParseNumber coerces a raw cell value into a float. Strings are trimmed,
// thousands separators removed and a trailing percent sign stripped before
// parsing. European comma decimals ("1.234,56") are handled alongside US
// format ("1,234.56").
func ParseNumber(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}

	// Strip a trailing percent sign ("20 %" and "20%" both appear)
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "%"))

	// Remove currency markers and non-breaking spaces
	cleaned = strings.Map(func(r rune) rune {
		if r == '$' || r == ' ' {
			return -1
		}
		return r
	}, cleaned)
	upper := strings.ToUpper(cleaned)
	for _, marker := range []string{"BS", "USD"} {
		upper = strings.TrimSuffix(strings.TrimPrefix(upper, marker), marker)
	}
	cleaned = strings.TrimSpace(upper)

	if cleaned == "" || !hasDigit(cleaned) {
		return 0, false
	}

	// Decide which separator is decimal: the one that appears last.
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastComma > lastDot {
		// European format: 1.234,56
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if lastDot > lastComma {
		// US format: 1,234.56
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseDiscount coerces a raw cell value into a discount fraction within
// [0, maxDiscount]. Whole-number percentages (20, "20%") are divided by
// 100; anything negative or above the bound is treated as absent so the
// caller falls back to its default. A literal zero is a valid discount.
func ParseDiscount(raw string, maxDiscount float64) (float64, bool) {
	f, ok := ParseNumber(raw)
	if !ok {
		return 0, false
	}
	if f > 1 {
		// Percentage written as a whole number
		f = f / 100
	}
	if f < 0 || f > maxDiscount {
		return 0, false
	}
	return round4(f), true
}

// NormalizeCode turns a raw cell value into a catalog key. Numeric cells
// serialized through spreadsheet tooling pick up a trailing ".0"; vendor
// prefixes like "PR-" are dropped under the digits-only policy so every
// representation of the same code maps to the same key.
func NormalizeCode(raw string, digitsOnly bool) (string, bool) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", false
	}

	// Float serialization artifact: 22090 read back as "22090.0"
	if dot := strings.LastIndex(code, "."); dot > 0 && allZeroes(code[dot+1:]) {
		code = code[:dot]
	}

	if digitsOnly {
		var b strings.Builder
		for _, r := range code {
			if unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		code = b.String()
		if code == "" {
			return "", false
		}
	}

	return code, true
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func allZeroes(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}

func round4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}
