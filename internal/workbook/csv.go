package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ferredist/catalog-service/internal/types"
)

// Delimiter is a CSV field separator.
type Delimiter rune

const (
	DelimiterComma     Delimiter = ','
	DelimiterSemicolon Delimiter = ';'
	DelimiterTab       Delimiter = '\t'
)

// DetectDelimiter picks the separator whose per-line counts are highest
// and most consistent across the first few non-empty lines. Supplier
// exports from Spanish-locale Excel use semicolons, everything else
// commas.
func DetectDelimiter(content string) Delimiter {
	sample := make([]string, 0, 5)
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			sample = append(sample, trimmed)
			if len(sample) >= 5 {
				break
			}
		}
	}
	if len(sample) == 0 {
		return DelimiterComma
	}

	best := DelimiterComma
	bestScore := 0.0
	for _, delim := range []Delimiter{DelimiterComma, DelimiterSemicolon, DelimiterTab} {
		sum := 0
		minCount := -1
		for _, line := range sample {
			c := strings.Count(line, string(delim))
			sum += c
			if minCount < 0 || c < minCount {
				minCount = c
			}
		}
		// A delimiter present on every sampled line beats a sporadic one
		// with a higher raw count
		if sum == 0 || minCount == 0 {
			continue
		}
		score := float64(minCount)
		if score > bestScore {
			bestScore = score
			best = delim
		}
	}
	return best
}

// ExtractCSVFile reads a CSV price list from disk and extracts its rows
// through the same layout column table used for workbooks.
func (e *Extractor) ExtractCSVFile(path string) (*types.ExtractResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return e.ExtractCSV(content)
}

// ExtractCSV decodes and extracts CSV content. Encoding and delimiter are
// detected from the content itself.
func (e *Extractor) ExtractCSV(content []byte) (*types.ExtractResult, error) {
	enc := DetectEncoding(content)
	decoded, err := DecodeText(content, enc)
	if err != nil {
		return nil, fmt.Errorf("decode csv content as %s: %w", enc, err)
	}

	delim := DetectDelimiter(decoded)
	log.Debug().
		Str("encoding", string(enc)).
		Str("delimiter", fmt.Sprintf("%q", rune(delim))).
		Msg("Detected CSV format")

	reader := csv.NewReader(strings.NewReader(decoded))
	reader.Comma = rune(delim)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &types.ExtractResult{
		Rows: make([]types.SpreadsheetRow, 0, 256),
	}

	rowNum := 0
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			e.addError(result, types.RowError{
				RowNumber: rowNum,
				Message:   fmt.Sprintf("read row: %v", err),
			})
			continue
		}
		if rowNum < e.layout.StartRow {
			continue
		}
		e.extractRow(result, rowNum, cells)
	}

	return result, nil
}
