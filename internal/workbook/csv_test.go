package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected Encoding
	}{
		{"UTF-8 BOM", []byte{0xEF, 0xBB, 0xBF, 'h', 'o', 'l', 'a'}, EncodingUTF8},
		{"Plain ASCII", []byte("codigo,precio"), EncodingUTF8},
		{"UTF-8 with accents", []byte("TALADRO INALÁMBRICO"), EncodingUTF8},
		{"Windows-1252 accents", []byte{'I', 'N', 'A', 'L', 0xC1, 'M'}, EncodingWindows1252},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectEncoding(tt.content))
		})
	}
}

func TestDecodeTextWindows1252(t *testing.T) {
	// "INALÁMBRICO" with a Latin-1 Á byte
	raw := []byte{'I', 'N', 'A', 'L', 0xC1, 'M', 'B', 'R', 'I', 'C', 'O'}
	decoded, err := DecodeText(raw, EncodingWindows1252)
	require.NoError(t, err)
	assert.Equal(t, "INALÁMBRICO", decoded)
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Delimiter
	}{
		{"Comma", "codigo,descripcion,precio\n22090,TALADRO,100.0", DelimiterComma},
		{"Semicolon", "codigo;descripcion;precio\n22090;TALADRO;100,0", DelimiterSemicolon},
		{"Tab", "codigo\tdescripcion\tprecio\n22090\tTALADRO\t100.0", DelimiterTab},
		{"Empty defaults to comma", "", DelimiterComma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectDelimiter(tt.content))
		})
	}
}

func TestExtractCSV(t *testing.T) {
	content := []byte("codigo;descripcion;marca;usd;bs\n" +
		"22090;TALADRO 1/2;TRUPER;100,0;556,80\n" +
		"PR-10511;MARTILLO UNA;PRETUL;12,5;\n" +
		"SIN-CODIGO;BASURA;;;\n")

	ext := NewExtractor(mustLayout(t, "generic-csv"), 50)
	result, err := ext.ExtractCSV(content)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, "22090", result.Rows[0].Code)
	require.NotNil(t, result.Rows[0].USDPrice)
	assert.InDelta(t, 100.0, *result.Rows[0].USDPrice, 0.001)
	require.NotNil(t, result.Rows[0].BsPrice)
	assert.InDelta(t, 556.80, *result.Rows[0].BsPrice, 0.001)

	assert.Equal(t, "10511", result.Rows[1].Code)
	assert.Nil(t, result.Rows[1].BsPrice)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "code", *result.Errors[0].Field)
}

func TestLayoutRegistry(t *testing.T) {
	for _, name := range LayoutNames() {
		l, err := GetLayout(name)
		require.NoError(t, err)
		assert.NoError(t, l.Validate(), "layout %s", name)
	}

	assert.True(t, IsValidLayout("truper-v1"))
	assert.False(t, IsValidLayout("no-such-template"))

	_, err := GetLayout("no-such-template")
	assert.Error(t, err)
}

func TestLayoutValidate(t *testing.T) {
	l := &Layout{Name: "x", PriceSheet: "S", StartRow: 1, CodeCol: 1}
	assert.Error(t, l.Validate(), "a price column is required")

	l.USDPriceCol = 2
	assert.NoError(t, l.Validate())

	l.OrderSheet = "PEDIDO"
	assert.Error(t, l.Validate(), "discount cell must accompany order sheet")
}
