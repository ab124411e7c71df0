package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ferredist/catalog-service/internal/types"
)

func TestComputeHashDeterministic(t *testing.T) {
	a := map[string]*Entry{
		"22090": {Code: "22090", Description: "TALADRO", BsPriceWeb: 668.16},
		"10511": {Code: "10511", Description: "MARTILLO", BsPriceWeb: 54},
	}
	b := map[string]*Entry{
		"10511": {Code: "10511", Description: "MARTILLO", BsPriceWeb: 54},
		"22090": {Code: "22090", Description: "TALADRO", BsPriceWeb: 668.16},
	}

	assert.Equal(t, ComputeHash(a), ComputeHash(b))
}

func TestComputeHashIgnoresUpdatedAt(t *testing.T) {
	a := map[string]*Entry{"22090": {Code: "22090", BsPriceWeb: 668.16, UpdatedAt: time.Now()}}
	b := map[string]*Entry{"22090": {Code: "22090", BsPriceWeb: 668.16, UpdatedAt: time.Now().Add(time.Hour)}}

	assert.Equal(t, ComputeHash(a), ComputeHash(b))
}

func TestComputeHashSensitivity(t *testing.T) {
	base := func() map[string]*Entry {
		return map[string]*Entry{"22090": {Code: "22090", BsPriceWeb: 668.16}}
	}
	baseline := ComputeHash(base())

	priced := base()
	priced["22090"].BsPriceWeb = 668.17
	assert.NotEqual(t, baseline, ComputeHash(priced))

	curated := base()
	curated["22090"].Hidden = true
	assert.NotEqual(t, baseline, ComputeHash(curated))

	// Absent USD price and zero USD price are different catalogs
	withZero := base()
	withZero["22090"].USDPriceUnit = types.Float64Ptr(0)
	assert.NotEqual(t, baseline, ComputeHash(withZero))
}

func TestNormalizeSearchText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"TALADRO INALÁMBRICO", "taladro inalambrico"},
		{"Niño  pequeño", "nino pequeno"},
		{"  ya   normalizado ", "ya normalizado"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeSearchText(tt.input))
	}
}

func TestMatchesQuery(t *testing.T) {
	e := &Entry{Code: "22090", Description: "TALADRO INALÁMBRICO 1/2", Brand: "TRUPER"}

	assert.True(t, e.MatchesQuery(NormalizeSearchText("taladro")))
	assert.True(t, e.MatchesQuery(NormalizeSearchText("INALAMBRICO")))
	assert.True(t, e.MatchesQuery(NormalizeSearchText("truper taladro")))
	assert.True(t, e.MatchesQuery(NormalizeSearchText("22090")))
	assert.False(t, e.MatchesQuery(NormalizeSearchText("martillo")))
	assert.True(t, e.MatchesQuery(""))
}

func TestApplyCurated(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	e := &Entry{Code: "22090", SaleLabel: types.StringPtr("VIEJO")}

	e.ApplyCurated(CuratedUpdate{
		SaleLabel: types.StringPtr("OFERTA"),
		HasPromo:  boolPtr(true),
		BoxQty:    types.IntPtr(12),
	}, now)

	assert.Equal(t, "OFERTA", *e.SaleLabel)
	assert.True(t, e.HasPromo)
	assert.Equal(t, 12, *e.BoxQty)
	assert.Equal(t, now, e.UpdatedAt)

	// Empty string clears, nil leaves alone
	e.ApplyCurated(CuratedUpdate{SaleLabel: types.StringPtr("")}, now)
	assert.Nil(t, e.SaleLabel)
	assert.True(t, e.HasPromo)
}

func boolPtr(b bool) *bool { return &b }
