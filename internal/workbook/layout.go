package workbook

import (
	"fmt"
	"sort"
)

// Layout describes one supplier spreadsheet template: which sheets to read,
// where the data starts and what lives in which column. Layout changes over
// the years (new columns, shifted start rows) become new registry entries
// instead of code forks.
type Layout struct {
	// Name identifies the template in config, the API and the CLI
	Name string `json:"name"`

	// PriceSheet is the sheet holding the item rows
	PriceSheet string `json:"priceSheet"`
	// OrderSheet is the sheet holding the supplier discount header cell.
	// Empty means the template carries no discount cell.
	OrderSheet string `json:"orderSheet,omitempty"`
	// DiscountCell is the A1-style address of the discount cell on the
	// order sheet, e.g. "G6"
	DiscountCell string `json:"discountCell,omitempty"`

	// StartRow is the 1-based first data row on the price sheet
	StartRow int `json:"startRow"`

	// Column indices are 1-based; zero means the template has no such
	// column.
	CodeCol        int `json:"codeCol"`
	DescriptionCol int `json:"descriptionCol,omitempty"`
	BrandCol       int `json:"brandCol,omitempty"`
	CoCol          int `json:"coCol,omitempty"`
	LocationCol    int `json:"locationCol,omitempty"`
	WarehouseCol   int `json:"warehouseCol,omitempty"`
	PackageCol     int `json:"packageCol,omitempty"`
	USDPriceCol    int `json:"usdPriceCol,omitempty"`
	BsPriceCol     int `json:"bsPriceCol,omitempty"`

	// DigitsOnlyCodes enables the digits-only code policy for this
	// template (strips vendor prefixes, rejects non-numeric codes)
	DigitsOnlyCodes bool `json:"digitsOnlyCodes"`

	// BsIncludesDiscount records the template convention for the Bs
	// column: some supplier-calculated files ship it already net of the
	// discount, others ship list prices. The engine cannot tell from the
	// data, so the template must say.
	BsIncludesDiscount bool `json:"bsIncludesDiscount"`

	// CSV marks delimiter-separated templates; sheet names are ignored
	// and the discount can only come from an override or the default.
	CSV bool `json:"csv,omitempty"`
}

// Validate checks that the layout can drive an extraction.
func (l *Layout) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("layout: name is required")
	}
	if !l.CSV && l.PriceSheet == "" {
		return fmt.Errorf("layout %s: price sheet is required", l.Name)
	}
	if l.StartRow < 1 {
		return fmt.Errorf("layout %s: start row must be >= 1", l.Name)
	}
	if l.CodeCol < 1 {
		return fmt.Errorf("layout %s: code column is required", l.Name)
	}
	if l.USDPriceCol == 0 && l.BsPriceCol == 0 {
		return fmt.Errorf("layout %s: at least one price column is required", l.Name)
	}
	if l.OrderSheet != "" && l.DiscountCell == "" {
		return fmt.Errorf("layout %s: order sheet set but discount cell missing", l.Name)
	}
	return nil
}

// builtinLayouts is the template registry. The truper-v1 entry matches the
// current supplier file; truper-legacy covers the older export that starts
// right under the header row and carries extra descriptive columns.
var builtinLayouts = map[string]*Layout{
	"truper-v1": {
		Name:               "truper-v1",
		PriceSheet:         "NUEVA LISTA DE PRECIOS",
		OrderSheet:         "HOJA PEDIDO",
		DiscountCell:       "G6",
		StartRow:           13,
		CodeCol:            3,  // C
		DescriptionCol:     4,  // D
		BrandCol:           5,  // E
		PackageCol:         6,  // F
		USDPriceCol:        8,  // H
		BsPriceCol:         9,  // I
		DigitsOnlyCodes:    true,
		BsIncludesDiscount: true,
	},
	"truper-legacy": {
		Name:               "truper-legacy",
		PriceSheet:         "LISTA DE PRECIOS",
		OrderSheet:         "HOJA PEDIDO",
		DiscountCell:       "G6",
		StartRow:           3,
		CodeCol:            2, // B
		DescriptionCol:     3, // C
		BrandCol:           4, // D
		CoCol:              5, // E
		LocationCol:        6, // F
		WarehouseCol:       7, // G
		PackageCol:         8, // H
		USDPriceCol:        9, // I
		DigitsOnlyCodes:    true,
		BsIncludesDiscount: false,
	},
	"generic-csv": {
		Name:            "generic-csv",
		StartRow:        2,
		CodeCol:         1,
		DescriptionCol:  2,
		BrandCol:        3,
		USDPriceCol:     4,
		BsPriceCol:      5,
		DigitsOnlyCodes: true,
		CSV:             true,
	},
}

// GetLayout returns a registered layout by name.
func GetLayout(name string) (*Layout, error) {
	l, ok := builtinLayouts[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout: %s (valid: %v)", name, LayoutNames())
	}
	return l, nil
}

// LayoutNames returns the registered layout names, sorted.
func LayoutNames() []string {
	names := make([]string, 0, len(builtinLayouts))
	for name := range builtinLayouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidLayout reports whether a layout name is registered.
func IsValidLayout(name string) bool {
	_, ok := builtinLayouts[name]
	return ok
}
