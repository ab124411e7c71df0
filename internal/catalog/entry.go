package catalog

import (
	"time"
)

// Entry is one product in the storefront catalog document. Three groups of
// fields live here with different ownership: pricing fields belong to the
// reconcile engine and are rewritten on every run, metadata fields are
// filled from the supplier sheet but never clobber non-empty values, and
// curated fields belong to the shop operators and are never touched by a
// run.
type Entry struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Co          string `json:"co,omitempty"`
	Location    string `json:"location,omitempty"`
	Warehouse   string `json:"warehouse,omitempty"`
	Package     string `json:"package,omitempty"`

	// Pricing, rewritten wholesale on every reconcile run
	USDPriceUnit       *float64 `json:"usd_price_unit,omitempty"`
	BsPriceProveedor   float64  `json:"bs_price_proveedor"`
	BsPriceWeb         float64  `json:"bs_price_web"`
	Margen             float64  `json:"margen"`
	ProveedorDescuento float64  `json:"proveedor_descuento"`

	// Curated by shop operators
	SaleLabel     *string  `json:"sale_label,omitempty"`
	BoxQty        *int     `json:"box_qty,omitempty"`
	HasPromo      bool     `json:"has_promo,omitempty"`
	PromoLabel    *string  `json:"promo_label,omitempty"`
	PromoPrice    *float64 `json:"promo_price,omitempty"`
	EstrellaScore *int     `json:"estrella_score,omitempty"`
	Hidden        bool     `json:"hidden,omitempty"`
	Featured      bool     `json:"featured,omitempty"`
	Orden         *int     `json:"orden,omitempty"`
	Image         *string  `json:"image,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	c.USDPriceUnit = clonePtr(e.USDPriceUnit)
	c.SaleLabel = clonePtr(e.SaleLabel)
	c.BoxQty = clonePtr(e.BoxQty)
	c.PromoLabel = clonePtr(e.PromoLabel)
	c.PromoPrice = clonePtr(e.PromoPrice)
	c.EstrellaScore = clonePtr(e.EstrellaScore)
	c.Orden = clonePtr(e.Orden)
	c.Image = clonePtr(e.Image)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CuratedUpdate carries an operator edit to an entry's curated fields.
// Nil pointers leave the field unchanged; boolean fields always apply.
type CuratedUpdate struct {
	SaleLabel     *string  `json:"sale_label,omitempty"`
	BoxQty        *int     `json:"box_qty,omitempty"`
	HasPromo      *bool    `json:"has_promo,omitempty"`
	PromoLabel    *string  `json:"promo_label,omitempty"`
	PromoPrice    *float64 `json:"promo_price,omitempty"`
	EstrellaScore *int     `json:"estrella_score,omitempty"`
	Hidden        *bool    `json:"hidden,omitempty"`
	Featured      *bool    `json:"featured,omitempty"`
	Orden         *int     `json:"orden,omitempty"`
	Image         *string  `json:"image,omitempty"`
}

// ApplyCurated folds an operator edit into the entry. An explicit empty
// string clears a text field.
func (e *Entry) ApplyCurated(u CuratedUpdate, now time.Time) {
	if u.SaleLabel != nil {
		e.SaleLabel = emptyToNil(u.SaleLabel)
	}
	if u.BoxQty != nil {
		e.BoxQty = clonePtr(u.BoxQty)
	}
	if u.HasPromo != nil {
		e.HasPromo = *u.HasPromo
	}
	if u.PromoLabel != nil {
		e.PromoLabel = emptyToNil(u.PromoLabel)
	}
	if u.PromoPrice != nil {
		e.PromoPrice = clonePtr(u.PromoPrice)
	}
	if u.EstrellaScore != nil {
		e.EstrellaScore = clonePtr(u.EstrellaScore)
	}
	if u.Hidden != nil {
		e.Hidden = *u.Hidden
	}
	if u.Featured != nil {
		e.Featured = *u.Featured
	}
	if u.Orden != nil {
		e.Orden = clonePtr(u.Orden)
	}
	if u.Image != nil {
		e.Image = emptyToNil(u.Image)
	}
	e.UpdatedAt = now
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
