package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// nilSentinel marks absent optional fields in the canonical form. An
// absent USD price must hash differently than a zero one.
const nilSentinel = "N"

// ComputeHash returns a deterministic digest of the catalog content,
// served as the ETag for the storefront payload. The digest covers every
// field the payload exposes except UpdatedAt, so re-running an identical
// reconcile leaves clients' caches valid.
func ComputeHash(entries map[string]*Entry) string {
	codes := make([]string, 0, len(entries))
	for code := range entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var buf bytes.Buffer
	for _, code := range codes {
		e := entries[code]
		fmt.Fprintf(&buf, "%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s\n",
			e.Code,
			e.Description,
			e.Brand,
			e.Co,
			e.Location,
			e.Warehouse,
			e.Package,
			floatPtrForm(e.USDPriceUnit),
			floatForm(e.BsPriceProveedor),
			floatForm(e.BsPriceWeb),
			floatForm(e.Margen),
			floatForm(e.ProveedorDescuento),
		)
		fmt.Fprintf(&buf, "c|%s|%s|%t|%s|%s|%s|%t|%t|%s|%s\n",
			strPtrForm(e.SaleLabel),
			intPtrForm(e.BoxQty),
			e.HasPromo,
			strPtrForm(e.PromoLabel),
			floatPtrForm(e.PromoPrice),
			intPtrForm(e.EstrellaScore),
			e.Hidden,
			e.Featured,
			intPtrForm(e.Orden),
			strPtrForm(e.Image),
		)
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

func floatForm(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func floatPtrForm(f *float64) string {
	if f == nil {
		return nilSentinel
	}
	return floatForm(*f)
}

func intPtrForm(i *int) string {
	if i == nil {
		return nilSentinel
	}
	return strconv.Itoa(*i)
}

func strPtrForm(s *string) string {
	if s == nil {
		return nilSentinel
	}
	return *s
}
