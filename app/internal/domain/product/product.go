package product

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields is the set of product attributes the cart works with.
var Fields = []string{"id", "title", "price", "image"}

type Product struct {
	ID    int64
	Title string
	Price float64
	Image string
	// Extra holds any other attributes the catalog returned, so they survive
	// a trip through storage. Treat it as read-only; clones share it.
	Extra map[string]json.RawMessage
}

type productJSON struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(productJSON{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image})
	if err != nil {
		return nil, err
	}
	return AppendFields(b, p.Extra)
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var v productJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	extra, err := ExtraFields(b, Fields...)
	if err != nil {
		return err
	}
	*p = Product{ID: v.ID, Title: v.Title, Price: v.Price, Image: v.Image, Extra: extra}
	return nil
}

// ExtraFields returns the members of the JSON object b not named in known,
// or nil when there are none.
func ExtraFields(b []byte, known ...string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// AppendFields adds the extra members, sorted by name, to the end of the
// JSON object b.
func AppendFields(b []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return b, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.Write(bytes.TrimSuffix(bytes.TrimSpace(b), []byte("}")))
	for _, k := range keys {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Stock is the remote-authoritative quantity available for a product.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int64 `json:"amount"`
}

func (p Product) PriceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(p.Price)
}

// FormatPrice renders an amount as Brazilian real, e.g. "R$ 1.234,56".
func FormatPrice(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + frac
}
