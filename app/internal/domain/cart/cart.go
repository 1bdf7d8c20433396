package cart

import (
	"encoding/json"
	"slices"

	"github.com/shopspring/decimal"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

// StorageKey is where the serialized cart lives in the shopper's storage.
const StorageKey = "@RocketShoes:cart"

type Item struct {
	domproduct.Product
	Amount int64
}

var itemFields = append(slices.Clone(domproduct.Fields), "amount")

type itemJSON struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int64   `json:"amount"`
}

// MarshalJSON writes the product attributes, including extra ones, plus
// the amount: the shape the storefront keeps in storage.
func (i Item) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(itemJSON{
		ID:     i.ID,
		Title:  i.Title,
		Price:  i.Price,
		Image:  i.Image,
		Amount: i.Amount,
	})
	if err != nil {
		return nil, err
	}
	return domproduct.AppendFields(b, i.Extra)
}

func (i *Item) UnmarshalJSON(b []byte) error {
	var v itemJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	extra, err := domproduct.ExtraFields(b, itemFields...)
	if err != nil {
		return err
	}
	*i = Item{
		Product: domproduct.Product{ID: v.ID, Title: v.Title, Price: v.Price, Image: v.Image, Extra: extra},
		Amount:  v.Amount,
	}
	return nil
}

func (i Item) Subtotal() decimal.Decimal {
	return i.PriceDecimal().Mul(decimal.NewFromInt(i.Amount))
}

// Cart is an ordered list of items with at most one entry per product id.
type Cart struct {
	Items []Item
}

func (c Cart) Clone() Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

func (c Cart) Find(productID int64) (Item, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Items[idx], true
	}
	return Item{}, false
}

// Count is the number of distinct products in the cart.
func (c Cart) Count() int {
	return len(c.Items)
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// AddOne inserts p with amount 1, or increments the existing entry, as long
// as available stock exceeds the amount already in the cart.
func (c *Cart) AddOne(p domproduct.Product, available int64) error {
	idx := c.indexOf(p.ID)
	current := int64(0)
	if idx >= 0 {
		current = c.Items[idx].Amount
	}
	if available <= current {
		return domproduct.ErrOutOfStock
	}
	if idx >= 0 {
		c.Items[idx].Amount++
		return nil
	}
	c.Items = append(c.Items, Item{Product: p, Amount: 1})
	return nil
}

func (c *Cart) Remove(productID int64) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return nil
}

func (c *Cart) SetAmount(productID, amount int64) error {
	if amount < 1 {
		return ErrInvalidAmount
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return ErrItemNotFound
	}
	c.Items[idx].Amount = amount
	return nil
}

func (c Cart) indexOf(productID int64) int {
	for i, item := range c.Items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

// Marshal encodes the cart as the JSON array kept in storage.
func (c Cart) Marshal() (string, error) {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshal decodes a stored cart. Entries that would break the cart
// invariants (amount below one, repeated product id) are rejected.
func Unmarshal(raw string) (Cart, error) {
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return Cart{}, err
	}
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Amount < 1 {
			return Cart{}, ErrInvalidAmount
		}
		if _, dup := seen[item.ID]; dup {
			return Cart{}, ErrDuplicateItem
		}
		seen[item.ID] = struct{}{}
	}
	if items == nil {
		items = []Item{}
	}
	return Cart{Items: items}, nil
}
