// Package cart holds the shopping cart: its persisted line items and the
// totals, shipping and delivery rules derived from them.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold is inclusive: a subtotal equal to it ships free.
	FreeShippingThreshold = decimal.RequireFromString("29.00")
	FlatShippingCost      = decimal.RequireFromString("5.90")
)

// CartItem is one product line as stored for a cart. Price is kept as a JSON
// number so stored carts stay readable by any client.
type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// Product is what the catalog hands over when something is added to a cart.
type Product struct {
	ID    string
	Name  string
	Price float64
	Image string
}

// Cart is an ordered list of items; order is display order only.
type Cart []CartItem

func (it CartItem) lineTotal() decimal.Decimal {
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c {
		sum = sum.Add(it.lineTotal())
	}
	return sum
}

func (c Cart) ShippingCost() decimal.Decimal {
	if c.Subtotal().GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingCost
}

func (c Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.ShippingCost())
}

// FreeShippingRemaining is how much more must be spent to ship for free, never negative.
func (c Cart) FreeShippingRemaining() decimal.Decimal {
	remaining := FreeShippingThreshold.Sub(c.Subtotal())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// ShowFreeShippingHint reports whether the "spend X more" message applies:
// only for a non-empty subtotal still under the threshold.
func (c Cart) ShowFreeShippingHint() bool {
	subtotal := c.Subtotal()
	return subtotal.IsPositive() && subtotal.LessThan(FreeShippingThreshold)
}

// ItemCount is the badge count: the sum of all quantities.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c {
		n += it.Quantity
	}
	return n
}

func (c Cart) indexOf(id string) int {
	for i, it := range c {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Add merges p into the cart: an existing line gains one unit, otherwise a
// new line with quantity 1 is appended. The receiver is left untouched.
func (c Cart) Add(p Product) Cart {
	out := c.clone()
	if i := out.indexOf(p.ID); i >= 0 {
		out[i].Quantity++
		return out
	}
	return append(out, CartItem{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Quantity: 1,
	})
}

// SetQuantity changes the quantity of a line, clamping it to a minimum of 1.
// Unknown ids leave the cart unchanged.
func (c Cart) SetQuantity(id string, quantity int) Cart {
	out := c.clone()
	i := out.indexOf(id)
	if i < 0 {
		return out
	}
	if quantity < 1 {
		quantity = 1
	}
	out[i].Quantity = quantity
	return out
}

// Remove drops a line whatever its quantity.
func (c Cart) Remove(id string) Cart {
	out := make(Cart, 0, len(c))
	for _, it := range c {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// Decode reads a stored cart. Anything that is not a JSON array of items
// yields an empty cart; lines without an id or with a negative price are
// dropped, quantities below 1 are raised to 1 and duplicate ids are merged.
func Decode(data []byte) (Cart, bool) {
	if len(data) == 0 {
		return Cart{}, true
	}

	var raw []CartItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return Cart{}, false
	}

	out := make(Cart, 0, len(raw))
	for _, it := range raw {
		if it.ID == "" || it.Price < 0 {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		if i := out.indexOf(it.ID); i >= 0 {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
	}
	return out, true
}

func (c Cart) Encode() ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	return json.Marshal(c)
}
