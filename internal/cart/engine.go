package cart

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 10

	// CouponCode is the only recognised coupon.
	CouponCode      = "SAVE10"
	couponPercent   = 10
	freeShippingMin = 100
	flatShipping    = 10
)

var (
	taxRate          = decimal.RequireFromString("0.08")
	freeShippingOver = decimal.NewFromInt(freeShippingMin)
	shippingFee      = decimal.NewFromInt(flatShipping)

	variantSlugRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// LineItem is one product+variant entry in a cart.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Variant  string          `json:"variant,omitempty"`
	Image    string          `json:"image,omitempty"`
}

// LineTotal is price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItemID derives the identifier shared by every line for the same
// product and variant.
func LineItemID(productID, variant string) string {
	slug := strings.Trim(variantSlugRe.ReplaceAllString(strings.ToLower(variant), "-"), "-")
	if slug == "" {
		return productID
	}
	return productID + "--" + slug
}

// Cart holds a shopping session's line items and coupon state.
//
// DiscountAmount is computed once, when the coupon is applied, and is not
// refreshed by later quantity changes or removals.
type Cart struct {
	Items          []LineItem       `json:"items"`
	Discount       int              `json:"discount,omitempty"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	CouponCode     string           `json:"coupon_code,omitempty"`
}

// Totals is the read-only pricing view of a cart.
type Totals struct {
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	Shipping       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// New returns a cart seeded with the given items, in order.
func New(items ...LineItem) *Cart {
	c := &Cart{Items: make([]LineItem, 0, len(items))}
	c.Items = append(c.Items, items...)
	return c
}

// CouponApplied reports whether a coupon has been accepted for this cart.
func (c *Cart) CouponApplied() bool {
	return c.CouponCode != ""
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Item returns the line with the given id.
func (c *Cart) Item(id string) (LineItem, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// AddItem appends a line or, when a line with the same id exists, adds to its
// quantity up to MaxQuantity.
func (c *Cart) AddItem(item LineItem) error {
	if strings.TrimSpace(item.ID) == "" || item.Price.IsNegative() {
		return ErrInvalidItem
	}
	if !validQuantity(item.Quantity) {
		return ErrInvalidQuantity
	}
	if i := c.indexOf(item.ID); i >= 0 {
		c.Items[i].Quantity = min(c.Items[i].Quantity+item.Quantity, MaxQuantity)
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity sets the quantity of the line with the given id. Quantities
// outside [MinQuantity, MaxQuantity] and unknown ids are ignored.
func (c *Cart) UpdateQuantity(id string, quantity int) {
	if !validQuantity(quantity) {
		return
	}
	if i := c.indexOf(id); i >= 0 {
		c.Items[i].Quantity = quantity
	}
}

// RemoveItem deletes the line with the given id, if present.
func (c *Cart) RemoveItem(id string) {
	if i := c.indexOf(id); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

// ApplyCoupon validates code and, on a match, records a discount of
// couponPercent of the current subtotal. A failed attempt leaves any earlier
// discount in place.
func (c *Cart) ApplyCoupon(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyCoupon
	}
	if !strings.EqualFold(code, CouponCode) {
		return ErrInvalidCoupon
	}
	amount := c.Subtotal().Mul(decimal.NewFromInt(couponPercent)).Shift(-2)
	c.Discount = couponPercent
	c.DiscountAmount = &amount
	c.CouponCode = CouponCode
	return nil
}

// Subtotal is the exact sum of price times quantity over every line.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// Totals prices the cart. Shipping is waived only when the subtotal is
// strictly above the threshold, and the total has no lower bound.
func (c *Cart) Totals() Totals {
	subtotal := c.Subtotal()
	tax := subtotal.Mul(taxRate)

	shipping := shippingFee
	if subtotal.GreaterThan(freeShippingOver) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if c.DiscountAmount != nil {
		discount = *c.DiscountAmount
	}

	return Totals{
		Subtotal:       subtotal,
		Tax:            tax,
		Shipping:       shipping,
		DiscountAmount: discount,
		Total:          subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}

func (c *Cart) indexOf(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func validQuantity(q int) bool {
	return q >= MinQuantity && q <= MaxQuantity
}
