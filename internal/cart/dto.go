package cart

// LineItemDTO is the API shape of a cart line. Money is rendered with two decimals.
type LineItemDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
	Image     string `json:"image,omitempty"`
	LineTotal string `json:"line_total"`
}

// TotalsDTO renders Totals rounded to cents.
type TotalsDTO struct {
	Subtotal       string `json:"subtotal"`
	Tax            string `json:"tax"`
	Shipping       string `json:"shipping"`
	DiscountAmount string `json:"discount_amount"`
	Total          string `json:"total"`
}

// CartDTO is the API shape of a session cart.
type CartDTO struct {
	Items         []LineItemDTO `json:"items"`
	Discount      int           `json:"discount"`
	CouponCode    string        `json:"coupon_code,omitempty"`
	CouponApplied bool          `json:"coupon_applied"`
	Totals        TotalsDTO     `json:"totals"`
}

// NewTotalsDTO formats totals for transport.
func NewTotalsDTO(t Totals) TotalsDTO {
	return TotalsDTO{
		Subtotal:       t.Subtotal.StringFixed(2),
		Tax:            t.Tax.StringFixed(2),
		Shipping:       t.Shipping.StringFixed(2),
		DiscountAmount: t.DiscountAmount.StringFixed(2),
		Total:          t.Total.StringFixed(2),
	}
}

// NewCartDTO formats a cart and its totals for transport.
func NewCartDTO(c *Cart) CartDTO {
	items := make([]LineItemDTO, 0, len(c.Items))
	for _, li := range c.Items {
		items = append(items, LineItemDTO{
			ID:        li.ID,
			Name:      li.Name,
			Price:     li.Price.StringFixed(2),
			Quantity:  li.Quantity,
			Variant:   li.Variant,
			Image:     li.Image,
			LineTotal: li.LineTotal().StringFixed(2),
		})
	}
	return CartDTO{
		Items:         items,
		Discount:      c.Discount,
		CouponCode:    c.CouponCode,
		CouponApplied: c.CouponApplied(),
		Totals:        NewTotalsDTO(c.Totals()),
	}
}
