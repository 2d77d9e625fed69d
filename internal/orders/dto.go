package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// OrderFilters describe the inputs supported by the admin order list.
type OrderFilters struct {
	Status        *enums.OrderStatus
	Email         string
	CartSessionID string
}

// OrderLineDTO is one purchased line.
type OrderLineDTO struct {
	LineID    string `json:"line_id"`
	Name      string `json:"name"`
	Variant   string `json:"variant,omitempty"`
	Image     string `json:"image,omitempty"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// OrderDTO renders an order with amounts rounded to cents.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	Status          enums.OrderStatus     `json:"status"`
	Email           string                `json:"email"`
	FullName        string                `json:"full_name"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	Discount        int                   `json:"discount"`
	Subtotal        string                `json:"subtotal"`
	Tax             string                `json:"tax"`
	Shipping        string                `json:"shipping"`
	DiscountAmount  string                `json:"discount_amount"`
	Total           string                `json:"total"`
	Lines           []OrderLineDTO        `json:"lines,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// OrderList wraps paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps a persisted order; lines are included when preloaded.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		Status:          order.Status,
		Email:           order.Email,
		FullName:        order.FullName,
		ShippingAddress: order.ShippingAddress,
		CouponCode:      order.CouponCode,
		Discount:        order.DiscountPercent,
		Subtotal:        order.Subtotal.StringFixed(2),
		Tax:             order.Tax.StringFixed(2),
		Shipping:        order.Shipping.StringFixed(2),
		DiscountAmount:  order.DiscountAmount.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		CreatedAt:       order.CreatedAt,
	}
	if len(order.Lines) > 0 {
		dto.Lines = make([]OrderLineDTO, len(order.Lines))
		for i, line := range order.Lines {
			dto.Lines[i] = OrderLineDTO{
				LineID:    line.LineID,
				Name:      line.Name,
				Variant:   line.Variant,
				Image:     line.Image,
				UnitPrice: line.UnitPrice.StringFixed(2),
				Quantity:  line.Qty,
				LineTotal: line.LineTotal.StringFixed(2),
			}
		}
	}
	return dto
}
