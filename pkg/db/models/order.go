package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the persisted snapshot of a cart at checkout. Amounts are copied
// from the cart totals, including a discount that may predate later cart edits.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CartSessionID   string                `gorm:"column:cart_session_id;not null"`
	Email           string                `gorm:"column:email;not null"`
	FullName        string                `gorm:"column:full_name;not null"`
	ShippingAddress types.ShippingAddress `gorm:"column:shipping_address;type:text;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'placed'"`
	CouponCode      *string               `gorm:"column:coupon_code"`
	DiscountPercent int                   `gorm:"column:discount_percent;not null;default:0"`
	Subtotal        decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,4);not null"`
	Tax             decimal.Decimal       `gorm:"column:tax;type:numeric(12,4);not null"`
	Shipping        decimal.Decimal       `gorm:"column:shipping;type:numeric(12,4);not null"`
	DiscountAmount  decimal.Decimal       `gorm:"column:discount_amount;type:numeric(12,4);not null"`
	Total           decimal.Decimal       `gorm:"column:total;type:numeric(12,4);not null"`
	Lines           []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
