package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Product is a sellable catalog entry. Variants list the free-form options
// (size, colour) a shopper can pick when adding the product to a cart.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null;default:''"`
	Category    enums.ProductCategory `gorm:"column:category;not null"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Image       string                `gorm:"column:image;not null;default:''"`
	Variants    pq.StringArray        `gorm:"column:variants;type:text;not null"`
	IsActive    bool                  `gorm:"column:is_active;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeSave stores a missing variant list as an empty array literal.
func (p *Product) BeforeSave(*gorm.DB) error {
	if p.Variants == nil {
		p.Variants = pq.StringArray{}
	}
	return nil
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasVariant reports whether the product offers the given variant. Products
// without variants accept only the empty variant.
func (p Product) HasVariant(variant string) bool {
	if len(p.Variants) == 0 {
		return variant == ""
	}
	for _, v := range p.Variants {
		if v == variant {
			return true
		}
	}
	return false
}
