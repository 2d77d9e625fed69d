package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
)

const (
	msgEmptyCoupon     = "Please enter a coupon code"
	msgInvalidCoupon   = "Invalid coupon code"
	msgCouponRepeated  = "coupon already applied"
	msgInvalidQuantity = "quantity must be between 1 and 10"
)

type productLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponRecorder interface {
	IncCoupon(result string)
}

// AddItemInput identifies the product line a shopper wants to add.
type AddItemInput struct {
	ProductID uuid.UUID
	Variant   string
	Quantity  int
}

// Service exposes session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (*Cart, error)
	ApplyCoupon(ctx context.Context, sessionID, code string) (*Cart, error)
	Totals(ctx context.Context, sessionID string) (Totals, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store    Store
	products productLoader
	coupons  couponRecorder
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided store and catalog.
func NewService(store Store, products productLoader, coupons couponRecorder, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if coupons == nil {
		coupons = (*metrics.CartMetrics)(nil)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{store: store, products: products, coupons: coupons, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if err := requireSession(sessionID); err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*Cart, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	variant := strings.TrimSpace(input.Variant)

	product, err := s.products.FindActiveByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.HasVariant(variant) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant not offered for product").
			WithDetails(map[string]any{"variant": variant, "available": []string(product.Variants)})
	}

	return s.mutate(ctx, sessionID, func(c *Cart) error {
		err := c.AddItem(LineItem{
			ID:       LineItemID(product.ID.String(), variant),
			Name:     product.Name,
			Price:    product.Price,
			Quantity: input.Quantity,
			Variant:  variant,
			Image:    product.Image,
		})
		switch {
		case errors.Is(err, ErrInvalidQuantity):
			return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidQuantity)
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item")
		}
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.UpdateQuantity(itemID, quantity)
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, sessionID, itemID string) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.RemoveItem(itemID)
		return nil
	})
}

func (s *service) ApplyCoupon(ctx context.Context, sessionID, code string) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		if c.CouponApplied() {
			s.coupons.IncCoupon(metrics.CouponRepeated)
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgCouponRepeated)
		}
		switch err := c.ApplyCoupon(code); {
		case errors.Is(err, ErrEmptyCoupon):
			s.coupons.IncCoupon(metrics.CouponEmpty)
			return pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCoupon)
		case errors.Is(err, ErrInvalidCoupon):
			s.coupons.IncCoupon(metrics.CouponInvalid)
			return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidCoupon)
		case err != nil:
			return err
		}
		s.coupons.IncCoupon(metrics.CouponApplied)
		s.logg.Info(s.logg.WithField(ctx, "coupon_code", c.CouponCode), "coupon applied")
		return nil
	})
}

func (s *service) Totals(ctx context.Context, sessionID string) (Totals, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return Totals{}, err
	}
	return c.Totals(), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := requireSession(sessionID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// mutate loads the cart, applies fn and saves the result. Nothing is saved
// when fn fails.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(*Cart) error) (*Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return c, nil
}

func requireSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return nil
}
