package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartSessions interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type orderRecorder interface {
	ObserveOrder(total float64)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, sessionID string, input CheckoutInput) (*orders.OrderDTO, error)
}

// CheckoutInput captures the buyer contact and delivery details.
type CheckoutInput struct {
	Email           string
	FullName        string
	ShippingAddress types.ShippingAddress
}

type service struct {
	tx         txRunner
	carts      cartSessions
	ordersRepo orders.Repository
	publisher  orders.EventPublisher
	recorder   orderRecorder
	logg       *logger.Logger
}

// NewService builds the checkout service. A nil publisher drops order events.
func NewService(
	tx txRunner,
	carts cartSessions,
	ordersRepo orders.Repository,
	publisher orders.EventPublisher,
	recorder orderRecorder,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if publisher == nil {
		publisher = orders.NopPublisher{}
	}
	if recorder == nil {
		recorder = (*metrics.CartMetrics)(nil)
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:         tx,
		carts:      carts,
		ordersRepo: ordersRepo,
		publisher:  publisher,
		recorder:   recorder,
		logg:       logg,
	}, nil
}

// Execute turns the session cart into a placed order. The order snapshot
// carries the cart's totals as computed by the cart engine, stored discount
// included. The cart is cleared and order.placed published after commit;
// neither failure undoes the order.
func (s *service) Execute(ctx context.Context, sessionID string, input CheckoutInput) (*orders.OrderDTO, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := buildOrder(sessionID, input, c)
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range order.Lines {
			order.Lines[i].OrderID = order.ID
		}
		if err := repo.CreateOrderLineItems(ctx, order.Lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line items")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"total":    order.Total.StringFixed(2),
	})
	s.logg.Info(ctx, "order placed")

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(ctx, "clear cart after checkout failed", err)
	}

	total, _ := order.Total.Float64()
	s.recorder.ObserveOrder(total)

	event := orders.OrderEvent{
		EventID:    uuid.New(),
		Type:       orders.EventOrderPlaced,
		OrderID:    order.ID,
		Status:     order.Status,
		Email:      order.Email,
		Total:      order.Total.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logg.Error(ctx, "publish order.placed failed", err)
	}

	dto := orders.NewOrderDTO(order)
	return &dto, nil
}

func buildOrder(sessionID string, input CheckoutInput, c *cart.Cart) *models.Order {
	totals := c.Totals()
	order := &models.Order{
		ID:              uuid.New(),
		CartSessionID:   sessionID,
		Email:           input.Email,
		FullName:        input.FullName,
		ShippingAddress: input.ShippingAddress,
		Status:          enums.OrderStatusPlaced,
		DiscountPercent: c.Discount,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		Shipping:        totals.Shipping,
		DiscountAmount:  totals.DiscountAmount,
		Total:           totals.Total,
		Lines:           make([]models.OrderLineItem, 0, len(c.Items)),
	}
	if c.CouponApplied() {
		code := c.CouponCode
		order.CouponCode = &code
	}
	for i, item := range c.Items {
		order.Lines = append(order.Lines, models.OrderLineItem{
			LineID:    item.ID,
			Name:      item.Name,
			Variant:   item.Variant,
			Image:     item.Image,
			UnitPrice: item.Price,
			Qty:       item.Quantity,
			LineTotal: item.LineTotal(),
			Position:  i,
		})
	}
	return order
}

func normalizeInput(input CheckoutInput) (CheckoutInput, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)
	input.ShippingAddress = input.ShippingAddress.Normalize()

	if err := validate.Var(input.Email, "required,email,max=254"); err != nil {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	if input.FullName == "" {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "full_name is required")
	}
	addr := input.ShippingAddress
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"line1", addr.Line1},
		{"city", addr.City},
		{"state", addr.State},
		{"postal_code", addr.PostalCode},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return input, nil
}
