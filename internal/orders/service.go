package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines order reads and admin status changes.
type Service interface {
	GetSessionOrder(ctx context.Context, sessionID string, orderID uuid.UUID) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo      Repository
	publisher EventPublisher
	logg      *logger.Logger
}

// NewService builds the order service. A nil publisher drops events.
func NewService(repo Repository, publisher EventPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, publisher: publisher, logg: logg}, nil
}

// GetSessionOrder returns an order only to the cart session that placed it.
func (s *service) GetSessionOrder(ctx context.Context, sessionID string, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" || order.CartSessionID != sessionID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListOrders(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Orders = append(out.Orders, NewOrderDTO(&rows[i]))
	}
	return out, nil
}

// UpdateStatus applies an admin transition. Only placed orders move, and only
// to fulfilled or canceled.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	var eventType string
	switch status {
	case enums.OrderStatusFulfilled:
		eventType = EventOrderFulfilled
	case enums.OrderStatusCanceled:
		eventType = EventOrderCanceled
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be fulfilled or canceled")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.UpdateOrderStatus(ctx, orderID, enums.OrderStatusPlaced, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting fulfillment").
			WithDetails(map[string]any{"status": order.Status})
	}
	order.Status = status

	event := OrderEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		OrderID:    order.ID,
		Status:     status,
		Email:      order.Email,
		Total:      order.Total.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(ctx, event); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "publish order event failed", err)
	}

	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
