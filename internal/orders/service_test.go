package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []OrderEvent
	err    error
}

func (r *recordingPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestGetSessionOrderHidesOtherSessions(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	svc, err := NewService(repo, nil, nil)
	require.NoError(t, err)
	order := seedOrder(t, repo, "sess-owner", "pat@example.com", time.Now().UTC())
	ctx := context.Background()

	dto, err := svc.GetSessionOrder(ctx, "sess-owner", order.ID)
	require.NoError(t, err)
	assert.Equal(t, "64.00", dto.Total)
	assert.Len(t, dto.Lines, 2)

	_, err = svc.GetSessionOrder(ctx, "sess-other", order.ID)
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.GetOrder(ctx, uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.GetOrder(ctx, uuid.Nil)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateStatusPublishesEvent(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	pub := &recordingPublisher{err: errors.New("pubsub down")}
	svc, err := NewService(repo, pub, nil)
	require.NoError(t, err)
	order := seedOrder(t, repo, "sess-1", "pat@example.com", time.Now().UTC())
	ctx := context.Background()

	dto, err := svc.UpdateStatus(ctx, order.ID, enums.OrderStatusFulfilled)
	require.NoError(t, err, "publish failures must not fail the transition")
	assert.Equal(t, enums.OrderStatusFulfilled, dto.Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, EventOrderFulfilled, pub.events[0].Type)
	assert.Equal(t, order.ID, pub.events[0].OrderID)

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusCanceled)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPlaced)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestListOrdersValidatesFilters(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t).DB()), nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	bogus := enums.OrderStatus("lost")
	_, err = svc.ListOrders(ctx, pagination.Params{}, OrderFilters{Status: &bogus})
	assertCode(t, err, pkgerrors.CodeValidation)

	list, err := svc.ListOrders(ctx, pagination.Params{}, OrderFilters{})
	require.NoError(t, err)
	assert.Empty(t, list.Orders)
}

type fakeTopic struct {
	topic string
	data  []byte
	attrs map[string]string
}

func (f *fakeTopic) Publish(_ context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	f.topic, f.data, f.attrs = topic, data, attrs
	return "msg-1", nil
}

func (f *fakeTopic) OrdersTopic() string { return "orders" }

func TestPubSubPublisherEncodesEvent(t *testing.T) {
	topic := &fakeTopic{}
	orderID := uuid.New()
	err := NewPubSubPublisher(topic).PublishOrderEvent(context.Background(), OrderEvent{
		Type:    EventOrderPlaced,
		OrderID: orderID,
		Status:  enums.OrderStatusPlaced,
		Total:   "54.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "orders", topic.topic)
	assert.Equal(t, EventOrderPlaced, topic.attrs["event_type"])
	assert.Equal(t, orderID.String(), topic.attrs["order_id"])
	assert.NotEmpty(t, topic.attrs["event_id"])
	assert.Contains(t, string(topic.data), `"total":"54.00"`)
}
