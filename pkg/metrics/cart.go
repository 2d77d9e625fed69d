package metrics

import "github.com/prometheus/client_golang/prometheus"

// Coupon application results.
const (
	CouponApplied  = "applied"
	CouponInvalid  = "invalid"
	CouponEmpty    = "empty"
	CouponRepeated = "repeated"
)

// CartMetrics records shopper-facing cart and checkout activity.
type CartMetrics struct {
	coupons      *prometheus.CounterVec
	ordersPlaced prometheus.Counter
	orderTotal   prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	coupons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_coupon_applications_total",
		Help: "Coupon application attempts by result.",
	}, []string{"result"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Orders persisted by checkout.",
	})
	orderTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_order_total",
		Help:    "Order totals in currency units.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
	})
	reg.MustRegister(coupons, ordersPlaced, orderTotal)
	return &CartMetrics{
		coupons:      coupons,
		ordersPlaced: ordersPlaced,
		orderTotal:   orderTotal,
	}
}

// IncCoupon counts one coupon attempt.
func (m *CartMetrics) IncCoupon(result string) {
	if m == nil || m.coupons == nil {
		return
	}
	m.coupons.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveOrder counts a placed order and records its total.
func (m *CartMetrics) ObserveOrder(total float64) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderTotal.Observe(total)
}
