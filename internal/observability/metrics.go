package observability

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	ordersCreated    prometheus.Counter
	ordersPaid       prometheus.Counter
	orderRevenue     prometheus.Counter
	checkoutFailures *prometheus.CounterVec
	cartMerges       *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	emailsSent       *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	rateLimited      prometheus.Counter

	pgStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sf_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sf_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "sf_http_inflight_requests",
			Help: "Requests currently being served.",
		}),
		ordersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "sf_orders_created_total",
			Help: "Orders created at checkout.",
		}),
		ordersPaid: f.NewCounter(prometheus.CounterOpts{
			Name: "sf_orders_paid_total",
			Help: "Orders marked paid by the payments webhook.",
		}),
		orderRevenue: f.NewCounter(prometheus.CounterOpts{
			Name: "sf_order_revenue_cents_total",
			Help: "Sum of paid order totals in cents.",
		}),
		checkoutFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sf_checkout_failures_total",
			Help: "Checkout attempts rejected, by reason.",
		}, []string{"reason"}),
		cartMerges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sf_cart_merges_total",
			Help: "Guest cart consolidations, by outcome.",
		}, []string{"outcome"}),
		webhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sf_webhook_events_total",
			Help: "Inbound webhook events, by source, type and outcome.",
		}, []string{"source", "type", "outcome"}),
		emailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sf_emails_total",
			Help: "Transactional emails, by kind and status.",
		}, []string{"kind", "status"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sf_cache_lookups_total",
			Help: "Catalog cache lookups, by result.",
		}, []string{"result"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "sf_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		pgStats: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sf_postgres_stats",
			Help: "Postgres connection pool stats.",
		}, []string{"metric"}),
		redisUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "sf_redis_up",
			Help: "Redis connectivity (1=up, 0=down).",
		}),
		redisPing: f.NewGauge(prometheus.GaugeOpts{
			Name: "sf_redis_ping_seconds",
			Help: "Redis ping latency in seconds.",
		}),
	}
}

// Init returns nil when METRICS_ENABLED is off; every method is nil-safe.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	if log != nil {
		log.Info("Prometheus metrics enabled")
	}
	return New()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) IncOrderCreated() {
	if m != nil {
		m.ordersCreated.Inc()
	}
}

func (m *Metrics) ObserveOrderPaid(totalCents int64) {
	if m == nil {
		return
	}
	m.ordersPaid.Inc()
	if totalCents > 0 {
		m.orderRevenue.Add(float64(totalCents))
	}
}

func (m *Metrics) IncCheckoutFailure(reason string) {
	if m != nil {
		m.checkoutFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncCartMerge(outcome string) {
	if m != nil {
		m.cartMerges.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncWebhook(source, eventType, outcome string) {
	if m != nil {
		m.webhookEvents.WithLabelValues(source, eventType, outcome).Inc()
	}
}

func (m *Metrics) IncEmail(kind, status string) {
	if m != nil {
		m.emailsSent.WithLabelValues(kind, status).Inc()
	}
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) IncRateLimited() {
	if m != nil {
		m.rateLimited.Inc()
	}
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: postgres collector disabled", "error", err)
		}
		return
	}
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				stats := sqlDB.Stats()
				m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.pgStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				start := time.Now()
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				err := rdb.Ping(pingCtx).Err()
				cancel()
				if err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
