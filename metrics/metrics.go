package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const namespace = "newsfeed"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector 新闻主体与各 sink 的指标，使用独立的 Registry
type Collector struct {
	registry *prometheus.Registry

	itemsPublished *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	listenerPanics *prometheus.CounterVec
	subscribers    *prometheus.GaugeVec
	deliveries     *prometheus.CounterVec
	rateLimited    prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		itemsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_published_total",
			Help:      "number of news items appended to a subject",
		}, []string{"news"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "number of observer updates that returned normally",
		}, []string{"news"}),
		listenerPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_panics_total",
			Help:      "number of observer updates that panicked",
		}, []string{"news"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "current number of subscribed observers",
		}, []string{"news"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "deliveries_total",
			Help:      "number of items handed to a sink, by outcome",
		}, []string{"sink", "outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "number of publish requests rejected by the rate limiter",
		}),
	}
	c.registry.MustRegister(
		c.itemsPublished,
		c.notifications,
		c.listenerPanics,
		c.subscribers,
		c.deliveries,
		c.rateLimited,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *Collector) ItemPublished(news string) {
	c.itemsPublished.WithLabelValues(news).Inc()
}

func (c *Collector) Notified(news string, observers int) {
	c.notifications.WithLabelValues(news).Add(float64(observers))
}

func (c *Collector) ListenerPanicked(news string) {
	c.listenerPanics.WithLabelValues(news).Inc()
}

func (c *Collector) Subscribers(news string, n int) {
	c.subscribers.WithLabelValues(news).Set(float64(n))
}

// Delivered 记录一次 sink 投递结果
func (c *Collector) Delivered(sink string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.deliveries.WithLabelValues(sink, outcome).Inc()
}

func (c *Collector) RateLimited() {
	c.rateLimited.Inc()
}

// Handler 暴露 /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
