package metrics

import (
	"errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http/httptest"
	"newsfeed/observer"
	"testing"
)

var _ observer.Recorder = (*Collector)(nil)

func TestCollectorCountsSubject(t *testing.T) {
	c := NewCollector()
	news := observer.NewNews(0, "myNews", observer.WithRecorder(c))
	require.NoError(t, news.Subscribe(observer.NewNewsObserver(0, "a", io.Discard)))
	require.NoError(t, news.Subscribe(observer.NewNewsObserver(1, "b", io.Discard)))

	require.NoError(t, news.OnNewsUpdate("Noticia 1"))
	require.NoError(t, news.OnNewsUpdate("Noticia 2"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.itemsPublished.WithLabelValues("myNews")))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.notifications.WithLabelValues("myNews")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.subscribers.WithLabelValues("myNews")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.listenerPanics.WithLabelValues("myNews")))
}

func TestCollectorDeliveries(t *testing.T) {
	c := NewCollector()
	c.Delivered("webhook", nil)
	c.Delivered("webhook", errors.New("down"))
	c.Delivered("webhook", errors.New("down"))
	c.RateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.deliveries.WithLabelValues("webhook", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.deliveries.WithLabelValues("webhook", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.ItemPublished("myNews")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `newsfeed_items_published_total{news="myNews"} 1`)
}
