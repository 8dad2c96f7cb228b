package api

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"newsfeed/conf"
	"newsfeed/metrics"
	"newsfeed/observer"
	"newsfeed/sink"
	"strings"
	"testing"
	"time"
)

func httpConf() conf.HTTPConf {
	return conf.HTTPConf{Addr: "127.0.0.1:0", RateLimit: 100, Burst: 100}
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/news", strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublishAndList(t *testing.T) {
	news := observer.NewNews(0, "myNews")
	require.NoError(t, news.Subscribe(observer.NewNewsObserver(0, "firstNewsObserver", io.Discard)))
	h := New(news, httpConf()).Handler()

	assert.Equal(t, http.StatusAccepted, post(t, h, `{"item":"Noticia 1"}`).Code)
	assert.Equal(t, http.StatusAccepted, post(t, h, `{"item":" Noticia 2 "}`).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/news", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view NewsView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "myNews", view.Name)
	assert.Equal(t, "item_added", view.Event)
	assert.Equal(t, 1, view.Subscribers)
	assert.Equal(t, []string{"Noticia 1", "Noticia 2"}, view.Items)
}

func TestPublishRejectsBadInput(t *testing.T) {
	news := observer.NewNews(0, "myNews")
	h := New(news, httpConf()).Handler()

	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"item":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `not json`).Code)
	assert.Equal(t, 0, news.Len())
	assert.Equal(t, observer.NoEvent, news.EventType())
}

func TestPublishRateLimited(t *testing.T) {
	c := metrics.NewCollector()
	cfg := conf.HTTPConf{RateLimit: 0.001, Burst: 1}
	h := New(observer.NewNews(0, "myNews"), cfg, WithMetrics(c)).Handler()

	assert.Equal(t, http.StatusAccepted, post(t, h, `{"item":"a"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, h, `{"item":"b"}`).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "newsfeed_http_rate_limited_total 1")
}

func TestPublishWhiteList(t *testing.T) {
	cfg := httpConf()
	cfg.AllowPublish = []string{"10.0.0.1"}
	h := New(observer.NewNews(0, "myNews"), cfg).Handler()

	assert.Equal(t, http.StatusForbidden, post(t, h, `{"item":"a"}`).Code)
}

func TestWebsocketStream(t *testing.T) {
	news := observer.NewNews(0, "myNews")
	hub := sink.NewHub(zerolog.Nop())
	require.NoError(t, news.Subscribe(sink.NewRelay(news, hub)))
	srv := httptest.NewServer(New(news, httpConf(), WithHub(hub)).Handler())
	defer srv.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/news", "application/json", bytes.NewBufferString(`{"item":"Noticia 1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var d sink.Delivery
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, "Noticia 1", d.Item)
	assert.Equal(t, 1, d.Seq)
}

// TestH2C 明文 HTTP/2 客户端可以直接访问
func TestH2C(t *testing.T) {
	news := observer.NewNews(0, "myNews")
	srv := httptest.NewServer(New(news, httpConf()).Handler())
	defer srv.Close()

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLS: func(network, addr string, _ *tls.Config) (net.Conn, error) {
			return net.Dial(network, addr)
		},
	}}
	resp, err := client.Get(srv.URL + "/news")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, resp.ProtoMajor)
}
