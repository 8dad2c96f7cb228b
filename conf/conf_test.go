package conf

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "myNews", cfg.News.Name)
	assert.Equal(t, []string{"firstNewsObserver", "secondNewsObserver"}, cfg.News.Observers)
	assert.Equal(t, 2, cfg.HTTP.Burst)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsfeed.yaml")
	data := `
news:
  id: 7
  name: daily
log:
  level: debug
  format: json
http:
  addr: ":9000"
  rate_limit: 5
  burst: 10
webhook:
  url: http://127.0.0.1:9999/hook
  timeout: 2s
zookeeper:
  hosts: ["127.0.0.1:2181"]
  path: /news_conf
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.News.ID)
	assert.Equal(t, "daily", cfg.News.Name)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.HTTP.Burst)
	assert.Equal(t, 2*time.Second, cfg.Webhook.Timeout)
	// 未出现在文件中的字段保持默认值
	assert.Equal(t, 1000, cfg.Webhook.Breaker.Timeout)
	assert.Equal(t, "news", cfg.Redis.Channel)
	assert.Equal(t, "/news_conf", cfg.Zookeeper.Path)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("news:\n  name: \"\"\nzookeeper:\n  path: /x\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "news.name is required")
	assert.Contains(t, err.Error(), "zookeeper.hosts")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
