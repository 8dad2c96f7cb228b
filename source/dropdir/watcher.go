package dropdir

import (
	"context"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Publisher 新闻发布方，*observer.News 实现了该接口
type Publisher interface {
	OnNewsUpdate(item string) error
}

// Watcher 监听目录，新文件的内容作为一条新闻发布
// 只处理 exts 中的扩展名，空文件忽略，每个文件只发布一次。
// 写入方应先写临时文件再 rename 到目录中，避免读到一半的内容。
type Watcher struct {
	dir  string
	exts map[string]struct{}
	news Publisher
	log  zerolog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func New(dir string, exts []string, news Publisher, log zerolog.Logger) *Watcher {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return &Watcher{dir: dir, exts: set, news: news, log: log, seen: make(map[string]struct{})}
}

// Start 开始监听，ctx 结束时停止
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 && w.accept(evt.Name) {
					w.publish(evt.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn().Err(err).Msg("watcher error")
			}
		}
	}()
	return nil
}

// Backfill 按文件名顺序发布目录中已有的文件
// 需要监听时应先调用 Start 再 Backfill，两者重叠的文件只发布一次
func (w *Watcher) Backfill() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && w.accept(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.publish(filepath.Join(w.dir, name))
	}
	return nil
}

func (w *Watcher) accept(path string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (w *Watcher) publish(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[path]; ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// Rename 事件中旧路径已经不存在
		w.log.Debug().Err(err).Str("file", path).Msg("skip file")
		return
	}
	item := strings.TrimSpace(string(data))
	if item == "" {
		return
	}
	w.seen[path] = struct{}{}
	if err := w.news.OnNewsUpdate(item); err != nil {
		w.log.Warn().Err(err).Str("file", path).Msg("publish file news")
	}
}
