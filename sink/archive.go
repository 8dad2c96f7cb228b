package sink

import (
	"context"
	"database/sql"
	_ "modernc.org/sqlite"
	"time"
)

// Archive 把新闻追加到 sqlite 表 news_items
type Archive struct {
	db *sql.DB
}

var _ Deliverer = (*Archive)(nil)

// OpenArchive 打开（或创建）sqlite 归档
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) Close() error { return a.db.Close() }

func (a *Archive) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS news_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			news TEXT NOT NULL,
			seq INTEGER NOT NULL,
			item TEXT NOT NULL,
			created_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_news_items_news_id ON news_items(news, id);`,
	}
	for _, stmt := range stmts {
		if _, err := a.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) Name() string {
	return "archive"
}

func (a *Archive) Deliver(ctx context.Context, d Delivery) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO news_items (news, seq, item, created_at) VALUES (?, ?, ?, ?)`,
		d.News, d.Seq, d.Item, d.At.UTC().Format(time.RFC3339Nano))
	return err
}

// Items 按写入顺序返回某个主体的归档新闻
// seq 在每次进程启动后从 1 重新开始，多次运行写入同一个文件时只有自增 id 能反映写入顺序
func (a *Archive) Items(ctx context.Context, news string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT item FROM news_items WHERE news = ? ORDER BY id`, news)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
