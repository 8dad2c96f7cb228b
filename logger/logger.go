package logger

import (
	"github.com/rs/zerolog"
	"io"
	"newsfeed/conf"
	"os"
	"strings"
	"time"
)

// New 根据配置创建日志，输出到标准错误
func New(c conf.LogConf) zerolog.Logger {
	return NewWithWriter(c, os.Stderr)
}

// NewWithWriter 根据配置创建日志，format 为 console 时输出可读格式，否则输出 JSON
func NewWithWriter(c conf.LogConf, w io.Writer) zerolog.Logger {
	if strings.EqualFold(c.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Component 为组件派生子日志
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
