package logger

import (
	"io"
	"os"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Noashop/test-pago-sub003/internal/conf"
)

// NewLogger 按配置创建 kratos logger，output 为 file 时写入滚动文件
func NewLogger(c *conf.Log) log.Logger {
	if c == nil {
		c = &conf.Log{Level: "info", Output: "stdout"}
	}
	return log.NewFilter(log.NewStdLogger(writer(c)), log.FilterLevel(ParseLevel(c.Level)))
}

// WithService 追加通用字段
func WithService(l log.Logger, id, name, version string) log.Logger {
	return log.With(l,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", name,
		"service.version", version,
	)
}

// ParseLevel 未知级别按 info 处理
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	case "fatal":
		return log.LevelFatal
	default:
		return log.LevelInfo
	}
}

func writer(c *conf.Log) io.Writer {
	switch c.Output {
	case "file":
		if c.FilePath == "" {
			return os.Stdout
		}
		return &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.MaxSize,
			MaxAge:     c.MaxAge,
			MaxBackups: c.MaxBackups,
			Compress:   c.Compress,
		}
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}
