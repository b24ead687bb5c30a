package redis

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// internalLogger 把 go-redis 的内部日志（连接池重连等）转发到全局日志。
type internalLogger struct{}

func (internalLogger) Printf(_ context.Context, format string, v ...interface{}) {
	logger.Warnw("redis internal", "message", fmt.Sprintf(format, v...))
}

func init() {
	goredis.SetLogger(internalLogger{})
}
