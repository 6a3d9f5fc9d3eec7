package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// RequestIDHeader is honoured on inbound requests and echoed on responses.
const RequestIDHeader = "X-Request-Id"

type ctxKey string

const requestIDKey ctxKey = "request_id"

// Setup configures the global zerolog logger for a service.
func Setup(service, level string) zerolog.Logger {
	return SetupWriter(os.Stdout, service, level)
}

// SetupWriter is Setup with an explicit sink.
func SetupWriter(w io.Writer, service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(lvl)

	zlog.Logger = zerolog.New(w).With().Timestamp().Str("service", service).Logger()
	zerolog.DefaultContextLogger = &zlog.Logger
	return zlog.Logger
}

// WithRequestID returns a context carrying a request id and a child logger tagged with it.
func WithRequestID(ctx context.Context, rid string) context.Context {
	logger := zlog.With().Str("request_id", rid).Logger()
	ctx = context.WithValue(ctx, requestIDKey, rid)
	return logger.WithContext(ctx)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Middleware tags each request with an id and logs its completion.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx := WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, rid)

		start := time.Now()
		c.Next()

		zerolog.Ctx(ctx).Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}
