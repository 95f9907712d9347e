package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ctxLogger struct{}

// requestKey holds the request-scoped logger on echo.Context.
const requestKey = "request_logger"

// FromContext returns the logger bound to ctx, or the process logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxLogger{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return GetLogger()
}

func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxLogger{}, l)
}

// FromEcho returns the request logger installed by Bind.
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get(requestKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return FromContext(c.Request().Context())
}

// Bind installs l as the request logger on both c and its request context.
func Bind(c echo.Context, l *zap.Logger) {
	c.Set(requestKey, l)
	req := c.Request()
	c.SetRequest(req.WithContext(WithContext(req.Context(), l)))
}

// Enrich rebinds the request logger with extra fields and returns it.
func Enrich(c echo.Context, fields ...zap.Field) *zap.Logger {
	l := FromEcho(c).With(fields...)
	Bind(c, l)
	return l
}
