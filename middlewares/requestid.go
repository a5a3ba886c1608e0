package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/pkg/logger"
)

type requestIDKey struct{}

// DefaultRequestIDHeaders are checked in order for an upstream id.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

const requestIDResponseHeader = "X-Request-ID"

// RequestID reuses an upstream request id or generates a UUID, stores it in
// the request context and echoes it in the response.
func RequestID(headers ...string) internal.Middleware {
	if len(headers) == 0 {
		headers = DefaultRequestIDHeaders
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			var id string
			for _, h := range headers {
				if v := c.Header(h); v != "" {
					id = v
					break
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			c.Set(requestIDKey{}, id)
			c.SetHeader(requestIDResponseHeader, id)
			return next(c)
		}
	}
}

// GetRequestID returns the request id, or "" outside RequestID.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// RequestIDExtractor adds request_id to every log record.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := GetRequestID(ctx); v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
