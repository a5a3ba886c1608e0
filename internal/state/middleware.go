package state

import (
	"log/slog"

	"github.com/medilabo/webapp/internal/metrics"
)

// ErrorInterceptor copies every escalating rejection into the error slice
// before the rejection itself is committed. Validation failures (400) and
// payloads without a status stay local to their slice.
func ErrorInterceptor(api Dispatcher, next DispatchFunc) DispatchFunc {
	return func(a Action) {
		if f, ok := a.(Failure); ok {
			if err := f.Failure(); err != nil && err.Escalates() {
				api.Dispatch(ErrorSet(*err))
			}
		}
		next(a)
	}
}

// Logger logs every action at debug level.
func Logger(log *slog.Logger) Middleware {
	return func(_ Dispatcher, next DispatchFunc) DispatchFunc {
		return func(a Action) {
			attrs := []any{slog.String("action", a.Type())}
			if f, ok := a.(Failure); ok {
				if err := f.Failure(); err != nil {
					attrs = append(attrs, slog.Int("status", err.Status), slog.String("error", err.Message))
				}
			}
			log.Debug("dispatch", attrs...)
			next(a)
		}
	}
}

// Instrument counts dispatched actions by type.
func Instrument(m *metrics.Metrics) Middleware {
	return func(_ Dispatcher, next DispatchFunc) DispatchFunc {
		return func(a Action) {
			m.CountDispatch(a.Type())
			next(a)
		}
	}
}
