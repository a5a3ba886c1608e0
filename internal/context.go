package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/medilabo/webapp/internal/credential"
	"github.com/medilabo/webapp/internal/operation"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/pkg/cookie"
	"github.com/medilabo/webapp/pkg/logger"
	"github.com/medilabo/webapp/pkg/session"
)

// Context is what handlers and middlewares see of a request.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter

	// Param returns a chi route parameter.
	Param(name string) string
	Query(name string) string
	Form(name string) string
	Header(name string) string
	SetHeader(name, value string)

	// Now is the application clock; guards compare token expiry against it.
	Now() time.Time

	String(code int, s string) error
	NoContent(code int) error
	Redirect(code int, url string) error
	Render(code int, component templ.Component) error
	Written() bool

	Logger() *slog.Logger
	Set(key, value any)
	Get(key any) any

	// Session loads the browser session, creating one on first use.
	Session() (*session.Session, error)
	// RotateSession swaps the session token, keeping its values.
	RotateSession() error
	// Credentials is the durable token/role storage of this session.
	Credentials() credential.Storage
	// Store is the Root Store attached to this session.
	Store() (*state.Store, error)
	// Operations runs backend calls against Store.
	Operations() (*operation.Runner, error)

	Flash() (cookie.Flash, bool)
	SetFlash(f cookie.Flash) error
}

type requestKey struct{}

// requestState is shared by every Context built for one request, however
// many middleware layers wrap it.
type requestState struct {
	app *App
	rw  *ResponseWriter

	mu            sync.Mutex
	session       *session.Session
	sessionLoaded bool
	store         *state.Store

	// sessionID is read by log extractors without taking mu.
	sessionID atomic.Pointer[string]
}

// bindRequest wraps the writer once and attaches the shared state. It is
// the first middleware on the router.
func (a *App) bindRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.now()
		rw := NewResponseWriter(w)
		rs := &requestState{app: a, rw: rw}
		r = r.WithContext(context.WithValue(r.Context(), requestKey{}, rs))

		rw.OnBeforeWrite(func() { rs.flush(r.Context()) })
		next.ServeHTTP(rw, r)

		a.metrics.ObserveHTTP(r.Method, rw.Status(), a.now().Sub(start))
	})
}

func (rs *requestState) flush(ctx context.Context) {
	if rs.app.sessions == nil {
		return
	}
	rs.mu.Lock()
	err := rs.app.sessions.Save(ctx, rs.session)
	rs.mu.Unlock()
	if err != nil {
		rs.app.logger.ErrorContext(ctx, "failed to save session", slog.Any("error", err))
	}
}

// SessionIDExtractor adds session_id to log records once the request has
// loaded its session.
func SessionIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		rs, ok := ctx.Value(requestKey{}).(*requestState)
		if !ok {
			return slog.Attr{}, false
		}
		id := rs.sessionID.Load()
		if id == nil {
			return slog.Attr{}, false
		}
		return slog.String("session_id", *id), true
	}
}

type requestContext struct {
	request *http.Request
	rs      *requestState
}

func newContext(w http.ResponseWriter, r *http.Request, a *App) *requestContext {
	rs, ok := r.Context().Value(requestKey{}).(*requestState)
	if !ok {
		// Handler reached without bindRequest, e.g. chi's NotFound in tests.
		rs = &requestState{app: a, rw: NewResponseWriter(w)}
		r = r.WithContext(context.WithValue(r.Context(), requestKey{}, rs))
	}
	return &requestContext{request: r, rs: rs}
}

func (c *requestContext) Request() *http.Request        { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.rs.rw }

func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.rs.rw.Header().Set(name, value)
}

func (c *requestContext) Now() time.Time {
	return c.rs.app.now()
}

func (c *requestContext) String(code int, s string) error {
	c.rs.rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.rs.rw.WriteHeader(code)
	_, err := c.rs.rw.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.rs.rw.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	http.Redirect(c.rs.rw, c.request, url, code)
	return nil
}

func (c *requestContext) Render(code int, component templ.Component) error {
	c.rs.rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.rs.rw.WriteHeader(code)
	return component.Render(c.request.Context(), c.rs.rw)
}

func (c *requestContext) Written() bool {
	return c.rs.rw.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.rs.app.logger
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Session() (*session.Session, error) {
	sm := c.rs.app.sessions
	if sm == nil {
		return nil, ErrNoSessions
	}

	c.rs.mu.Lock()
	defer c.rs.mu.Unlock()
	if c.rs.sessionLoaded {
		return c.rs.session, nil
	}

	sess, err := sm.Load(c.request.Context(), c.request)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		if sess, err = sm.Create(c.request.Context(), c.rs.rw); err != nil {
			return nil, err
		}
	}
	c.rs.session = sess
	c.rs.sessionLoaded = true
	c.rs.sessionID.Store(&sess.ID)
	return sess, nil
}

func (c *requestContext) RotateSession() error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	c.rs.mu.Lock()
	defer c.rs.mu.Unlock()
	return c.rs.app.sessions.Rotate(c.request.Context(), c.rs.rw, sess)
}

func (c *requestContext) Credentials() credential.Storage {
	return &sessionCredentials{c: c}
}

func (c *requestContext) Store() (*state.Store, error) {
	reg := c.rs.app.states
	if reg == nil {
		return nil, ErrNoStore
	}

	c.rs.mu.Lock()
	st := c.rs.store
	c.rs.mu.Unlock()
	if st != nil {
		return st, nil
	}

	sess, err := c.Session()
	if err != nil {
		return nil, err
	}
	cred, err := c.Credentials().Load(c.request.Context())
	if err != nil {
		return nil, err
	}
	st, err = reg.Acquire(c.request.Context(), sess.ID, cred)
	if err != nil {
		return nil, errors.Join(ErrNoStore, err)
	}

	c.rs.mu.Lock()
	defer c.rs.mu.Unlock()
	if c.rs.store == nil {
		c.rs.store = st
	}
	return c.rs.store, nil
}

func (c *requestContext) Operations() (*operation.Runner, error) {
	if c.rs.app.client == nil {
		return nil, ErrNoBackends
	}
	st, err := c.Store()
	if err != nil {
		return nil, err
	}
	return operation.New(c.rs.app.client, st, c.Credentials(), c.rs.app.logger), nil
}

func (c *requestContext) Flash() (cookie.Flash, bool) {
	if c.rs.app.flash == nil {
		return cookie.Flash{}, false
	}
	return c.rs.app.flash.PopFlash(c.rs.rw, c.request)
}

func (c *requestContext) SetFlash(f cookie.Flash) error {
	if c.rs.app.flash == nil {
		return nil
	}
	return c.rs.app.flash.SetFlash(c.rs.rw, f)
}
