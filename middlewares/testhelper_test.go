package middlewares_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/credential"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/operation"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/pkg/cookie"
	"github.com/medilabo/webapp/pkg/logger"
	"github.com/medilabo/webapp/pkg/session"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// testContext is a Context without sessions: credentials live in memory and
// the store is handed in directly.
type testContext struct {
	context.Context
	w      *internal.ResponseWriter
	r      *http.Request
	creds  *credential.Memory
	store  *state.Store
	values map[any]any
}

var _ internal.Context = (*testContext)(nil)

func newTestContext(w http.ResponseWriter, r *http.Request, cred model.Credential) *testContext {
	st := state.NewStore(state.Initial(), state.ErrorInterceptor)
	if !cred.IsZero() {
		st.Dispatch(state.Hydrate(cred))
	}
	return &testContext{
		Context: r.Context(),
		w:       internal.NewResponseWriter(w),
		r:       r,
		creds:   credential.NewMemory(cred),
		store:   st,
		values:  make(map[any]any),
	}
}

func (c *testContext) Request() *http.Request          { return c.r }
func (c *testContext) Response() http.ResponseWriter   { return c.w }
func (c *testContext) Param(string) string             { return "" }
func (c *testContext) Query(name string) string        { return c.r.URL.Query().Get(name) }
func (c *testContext) Form(name string) string         { return c.r.FormValue(name) }
func (c *testContext) Header(name string) string       { return c.r.Header.Get(name) }
func (c *testContext) SetHeader(name, value string)    { c.w.Header().Set(name, value) }
func (c *testContext) Now() time.Time                  { return testNow }
func (c *testContext) Written() bool                   { return c.w.Written() }
func (c *testContext) Logger() *slog.Logger            { return logger.Discard() }
func (c *testContext) Credentials() credential.Storage { return c.creds }

func (c *testContext) String(code int, s string) error {
	c.w.WriteHeader(code)
	_, err := c.w.Write([]byte(s))
	return err
}

func (c *testContext) NoContent(code int) error {
	c.w.WriteHeader(code)
	return nil
}

func (c *testContext) Redirect(code int, url string) error {
	http.Redirect(c.w, c.r, url, code)
	return nil
}

func (c *testContext) Render(code int, component templ.Component) error {
	c.w.WriteHeader(code)
	return component.Render(c, c.w)
}

func (c *testContext) Set(key, value any) { c.values[key] = value }

func (c *testContext) Get(key any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.Context.Value(key)
}

func (c *testContext) Value(key any) any { return c.Get(key) }

func (c *testContext) Session() (*session.Session, error) { return nil, internal.ErrNoSessions }
func (c *testContext) RotateSession() error               { return internal.ErrNoSessions }
func (c *testContext) Store() (*state.Store, error)       { return c.store, nil }
func (c *testContext) Operations() (*operation.Runner, error) {
	return nil, internal.ErrNoBackends
}
func (c *testContext) Flash() (cookie.Flash, bool) { return cookie.Flash{}, false }
func (c *testContext) SetFlash(cookie.Flash) error { return nil }

// signToken builds an unverified-decodable token; the key is irrelevant.
func signToken(t *testing.T, role model.Role, exp time.Time) string {
	t.Helper()
	claims := credential.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doc@medilabo.fr",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}
