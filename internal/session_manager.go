package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medilabo/webapp/pkg/session"
)

const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 86400 // one day, the lifetime of a backend token
)

// SessionManager ties the session cookie to records in a session.Store.
type SessionManager struct {
	store      session.Store
	now        func() time.Time
	cookieName string
	path       string
	maxAge     int
	sameSite   http.SameSite
	secure     bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a SessionManager backed by store.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:      store,
		now:        time.Now,
		cookieName: defaultSessionCookieName,
		maxAge:     defaultSessionMaxAge,
		path:       "/",
		sameSite:   http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionMaxAge sets the lifetime of both the cookie and the record.
func WithSessionMaxAge(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if s := int(d / time.Second); s > 0 {
			sm.maxAge = s
		}
	}
}

func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.secure = secure
	}
}

// Load returns the session named by the request cookie. A missing cookie,
// an unknown token and an expired record all yield nil, nil.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(sm.cookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}
	sess, err := sm.store.Get(ctx, c.Value)
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Create persists a fresh session and writes its cookie.
func (sm *SessionManager) Create(ctx context.Context, w http.ResponseWriter) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	sess := session.New(uuid.NewString(), token, sm.now().Add(time.Duration(sm.maxAge)*time.Second))
	if err := sm.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess.ClearDirty()
	sm.writeCookie(w, sess.Token, sm.maxAge)
	return sess, nil
}

// Rotate gives sess a new token and drops the old record. Called on login so
// a token planted before authentication stops working.
func (sm *SessionManager) Rotate(ctx context.Context, w http.ResponseWriter, sess *session.Session) error {
	old := sess.Token
	token, err := generateToken()
	if err != nil {
		return err
	}
	sess.Token = token
	if err := sm.store.Update(ctx, sess); err != nil {
		sess.Token = old
		return fmt.Errorf("rotate session: %w", err)
	}
	sess.ClearDirty()
	if err := sm.store.Delete(ctx, old); err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	sm.writeCookie(w, sess.Token, sm.maxAge)
	return nil
}

// Save writes sess back when it changed during the request.
func (sm *SessionManager) Save(ctx context.Context, sess *session.Session) error {
	if sess == nil || !sess.IsDirty() {
		return nil
	}
	sess.LastActiveAt = sm.now()
	if err := sm.store.Update(ctx, sess); err != nil {
		return err
	}
	sess.ClearDirty()
	return nil
}

func (sm *SessionManager) writeCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     sm.path,
		MaxAge:   maxAge,
		Secure:   sm.secure,
		HttpOnly: true,
		SameSite: sm.sameSite,
	})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
