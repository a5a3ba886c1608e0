// Package credential stores the session token and role outside the state
// tree and decodes the token claims the guards rely on.
package credential

import (
	"context"
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medilabo/webapp/internal/model"
)

var (
	ErrMalformedToken = errors.New("credential: malformed token")
	ErrMissingRole    = errors.New("credential: token carries no role")
)

// Storage persists the credential of one browser session.
type Storage interface {
	Load(ctx context.Context) (model.Credential, error)
	Save(ctx context.Context, c model.Credential) error
	Clear(ctx context.Context) error
}

// Claims are the fields user-ms puts in its tokens.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode reads the claims of token without verifying its signature. The
// backends verify it on every request.
func Decode(token string) (Claims, error) {
	var claims Claims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, errors.Join(ErrMalformedToken, err)
	}
	return claims, nil
}

// FromToken builds the credential stored after a successful login.
func FromToken(token string) (model.Credential, error) {
	claims, err := Decode(token)
	if err != nil {
		return model.Credential{}, err
	}
	if claims.Role == "" {
		return model.Credential{}, ErrMissingRole
	}
	return model.Credential{Token: token, Role: claims.Role}, nil
}

// Memory is a Storage holding a single credential in memory.
type Memory struct {
	mu   sync.Mutex
	cred model.Credential
}

// NewMemory returns a Memory storage seeded with c.
func NewMemory(c model.Credential) *Memory {
	return &Memory{cred: c}
}

func (m *Memory) Load(context.Context) (model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, nil
}

func (m *Memory) Save(_ context.Context, c model.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = c
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = model.Credential{}
	return nil
}
