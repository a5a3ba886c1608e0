package internal

import (
	"context"

	"github.com/medilabo/webapp/internal/credential"
	"github.com/medilabo/webapp/internal/model"
)

const (
	sessionTokenKey = "token"
	sessionRoleKey  = "role"
)

// sessionCredentials keeps the credential in the session record, which
// survives across requests and process restarts when the store is Redis.
type sessionCredentials struct {
	c *requestContext
}

var _ credential.Storage = (*sessionCredentials)(nil)

func (s *sessionCredentials) Load(context.Context) (model.Credential, error) {
	sess, err := s.c.Session()
	if err != nil {
		return model.Credential{}, err
	}
	s.c.rs.mu.Lock()
	defer s.c.rs.mu.Unlock()
	token, _ := sess.Get(sessionTokenKey)
	role, _ := sess.Get(sessionRoleKey)
	return model.Credential{Token: token, Role: model.Role(role)}, nil
}

func (s *sessionCredentials) Save(_ context.Context, cred model.Credential) error {
	sess, err := s.c.Session()
	if err != nil {
		return err
	}
	s.c.rs.mu.Lock()
	defer s.c.rs.mu.Unlock()
	sess.Set(sessionTokenKey, cred.Token)
	sess.Set(sessionRoleKey, string(cred.Role))
	return nil
}

func (s *sessionCredentials) Clear(context.Context) error {
	sess, err := s.c.Session()
	if err != nil {
		return err
	}
	s.c.rs.mu.Lock()
	defer s.c.rs.mu.Unlock()
	sess.Delete(sessionTokenKey)
	sess.Delete(sessionRoleKey)
	return nil
}
