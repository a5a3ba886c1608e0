// Package guard holds the navigation decisions taken before a protected page
// renders. They are pure: callers pass the credential, role and clock.
package guard

import (
	"slices"
	"time"

	"github.com/medilabo/webapp/internal/credential"
	"github.com/medilabo/webapp/internal/model"
)

// Decision is the outcome of a guard.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectError
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectError:
		return "redirect-error"
	default:
		return "unknown"
	}
}

// CheckSession allows a present, decodable token whose expiry is not in the
// past. A token without an expiry is allowed.
func CheckSession(token string, now time.Time) Decision {
	if token == "" {
		return RedirectLogin
	}

	claims, err := credential.Decode(token)
	if err != nil {
		return RedirectLogin
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(now) {
		return RedirectLogin
	}
	return Allow
}

// CheckRole allows role when it is in allowed. On refusal it returns the
// payload to record in the error slice.
func CheckRole(role model.Role, allowed []model.Role, path string, now time.Time) (Decision, *model.APIError) {
	if slices.Contains(allowed, role) {
		return Allow, nil
	}
	payload := model.Forbidden(path, now)
	return RedirectError, &payload
}
