package middlewares

import (
	"net/http"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/guard"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
)

// RequireAuth redirects to the login page unless the stored token is
// present, decodable and unexpired. Nothing is recorded in the store.
func RequireAuth(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		cred, err := c.Credentials().Load(c)
		if err != nil {
			return err
		}
		if guard.CheckSession(cred.Token, c.Now()) != guard.Allow {
			return c.Redirect(http.StatusSeeOther, urls.Login)
		}
		return next(c)
	}
}

// RequireRole lets through the roles listed. Anyone else gets a 403 in the
// error slice and is sent to the error page. The role is read from the auth
// slice, so this runs after the store is hydrated.
func RequireRole(allowed ...model.Role) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			st, err := c.Store()
			if err != nil {
				return err
			}
			role := st.Snapshot().Auth.Role
			decision, payload := guard.CheckRole(role, allowed, c.Request().URL.Path, c.Now())
			if decision != guard.Allow {
				st.Dispatch(state.ErrorSet(*payload))
				return c.Redirect(http.StatusSeeOther, urls.Error)
			}
			return next(c)
		}
	}
}

// ErrorWatcher sends the browser to the error page whenever the error slice
// holds an escalated failure: before the handler, and again after it when
// the handler left the response unwritten.
func ErrorWatcher(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		st, err := c.Store()
		if err != nil {
			return err
		}
		if st.Snapshot().HasError() {
			return c.Redirect(http.StatusSeeOther, urls.Error)
		}
		if err := next(c); err != nil {
			return err
		}
		if !c.Written() && st.Snapshot().HasError() {
			return c.Redirect(http.StatusSeeOther, urls.Error)
		}
		return nil
	}
}

// ClearError empties the error slice before next runs. Placed ahead of
// ErrorWatcher on actions that start over, such as a new login attempt.
func ClearError(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		st, err := c.Store()
		if err != nil {
			return err
		}
		st.Dispatch(state.ErrorClear())
		return next(c)
	}
}
