// Package handlers declares the browser-facing pages. Every page reads the
// session's store after its providers settled, and every form posts back to
// the route that rendered it.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/provider"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
	"github.com/medilabo/webapp/middlewares"
	"github.com/medilabo/webapp/pkg/cookie"
)

// Route patterns carrying the parameters read by the providers.
const (
	patientPath = urls.Patients + "/{" + urls.PatientID + "}"
	notePath    = patientPath + "/notes/{" + urls.NoteID + "}"
	userPath    = urls.Users + "/{" + urls.UserID + "}"
)

// All returns every page handler, ready for internal.WithHandlers.
func All(pages *views.Pages) []internal.Handler {
	return []internal.Handler{
		&Auth{pages: pages},
		&Errors{pages: pages},
		&Profile{pages: pages},
		&Patients{pages: pages},
		&Notes{pages: pages},
		&Users{pages: pages},
	}
}

// area declares routes of the signed-in part of the site. The session guard
// runs first, then the shared providers, the role guard, any extra
// providers, and the error watcher closest to the page.
func area(r internal.Router, roles []model.Role, extra []internal.Middleware, fn func(r internal.Router)) {
	r.Group(func(r internal.Router) {
		r.Use(middlewares.RequireAuth, provider.ConnectedUser, provider.Patient)
		if len(roles) > 0 {
			r.Use(middlewares.RequireRole(roles...))
		}
		r.Use(extra...)
		r.Use(middlewares.ErrorWatcher)
		fn(r)
	})
}

// layout builds the page chrome from the auth slice and pops the flash.
func layout(c internal.Context, s state.State) views.Layout {
	l := views.Layout{
		Path:          c.Request().URL.Path,
		Role:          s.Auth.Role,
		Authenticated: s.Auth.Authenticated(),
	}
	if f, ok := c.Flash(); ok {
		l.Flash = &f
	}
	return l
}

func render(c internal.Context, component templ.Component) error {
	return c.Render(http.StatusOK, component)
}

// done redirects after a successful mutation, carrying a success message.
func done(c internal.Context, message, to string) error {
	if err := c.SetFlash(cookie.Flash{Level: cookie.Success, Message: message}); err != nil {
		c.Logger().WarnContext(c, "set flash", slog.Any("error", err))
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// failed redirects after a mutation the backend refused without
// escalating, showing its message.
func failed(c internal.Context, apiErr *model.APIError, to string) error {
	message := apiErr.Message
	if message == "" {
		message = state.FallbackError
	}
	if err := c.SetFlash(cookie.Flash{Level: cookie.Info, Message: message}); err != nil {
		c.Logger().WarnContext(c, "set flash", slog.Any("error", err))
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// snapshot returns the state of the session's store.
func snapshot(c internal.Context) (state.State, error) {
	st, err := c.Store()
	if err != nil {
		return state.State{}, err
	}
	return st.Snapshot(), nil
}

// personForm reads the identity fields shared by patient, user and profile
// forms.
func personForm(c internal.Context) model.User {
	return model.User{
		FirstName:   strings.TrimSpace(c.Form("firstName")),
		LastName:    strings.TrimSpace(c.Form("lastName")),
		DateOfBirth: c.Form("dateOfBirth"),
		Gender:      model.Gender(c.Form("gender")),
		Email:       strings.TrimSpace(c.Form("email")),
		Address:     strings.TrimSpace(c.Form("address")),
		Phone:       strings.TrimSpace(c.Form("phone")),
	}
}
