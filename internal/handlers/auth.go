package handlers

import (
	"net/http"
	"strings"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/provider"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
	"github.com/medilabo/webapp/middlewares"
)

// Auth serves the login form and the login and logout actions.
type Auth struct {
	pages *views.Pages
}

func (h *Auth) Routes(r internal.Router) {
	r.GET(urls.Home, h.form, provider.Login)
	r.GET(urls.Login, h.form, provider.Login)
	r.POST(urls.Login, h.login, middlewares.ClearError, middlewares.ErrorWatcher)
	r.POST(urls.Logout, h.logout)
}

func (h *Auth) form(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return render(c, h.pages.Login(layout(c, s), views.LoginPage{Meta: s.Auth.Meta}))
}

func (h *Auth) login(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	ops, err := c.Operations()
	if err != nil {
		return err
	}

	creds := model.Credentials{
		Email:    strings.TrimSpace(c.Form("email")),
		Password: c.Form("password"),
	}
	res := ops.Login(c, creds)
	if res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s := st.Snapshot()
		return c.Render(http.StatusOK, h.pages.Login(layout(c, s), views.LoginPage{
			Email: creds.Email,
			Meta:  s.Auth.Meta,
		}))
	}

	if err := c.RotateSession(); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, urls.Profile)
}

func (h *Auth) logout(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	if err := ops.Logout(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, urls.Login)
}
