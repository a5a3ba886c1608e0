package handlers

import (
	"strings"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/provider"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
)

// Users serves account administration.
type Users struct {
	pages *views.Pages
}

func (h *Users) Routes(r internal.Router) {
	area(r, []model.Role{model.RoleAdmin}, []internal.Middleware{provider.User}, func(r internal.Router) {
		r.GET(urls.Users, h.search)
		r.GET(urls.UserCreate, h.createForm)
		r.POST(urls.UserCreate, h.create)
		r.GET(userPath, h.show)
		r.GET(userPath+"/update", h.edit)
		r.POST(userPath+"/update", h.update)
		r.POST(userPath+"/reset-password", h.resetPassword)
		r.POST(userPath+"/delete", h.delete)
	})
}

// search lists users matching keyword once the search form is submitted;
// until then the last results, if any, are shown. An escalated failure is
// left for the error watcher.
func (h *Users) search(c internal.Context) error {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if c.Request().URL.Query().Has("keyword") {
		ops, err := c.Operations()
		if err != nil {
			return err
		}
		if res := ops.SearchUsers(c, keyword); res.Err != nil && res.Err.Escalates() {
			return nil
		}
	}
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return render(c, h.pages.Users(layout(c, s), views.UsersPage{
		Keyword: keyword,
		Users:   s.Users.List,
		Meta:    s.Users.Meta,
	}))
}

func (h *Users) show(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return render(c, h.pages.User(layout(c, s), views.UserPage{User: s.Users.Current}))
}

func (h *Users) createForm(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return h.renderForm(c, s, model.User{Role: model.RoleUser}, true)
}

func (h *Users) create(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	form := userForm(c)
	res := ops.CreateUser(c, form)
	if res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s, err := snapshot(c)
		if err != nil {
			return err
		}
		return h.renderForm(c, s, form, true)
	}
	return done(c, "L'utilisateur a été créé", urls.User(res.Value.ID))
}

func (h *Users) edit(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	st.Dispatch(state.UsersClearCurrentErrors())
	s := st.Snapshot()
	return h.renderForm(c, s, s.Users.Current.Data, false)
}

func (h *Users) update(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	form := userForm(c)
	form.ID = c.Param(urls.UserID)
	if res := ops.UpdateUser(c, form); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s, err := snapshot(c)
		if err != nil {
			return err
		}
		return h.renderForm(c, s, form, false)
	}
	return done(c, "L'utilisateur a été mis à jour", urls.User(form.ID))
}

func (h *Users) resetPassword(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	id := c.Param(urls.UserID)
	if res := ops.ResetUserPassword(c, id); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		return failed(c, res.Err, urls.User(id))
	}
	return done(c, "Le mot de passe a été réinitialisé", urls.User(id))
}

func (h *Users) delete(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	id := c.Param(urls.UserID)
	if res := ops.DeleteUser(c, id); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		return failed(c, res.Err, urls.User(id))
	}
	return done(c, "L'utilisateur a été supprimé", urls.Users)
}

func (h *Users) renderForm(c internal.Context, s state.State, form model.User, create bool) error {
	action, cancel := urls.UserCreate, urls.Users
	if !create {
		action, cancel = urls.UserUpdate(form.ID), urls.User(form.ID)
	}
	return render(c, h.pages.UserForm(layout(c, s), views.FormPage[model.User]{
		Form:   form,
		Meta:   s.Users.Current.Meta,
		Action: action,
		Cancel: cancel,
		Create: create,
	}))
}

func userForm(c internal.Context) model.User {
	u := personForm(c)
	u.Role = model.Role(c.Form("role"))
	return u
}
