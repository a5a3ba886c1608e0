package handlers

import (
	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
)

// Profile serves the connected user's own pages.
type Profile struct {
	pages *views.Pages
}

func (h *Profile) Routes(r internal.Router) {
	area(r, nil, nil, func(r internal.Router) {
		r.GET(urls.Profile, h.show)
		r.GET(urls.ProfileUpdate, h.edit)
		r.POST(urls.ProfileUpdate, h.update)
		r.GET(urls.ProfilePassword, h.passwordForm)
		r.POST(urls.ProfilePassword, h.updatePassword)
	})
}

func (h *Profile) show(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return render(c, h.pages.Profile(layout(c, s), views.ProfilePage{Profile: s.Profile}))
}

func (h *Profile) edit(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	st.Dispatch(state.ProfileClearErrors())
	s := st.Snapshot()
	return h.renderForm(c, s, s.Profile.Data)
}

func (h *Profile) update(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	ops, err := c.Operations()
	if err != nil {
		return err
	}

	form := personForm(c)
	form.ID = s.Profile.Data.ID
	form.Role = s.Profile.Data.Role
	if res := ops.UpdateProfile(c, form); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s, err := snapshot(c)
		if err != nil {
			return err
		}
		return h.renderForm(c, s, form)
	}
	return done(c, "Votre profil a été mis à jour", urls.Profile)
}

func (h *Profile) renderForm(c internal.Context, s state.State, form model.Profile) error {
	return render(c, h.pages.ProfileForm(layout(c, s), views.FormPage[model.Profile]{
		Form:   form,
		Meta:   s.Profile.Meta,
		Action: urls.ProfileUpdate,
		Cancel: urls.Profile,
	}))
}

func (h *Profile) passwordForm(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	st.Dispatch(state.PasswordClearErrors())
	return h.renderPassword(c, st.Snapshot())
}

func (h *Profile) updatePassword(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	change := model.PasswordChange{
		CurrentPassword: c.Form("currentPassword"),
		NewPassword:     c.Form("newPassword"),
		ConfirmPassword: c.Form("confirmPassword"),
	}
	if res := ops.UpdatePassword(c, change); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s, err := snapshot(c)
		if err != nil {
			return err
		}
		return h.renderPassword(c, s)
	}
	return done(c, "Votre mot de passe a été modifié", urls.Profile)
}

// renderPassword never echoes the submitted passwords.
func (h *Profile) renderPassword(c internal.Context, s state.State) error {
	return render(c, h.pages.Password(layout(c, s), views.FormPage[model.PasswordChange]{
		Meta:   s.Password.Meta,
		Action: urls.ProfilePassword,
		Cancel: urls.Profile,
	}))
}
