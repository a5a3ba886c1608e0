package handlers

import (
	"net/http"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/provider"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
)

// Notes serves the notes of a patient. The note list itself is shown on the
// patient page.
type Notes struct {
	pages *views.Pages
}

func (h *Notes) Routes(r internal.Router) {
	area(r, []model.Role{model.RoleUser}, []internal.Middleware{provider.Note}, func(r internal.Router) {
		r.GET(patientPath+"/notes", h.list)
		r.GET(patientPath+"/notes/create", h.createForm)
		r.POST(patientPath+"/notes/create", h.create)
		r.GET(notePath, h.show)
		r.GET(notePath+"/update", h.edit)
		r.POST(notePath+"/update", h.update)
		r.POST(notePath+"/delete", h.delete)
	})
}

func (h *Notes) list(c internal.Context) error {
	return c.Redirect(http.StatusSeeOther, urls.Patient(c.Param(urls.PatientID)))
}

// show treats an id missing from the patient's notes as an unknown page.
func (h *Notes) show(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	s := st.Snapshot()
	if s.Notes.Current.Data.ID == "" {
		st.Dispatch(state.ErrorSet(model.NotFound(c.Request().URL.Path, c.Now())))
		return nil
	}
	return render(c, h.pages.Note(layout(c, s), views.NotePage{
		Patient: s.Patients.Current.Data,
		Note:    s.Notes.Current.Data,
	}))
}

func (h *Notes) createForm(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	st.Dispatch(state.NotesClearCurrentErrors())
	return h.renderForm(c, st.Snapshot(), model.Note{PatientID: c.Param(urls.PatientID)}, true)
}

func (h *Notes) create(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	form := model.Note{PatientID: c.Param(urls.PatientID), Note: c.Form("note")}
	if res := ops.CreateNote(c, form); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s, err := snapshot(c)
		if err != nil {
			return err
		}
		return h.renderForm(c, s, form, true)
	}
	return done(c, "La note a été ajoutée", urls.Patient(form.PatientID))
}

func (h *Notes) edit(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	st.Dispatch(state.NotesClearCurrentErrors())
	s := st.Snapshot()
	if s.Notes.Current.Data.ID == "" {
		st.Dispatch(state.ErrorSet(model.NotFound(c.Request().URL.Path, c.Now())))
		return nil
	}
	return h.renderForm(c, s, s.Notes.Current.Data, false)
}

func (h *Notes) update(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	form := s.Notes.Current.Data
	form.ID = c.Param(urls.NoteID)
	form.PatientID = c.Param(urls.PatientID)
	form.Note = c.Form("note")
	if res := ops.UpdateNote(c, form); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s, err := snapshot(c)
		if err != nil {
			return err
		}
		return h.renderForm(c, s, form, false)
	}
	return done(c, "La note a été modifiée", urls.Note(form.PatientID, form.ID))
}

func (h *Notes) delete(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	patientID := c.Param(urls.PatientID)
	if res := ops.DeleteNote(c, c.Param(urls.NoteID)); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		return failed(c, res.Err, urls.Note(patientID, c.Param(urls.NoteID)))
	}
	return done(c, "La note a été supprimée", urls.Patient(patientID))
}

func (h *Notes) renderForm(c internal.Context, s state.State, form model.Note, create bool) error {
	action, cancel := urls.NoteCreate(form.PatientID), urls.Patient(form.PatientID)
	if !create {
		action, cancel = urls.NoteUpdate(form.PatientID, form.ID), urls.Note(form.PatientID, form.ID)
	}
	return render(c, h.pages.NoteForm(layout(c, s), views.FormPage[model.Note]{
		Form:   form,
		Meta:   s.Notes.Current.Meta,
		Action: action,
		Cancel: cancel,
		Create: create,
	}))
}
