package handlers

import (
	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
)

// Patients serves a practitioner's patient pages.
type Patients struct {
	pages *views.Pages
}

func (h *Patients) Routes(r internal.Router) {
	area(r, []model.Role{model.RoleUser}, nil, func(r internal.Router) {
		r.GET(urls.Patients, h.list)
		r.GET(urls.PatientCreate, h.createForm)
		r.POST(urls.PatientCreate, h.create)
		r.GET(patientPath, h.show)
		r.GET(patientPath+"/update", h.edit)
		r.POST(patientPath+"/update", h.update)
		r.POST(patientPath+"/delete", h.delete)
	})
}

func (h *Patients) list(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return render(c, h.pages.Patients(layout(c, s), views.PatientsPage{
		Patients: s.Patients.List,
		Meta:     s.Patients.Meta,
	}))
}

func (h *Patients) show(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return render(c, h.pages.Patient(layout(c, s), views.PatientPage{
		Patient:    s.Patients.Current,
		Notes:      s.Notes.List,
		NotesMeta:  s.Notes.Meta,
		Evaluation: s.Evaluation,
	}))
}

func (h *Patients) createForm(c internal.Context) error {
	s, err := snapshot(c)
	if err != nil {
		return err
	}
	return h.renderForm(c, s, model.Patient{DoctorID: s.Profile.Data.ID}, true)
}

func (h *Patients) create(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	form := patientForm(c)
	res := ops.CreatePatient(c, form)
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
	return done(c, "Le patient a été créé", urls.Patient(res.Value.ID))
}

func (h *Patients) edit(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	st.Dispatch(state.PatientsClearCurrentErrors())
	s := st.Snapshot()
	return h.renderForm(c, s, s.Patients.Current.Data, false)
}

func (h *Patients) update(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	form := patientForm(c)
	form.ID = c.Param(urls.PatientID)
	if res := ops.UpdatePatient(c, form); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		s, err := snapshot(c)
		if err != nil {
			return err
		}
		return h.renderForm(c, s, form, false)
	}
	return done(c, "Le patient a été mis à jour", urls.Patient(form.ID))
}

func (h *Patients) delete(c internal.Context) error {
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	id := c.Param(urls.PatientID)
	if res := ops.DeletePatient(c, id); res.Err != nil {
		if res.Err.Escalates() {
			return nil
		}
		return failed(c, res.Err, urls.Patient(id))
	}
	return done(c, "Le patient a été supprimé", urls.Patients)
}

func (h *Patients) renderForm(c internal.Context, s state.State, form model.Patient, create bool) error {
	action, cancel := urls.PatientCreate, urls.Patients
	if !create {
		action, cancel = urls.PatientUpdate(form.ID), urls.Patient(form.ID)
	}
	return render(c, h.pages.PatientForm(layout(c, s), views.FormPage[model.Patient]{
		Form:   form,
		Meta:   s.Patients.Current.Meta,
		Action: action,
		Cancel: cancel,
		Create: create,
	}))
}

func patientForm(c internal.Context) model.Patient {
	p := personForm(c)
	return model.Patient{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: p.DateOfBirth,
		Gender:      p.Gender,
		Email:       p.Email,
		Address:     p.Address,
		Phone:       p.Phone,
		DoctorID:    c.Form("doctorId"),
	}
}
