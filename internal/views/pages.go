package views

import (
	"github.com/a-h/templ"

	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
)

type LoginPage struct {
	Email string
	Meta  state.Meta
}

func (p *Pages) Login(l Layout, d LoginPage) templ.Component {
	l.Title = "Connexion"
	return p.render("login", l, d)
}

type ErrorPage struct {
	Error model.APIError
}

func (p *Pages) Error(l Layout, d ErrorPage) templ.Component {
	l.Title = "Erreur"
	return p.render("error", l, d)
}

type ProfilePage struct {
	Profile state.ResourceState[model.Profile]
}

func (p *Pages) Profile(l Layout, d ProfilePage) templ.Component {
	l.Title = "Mon profil"
	return p.render("profile", l, d)
}

// FormPage carries the values being edited and the outcome of the last
// submission, so validation errors render next to their field.
type FormPage[T any] struct {
	Form   T
	Meta   state.Meta
	Action string
	Cancel string
	Create bool
}

func (p *Pages) ProfileForm(l Layout, d FormPage[model.Profile]) templ.Component {
	l.Title = "Modifier mon profil"
	return p.render("profile_form", l, d)
}

func (p *Pages) Password(l Layout, d FormPage[model.PasswordChange]) templ.Component {
	l.Title = "Changer mon mot de passe"
	return p.render("password", l, d)
}

type PatientsPage struct {
	Patients []model.Patient
	Meta     state.Meta
}

func (p *Pages) Patients(l Layout, d PatientsPage) templ.Component {
	l.Title = "Mes patients"
	d.Patients = SortPatients(d.Patients)
	return p.render("patients", l, d)
}

type PatientPage struct {
	Patient    state.ResourceState[model.Patient]
	Notes      []model.Note
	NotesMeta  state.Meta
	Evaluation state.ResourceState[model.RiskLevel]
}

func (p *Pages) Patient(l Layout, d PatientPage) templ.Component {
	l.Title = d.Patient.Data.FullName()
	d.Notes = SortNotes(d.Notes)
	return p.render("patient", l, d)
}

func (p *Pages) PatientForm(l Layout, d FormPage[model.Patient]) templ.Component {
	l.Title = "Modifier le patient"
	if d.Create {
		l.Title = "Nouveau patient"
	}
	return p.render("patient_form", l, d)
}

type NotePage struct {
	Patient model.Patient
	Note    model.Note
}

func (p *Pages) Note(l Layout, d NotePage) templ.Component {
	l.Title = "Note"
	return p.render("note", l, d)
}

func (p *Pages) NoteForm(l Layout, d FormPage[model.Note]) templ.Component {
	l.Title = "Modifier la note"
	if d.Create {
		l.Title = "Nouvelle note"
	}
	return p.render("note_form", l, d)
}

type UsersPage struct {
	Keyword string
	Users   []model.User
	Meta    state.Meta
}

func (p *Pages) Users(l Layout, d UsersPage) templ.Component {
	l.Title = "Utilisateurs"
	d.Users = SortUsers(d.Users)
	return p.render("users", l, d)
}

type UserPage struct {
	User state.ResourceState[model.User]
}

func (p *Pages) User(l Layout, d UserPage) templ.Component {
	l.Title = d.User.Data.FullName()
	return p.render("user", l, d)
}

func (p *Pages) UserForm(l Layout, d FormPage[model.User]) templ.Component {
	l.Title = "Modifier l'utilisateur"
	if d.Create {
		l.Title = "Nouvel utilisateur"
	}
	return p.render("user_form", l, d)
}
