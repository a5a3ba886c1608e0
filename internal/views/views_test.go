package views_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/views"
	"github.com/medilabo/webapp/pkg/cookie"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestPages(t *testing.T) {
	t.Parallel()

	pages, err := views.New()
	require.NoError(t, err)

	t.Run("login shows field errors", func(t *testing.T) {
		t.Parallel()
		out := render(t, pages.Login(views.Layout{Path: "/login"}, views.LoginPage{
			Email: "doc@medilabo.fr",
			Meta: state.Meta{
				Error:       "Identifiants invalides",
				FieldErrors: map[string]string{"password": "obligatoire"},
			},
		}))
		assert.Contains(t, out, "<title>Connexion · MediLabo</title>")
		assert.Contains(t, out, `value="doc@medilabo.fr"`)
		assert.Contains(t, out, "Identifiants invalides")
		assert.Contains(t, out, "obligatoire")
		assert.NotContains(t, out, "Se déconnecter")
	})

	t.Run("nav follows role", func(t *testing.T) {
		t.Parallel()
		user := render(t, pages.Profile(views.Layout{Path: "/profile", Role: model.RoleUser, Authenticated: true}, views.ProfilePage{}))
		assert.Contains(t, user, "Mes patients")
		assert.NotContains(t, user, "Utilisateurs")
		assert.Contains(t, user, `<a href="/profile" class="active">Profil</a>`)

		admin := render(t, pages.Profile(views.Layout{Path: "/profile", Role: model.RoleAdmin, Authenticated: true}, views.ProfilePage{}))
		assert.Contains(t, admin, "Utilisateurs")
		assert.NotContains(t, admin, "Mes patients")
	})

	t.Run("flash", func(t *testing.T) {
		t.Parallel()
		out := render(t, pages.Profile(views.Layout{
			Authenticated: true,
			Role:          model.RoleUser,
			Flash:         &cookie.Flash{Level: cookie.Success, Message: "Profil mis à jour"},
		}, views.ProfilePage{}))
		assert.Contains(t, out, `class="flash flash-success"`)
		assert.Contains(t, out, "Profil mis à jour")
	})

	t.Run("patients sorted and escaped", func(t *testing.T) {
		t.Parallel()
		out := render(t, pages.Patients(views.Layout{Authenticated: true, Role: model.RoleUser}, views.PatientsPage{
			Patients: []model.Patient{
				{ID: "2", FirstName: "Zoé", LastName: "Martin"},
				{ID: "1", FirstName: "Léa", LastName: "Émond"},
				{ID: "3", FirstName: "<b>x</b>", LastName: "Bernard"},
			},
		}))
		bernard := bytes.Index([]byte(out), []byte("Bernard"))
		emond := bytes.Index([]byte(out), []byte("Émond"))
		martin := bytes.Index([]byte(out), []byte("Martin"))
		assert.Less(t, bernard, emond)
		assert.Less(t, emond, martin)
		assert.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")
		assert.Contains(t, out, `href="/patients/1"`)
	})

	t.Run("patient with notes and risk", func(t *testing.T) {
		t.Parallel()
		out := render(t, pages.Patient(views.Layout{Authenticated: true, Role: model.RoleUser}, views.PatientPage{
			Patient: state.ResourceState[model.Patient]{Data: model.Patient{ID: "7", FirstName: "Ana", LastName: "Lopez", DateOfBirth: "1980-03-04", Gender: model.GenderFemale}},
			Notes: []model.Note{
				{ID: "a", PatientID: "7", DateTime: "2024-01-02T09:30:00", Note: "ancienne"},
				{ID: "b", PatientID: "7", DateTime: "2024-05-06T14:15:00", Note: "récente"},
			},
			Evaluation: state.ResourceState[model.RiskLevel]{Data: model.RiskInDanger},
		}))
		assert.Contains(t, out, "<title>Ana Lopez · MediLabo</title>")
		assert.Contains(t, out, "04/03/1980")
		assert.Contains(t, out, "Femme")
		assert.Contains(t, out, "Risque danger")
		assert.Contains(t, out, "le 06/05/2024 à 14:15")
		assert.Less(t, bytes.Index([]byte(out), []byte("récente")), bytes.Index([]byte(out), []byte("ancienne")))
		assert.Contains(t, out, `href="/patients/7/notes/b"`)
	})

	t.Run("note body is sanitized markdown", func(t *testing.T) {
		t.Parallel()
		out := render(t, pages.Note(views.Layout{Authenticated: true, Role: model.RoleUser}, views.NotePage{
			Patient: model.Patient{ID: "7", FirstName: "Ana", LastName: "Lopez"},
			Note:    model.Note{ID: "b", Note: "**Poids** stable\n<script>alert(1)</script>"},
		}))
		assert.Contains(t, out, "<strong>Poids</strong>")
		assert.NotContains(t, out, "<script>alert")
	})

	t.Run("user form", func(t *testing.T) {
		t.Parallel()
		out := render(t, pages.UserForm(views.Layout{Authenticated: true, Role: model.RoleAdmin}, views.FormPage[model.User]{
			Form:   model.User{Role: model.RoleAdmin, Gender: model.GenderMale},
			Action: "/users/create",
			Create: true,
		}))
		assert.Contains(t, out, `<option value="ADMIN" selected>Administrateur</option>`)
		assert.Contains(t, out, `<option value="M" selected>Homme</option>`)
		assert.NotContains(t, out, `name="password"`)
		assert.Contains(t, out, "mot de passe provisoire")
	})

	t.Run("error page", func(t *testing.T) {
		t.Parallel()
		out := render(t, pages.Error(views.Layout{}, views.ErrorPage{
			Error: model.Forbidden("/users", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)),
		}))
		assert.Contains(t, out, "403 · FORBIDDEN")
		assert.Contains(t, out, "/users")
		assert.Contains(t, out, "le 15/01/2024 à 11:00")
	})
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "le 02/03/2024 à 08:05", views.FormatDateTime(time.Date(2024, 3, 2, 8, 5, 0, 0, time.UTC)))
	assert.Empty(t, views.FormatDateTime(time.Time{}))
	assert.Equal(t, "le 01/07/2024 à 14:00", views.FormatTimestamp("2024-07-01T12:00:00.000Z"))
	assert.Equal(t, "n/a", views.FormatTimestamp("n/a"))
	assert.Equal(t, "31/12/1999", views.FormatBirthDate("1999-12-31"))

	users := views.SortUsers([]model.User{{LastName: "dupont"}, {LastName: "Durand"}, {LastName: "Dupont", FirstName: "Alice"}})
	assert.Equal(t, "dupont", users[0].LastName)
	assert.Equal(t, "Alice", users[1].FirstName)
	assert.Equal(t, "Durand", users[2].LastName)
}
