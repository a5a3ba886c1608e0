package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/medilabo/webapp/internal/model"
)

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) Result[model.LoginResponse] {
	return call[model.LoginResponse](ctx, c, ServiceUser, http.MethodPost, "/auth/login", creds)
}

// Profile returns the connected user.
func (c *Client) Profile(ctx context.Context) Result[model.Profile] {
	return call[model.Profile](ctx, c, ServiceUser, http.MethodGet, "/user/profile", nil)
}

func (c *Client) UpdateProfile(ctx context.Context, p model.Profile) Result[model.Profile] {
	return call[model.Profile](ctx, c, ServiceUser, http.MethodPut, "/user/profile", p)
}

// UpdatePassword answers with a plain-text confirmation.
func (c *Client) UpdatePassword(ctx context.Context, change model.PasswordChange) Result[string] {
	return call[string](ctx, c, ServiceUser, http.MethodPut, "/password/update", change)
}

// Patients lists the patients of the connected doctor.
func (c *Client) Patients(ctx context.Context) Result[[]model.Patient] {
	return call[[]model.Patient](ctx, c, ServiceUser, http.MethodGet, "/patients", nil)
}

func (c *Client) Patient(ctx context.Context, id string) Result[model.Patient] {
	return call[model.Patient](ctx, c, ServiceUser, http.MethodGet, "/patients/"+url.PathEscape(id), nil)
}

func (c *Client) CreatePatient(ctx context.Context, p model.Patient) Result[model.Patient] {
	return call[model.Patient](ctx, c, ServiceUser, http.MethodPost, "/patients", p)
}

func (c *Client) UpdatePatient(ctx context.Context, p model.Patient) Result[model.Patient] {
	return call[model.Patient](ctx, c, ServiceUser, http.MethodPut, "/patients/"+url.PathEscape(p.ID), p)
}

func (c *Client) DeletePatient(ctx context.Context, id string) Result[string] {
	return call[string](ctx, c, ServiceUser, http.MethodDelete, "/patients/"+url.PathEscape(id), nil)
}

// Notes lists the notes of a patient.
func (c *Client) Notes(ctx context.Context, patientID string) Result[[]model.Note] {
	return call[[]model.Note](ctx, c, ServiceNote, http.MethodGet, "/notes/"+url.PathEscape(patientID), nil)
}

func (c *Client) CreateNote(ctx context.Context, n model.Note) Result[model.Note] {
	return call[model.Note](ctx, c, ServiceNote, http.MethodPost, "/notes", n)
}

func (c *Client) UpdateNote(ctx context.Context, n model.Note) Result[model.Note] {
	return call[model.Note](ctx, c, ServiceNote, http.MethodPut, "/notes/"+url.PathEscape(n.ID), n)
}

func (c *Client) DeleteNote(ctx context.Context, id string) Result[string] {
	return call[string](ctx, c, ServiceNote, http.MethodDelete, "/notes/"+url.PathEscape(id), nil)
}

// Evaluation computes the risk level of a patient.
func (c *Client) Evaluation(ctx context.Context, patientID string) Result[model.RiskLevel] {
	return call[model.RiskLevel](ctx, c, ServiceEvaluation, http.MethodGet, "/evaluation/"+url.PathEscape(patientID), nil)
}

// SearchUsers lists the accounts matching keyword.
func (c *Client) SearchUsers(ctx context.Context, keyword string) Result[[]model.User] {
	return call[[]model.User](ctx, c, ServiceUser, http.MethodGet, "/admin/users/search?keyword="+url.QueryEscape(keyword), nil)
}

func (c *Client) User(ctx context.Context, id string) Result[model.User] {
	return call[model.User](ctx, c, ServiceUser, http.MethodGet, "/admin/users/"+url.PathEscape(id), nil)
}

func (c *Client) CreateUser(ctx context.Context, u model.User) Result[model.User] {
	return call[model.User](ctx, c, ServiceUser, http.MethodPost, "/admin/users", u)
}

func (c *Client) UpdateUser(ctx context.Context, u model.User) Result[model.User] {
	return call[model.User](ctx, c, ServiceUser, http.MethodPut, "/admin/users/"+url.PathEscape(u.ID), u)
}

// ResetUserPassword generates a new password for the account, mailed by
// user-ms. The answer is a plain-text confirmation.
func (c *Client) ResetUserPassword(ctx context.Context, id string) Result[string] {
	return call[string](ctx, c, ServiceUser, http.MethodPut, "/admin/users/password/reset/"+url.PathEscape(id), nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) Result[string] {
	return call[string](ctx, c, ServiceUser, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil)
}
