// Package urls names the browser-facing routes.
package urls

import (
	"net/url"
	"path"
)

const (
	Home            = "/"
	Login           = "/login"
	Logout          = "/logout"
	Error           = "/error"
	Profile         = "/profile"
	ProfileUpdate   = "/profile/update"
	ProfilePassword = "/profile/password"
	Patients        = "/patients"
	PatientCreate   = "/patients/create"
	Users           = "/users"
	UserCreate      = "/users/create"
	Static          = "/static"
)

// Route parameter names shared by the router and the providers.
const (
	PatientID = "patientId"
	NoteID    = "noteId"
	UserID    = "userId"
)

func Patient(id string) string       { return join(Patients, id) }
func PatientUpdate(id string) string { return join(Patients, id, "update") }
func PatientDelete(id string) string { return join(Patients, id, "delete") }

func Notes(patientID string) string      { return join(Patients, patientID, "notes") }
func NoteCreate(patientID string) string { return join(Patients, patientID, "notes", "create") }

func Note(patientID, noteID string) string {
	return join(Patients, patientID, "notes", noteID)
}

func NoteUpdate(patientID, noteID string) string {
	return join(Patients, patientID, "notes", noteID, "update")
}

func NoteDelete(patientID, noteID string) string {
	return join(Patients, patientID, "notes", noteID, "delete")
}

func User(id string) string         { return join(Users, id) }
func UserUpdate(id string) string   { return join(Users, id, "update") }
func UserDelete(id string) string   { return join(Users, id, "delete") }
func UserResetPwd(id string) string { return join(Users, id, "reset-password") }

// UserSearch is the users page filtered by keyword.
func UserSearch(keyword string) string {
	if keyword == "" {
		return Users
	}
	return Users + "?" + url.Values{"keyword": {keyword}}.Encode()
}

func join(base string, parts ...string) string {
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return path.Join(append([]string{base}, parts...)...)
}
