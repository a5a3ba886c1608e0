// Package state is the per-session state tree: one slice per backend
// resource, pure reducers driven by actions, and a mutex-serialized Store.
package state

import "github.com/medilabo/webapp/internal/model"

// AuthState mirrors the stored credential.
type AuthState struct {
	Meta
	Token string
	Role  model.Role
}

// Authenticated reports whether a token and a role are known.
func (a AuthState) Authenticated() bool {
	return a.Token != "" && a.Role != ""
}

// State is the whole tree. The zero value is the initial state.
type State struct {
	Auth       AuthState
	Profile    ResourceState[model.Profile]
	Password   ResourceState[string]
	Patients   CollectionState[model.Patient]
	Users      CollectionState[model.User]
	Notes      CollectionState[model.Note]
	Evaluation ResourceState[model.RiskLevel]
	Error      model.APIError
}

// Initial returns the state every slice starts from.
func Initial() State {
	return State{}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	s.Auth.Meta = s.Auth.Meta.clone()
	s.Profile = s.Profile.clone()
	s.Password = s.Password.clone()
	s.Patients = s.Patients.clone()
	s.Users = s.Users.clone()
	s.Notes = s.Notes.clone()
	s.Evaluation = s.Evaluation.clone()
	s.Error = s.Error.Clone()
	return s
}

// HasError reports whether the error slice holds an escalated failure.
func (s State) HasError() bool {
	return s.Error.Escalates()
}
