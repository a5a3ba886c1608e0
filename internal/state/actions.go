package state

import "github.com/medilabo/webapp/internal/model"

// Action is a state transition. Only constructors of this package build them.
type Action interface {
	Type() string
	apply(s *State)
}

// Failure is implemented by operation actions; it returns the payload of a
// rejected outcome and nil otherwise.
type Failure interface {
	Failure() *model.APIError
}

type operation[T any] struct {
	name    string
	outcome Outcome[T]
	reduce  func(*State, Outcome[T])
}

func (a operation[T]) Type() string { return a.name + "/" + a.outcome.Phase.String() }

func (a operation[T]) apply(s *State) { a.reduce(s, a.outcome) }

func (a operation[T]) Failure() *model.APIError {
	if a.outcome.Phase != Rejected {
		return nil
	}
	return a.outcome.Err
}

type command struct {
	name   string
	reduce func(*State)
}

func (a command) Type() string { return a.name }

func (a command) apply(s *State) { a.reduce(s) }

// Action types without an outcome.
const (
	TypeReset   = "store/reset"
	TypeHydrate = "auth/hydrate"
)

// Reset returns every slice to its initial state.
func Reset() Action {
	return command{TypeReset, func(s *State) { *s = Initial() }}
}

// Hydrate copies the stored credential into the auth slice.
func Hydrate(c model.Credential) Action {
	return command{TypeHydrate, func(s *State) {
		s.Auth.Token = c.Token
		s.Auth.Role = c.Role
	}}
}

// auth

func Login(o Outcome[model.Credential]) Action {
	return operation[model.Credential]{"auth/login", o, func(s *State, o Outcome[model.Credential]) {
		switch o.Phase {
		case Pending:
			s.Auth.pending()
		case Fulfilled:
			s.Auth.fulfilled()
			s.Auth.Token = o.Value.Token
			s.Auth.Role = o.Value.Role
		case Rejected:
			s.Auth.rejected(o.Err)
		}
	}}
}

func AuthLogout() Action {
	return command{"auth/logout", func(s *State) { s.Auth = AuthState{} }}
}

func AuthClearFieldErrors() Action {
	return command{"auth/clearFieldErrors", func(s *State) { s.Auth.FieldErrors = nil }}
}

// profile

func FetchProfile(o Outcome[model.Profile]) Action {
	return operation[model.Profile]{"profile/fetch", o, func(s *State, o Outcome[model.Profile]) { s.Profile.apply(o) }}
}

func UpdateProfile(o Outcome[model.Profile]) Action {
	return operation[model.Profile]{"profile/update", o, func(s *State, o Outcome[model.Profile]) { s.Profile.apply(o) }}
}

func ProfileClearErrors() Action {
	return command{"profile/clearErrors", func(s *State) { s.Profile.clearErrors() }}
}

// password

func UpdatePassword(o Outcome[string]) Action {
	return operation[string]{"password/update", o, func(s *State, o Outcome[string]) { s.Password.apply(o) }}
}

func PasswordClearErrors() Action {
	return command{"password/clearErrors", func(s *State) { s.Password.clearErrors() }}
}

// patients

func FetchPatients(o Outcome[[]model.Patient]) Action {
	return operation[[]model.Patient]{"patients/fetchAll", o, func(s *State, o Outcome[[]model.Patient]) { s.Patients.applyList(o) }}
}

func FetchPatient(o Outcome[model.Patient]) Action {
	return operation[model.Patient]{"patients/fetchOne", o, func(s *State, o Outcome[model.Patient]) { s.Patients.applyCurrent(o) }}
}

func CreatePatient(o Outcome[model.Patient]) Action {
	return operation[model.Patient]{"patients/create", o, func(s *State, o Outcome[model.Patient]) { s.Patients.applyCreate(o) }}
}

func UpdatePatient(o Outcome[model.Patient]) Action {
	return operation[model.Patient]{"patients/update", o, func(s *State, o Outcome[model.Patient]) { s.Patients.applyUpdate(o) }}
}

func DeletePatient(id string, o Outcome[string]) Action {
	return operation[string]{"patients/delete", o, func(s *State, o Outcome[string]) { s.Patients.applyDelete(id, o) }}
}

func PatientsClearCurrentErrors() Action {
	return command{"patients/clearCurrentErrors", func(s *State) { s.Patients.Current.clearErrors() }}
}

func PatientsClearCurrent() Action {
	return command{"patients/clearCurrent", func(s *State) { s.Patients.Current = ResourceState[model.Patient]{} }}
}

// notes

func FetchNotes(o Outcome[[]model.Note]) Action {
	return operation[[]model.Note]{"notes/fetchAllByPatient", o, func(s *State, o Outcome[[]model.Note]) { s.Notes.applyList(o) }}
}

func CreateNote(o Outcome[model.Note]) Action {
	return operation[model.Note]{"notes/create", o, func(s *State, o Outcome[model.Note]) { s.Notes.applyCreate(o) }}
}

func UpdateNote(o Outcome[model.Note]) Action {
	return operation[model.Note]{"notes/update", o, func(s *State, o Outcome[model.Note]) { s.Notes.applyUpdate(o) }}
}

func DeleteNote(id string, o Outcome[string]) Action {
	return operation[string]{"notes/delete", o, func(s *State, o Outcome[string]) { s.Notes.applyDelete(id, o) }}
}

// NotesSetCurrent focuses n, or the empty note when it was not found.
// Current is marked loaded either way.
func NotesSetCurrent(n model.Note) Action {
	return command{"notes/setCurrent", func(s *State) {
		s.Notes.Current = ResourceState[model.Note]{Meta: Meta{Loaded: true}, Data: n}
	}}
}

func NotesClearCurrentErrors() Action {
	return command{"notes/clearCurrentErrors", func(s *State) { s.Notes.Current.clearErrors() }}
}

func NotesClearCurrent() Action {
	return command{"notes/clearCurrent", func(s *State) { s.Notes.Current = ResourceState[model.Note]{} }}
}

func NotesClear() Action {
	return command{"notes/clear", func(s *State) { s.Notes = CollectionState[model.Note]{} }}
}

// evaluation

func FetchEvaluation(o Outcome[model.RiskLevel]) Action {
	return operation[model.RiskLevel]{"evaluation/fetch", o, func(s *State, o Outcome[model.RiskLevel]) { s.Evaluation.apply(o) }}
}

func EvaluationClear() Action {
	return command{"evaluation/clear", func(s *State) { s.Evaluation = ResourceState[model.RiskLevel]{} }}
}

// users

func SearchUsers(o Outcome[[]model.User]) Action {
	return operation[[]model.User]{"users/search", o, func(s *State, o Outcome[[]model.User]) { s.Users.applyList(o) }}
}

func FetchUser(o Outcome[model.User]) Action {
	return operation[model.User]{"users/fetchOne", o, func(s *State, o Outcome[model.User]) { s.Users.applyCurrent(o) }}
}

func CreateUser(o Outcome[model.User]) Action {
	return operation[model.User]{"users/create", o, func(s *State, o Outcome[model.User]) { s.Users.applyCreate(o) }}
}

func UpdateUser(o Outcome[model.User]) Action {
	return operation[model.User]{"users/update", o, func(s *State, o Outcome[model.User]) { s.Users.applyUpdate(o) }}
}

func ResetUserPassword(o Outcome[string]) Action {
	return operation[string]{"users/password/reset", o, func(s *State, o Outcome[string]) { s.Users.applyCommand(o) }}
}

func DeleteUser(id string, o Outcome[string]) Action {
	return operation[string]{"users/delete", o, func(s *State, o Outcome[string]) { s.Users.applyDelete(id, o) }}
}

func UsersClearCurrentErrors() Action {
	return command{"users/clearCurrentErrors", func(s *State) { s.Users.Current.clearErrors() }}
}

func UsersClearCurrent() Action {
	return command{"users/clearCurrent", func(s *State) { s.Users.Current = ResourceState[model.User]{} }}
}

// error

// ErrorSet overwrites the error slice with payload.
func ErrorSet(payload model.APIError) Action {
	payload = payload.Clone()
	return command{"error/set", func(s *State) { s.Error = payload.Clone() }}
}

func ErrorClear() Action {
	return command{"error/clear", func(s *State) { s.Error = model.APIError{} }}
}
