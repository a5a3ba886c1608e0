// Package operation runs the asynchronous backend operations. Each one
// dispatches its pending outcome, calls the backend and dispatches the
// fulfilled or rejected outcome. Operations outlive the request that started
// them: cancellation of ctx is ignored.
package operation

import (
	"context"
	"log/slog"

	"github.com/medilabo/webapp/internal/apiclient"
	"github.com/medilabo/webapp/internal/credential"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
)

// Runner binds the backend client to one session's store and credential.
type Runner struct {
	client *apiclient.Client
	store  state.Dispatcher
	creds  credential.Storage
	log    *slog.Logger
}

// New creates a Runner. A nil log discards.
func New(client *apiclient.Client, store state.Dispatcher, creds credential.Storage, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{client: client, store: store, creds: creds, log: log}
}

// Store returns the store the runner commits to.
func (r *Runner) Store() state.Dispatcher { return r.store }

func run[T any](
	ctx context.Context,
	r *Runner,
	action func(state.Outcome[T]) state.Action,
	call func(context.Context, *apiclient.Client) apiclient.Result[T],
) apiclient.Result[T] {
	ctx = context.WithoutCancel(ctx)

	r.store.Dispatch(action(state.Start[T]()))

	res := call(ctx, r.authorized(ctx))
	if res.OK() {
		r.store.Dispatch(action(state.Fulfill(res.Value)))
	} else {
		r.store.Dispatch(action(state.Reject[T](res.Err)))
	}
	return res
}

// authorized returns a client carrying the stored token. Without one the
// request goes out anonymous and the backend answers 401.
func (r *Runner) authorized(ctx context.Context) *apiclient.Client {
	cred, err := r.creds.Load(ctx)
	if err != nil {
		r.log.WarnContext(ctx, "load credential", slog.Any("error", err))
	}
	return r.client.WithToken(cred.Token)
}

// Login authenticates, stores the credential and mirrors it in the auth
// slice.
func (r *Runner) Login(ctx context.Context, creds model.Credentials) apiclient.Result[model.Credential] {
	return run(ctx, r, state.Login, func(ctx context.Context, _ *apiclient.Client) apiclient.Result[model.Credential] {
		res := r.client.WithToken("").Login(ctx, creds)
		if !res.OK() {
			return apiclient.Result[model.Credential]{Err: res.Err}
		}

		cred, err := credential.FromToken(res.Value.Token)
		if err != nil {
			r.log.WarnContext(ctx, "login token rejected", slog.Any("error", err))
			return apiclient.Result[model.Credential]{Err: &model.APIError{Message: "Jeton d'authentification invalide"}}
		}
		if err := r.creds.Save(ctx, cred); err != nil {
			r.log.ErrorContext(ctx, "save credential", slog.Any("error", err))
			return apiclient.Result[model.Credential]{Err: &model.APIError{Message: "Impossible d'ouvrir la session"}}
		}
		return apiclient.Result[model.Credential]{Value: cred}
	})
}

// Logout clears the stored credential, logs the auth slice out and resets
// the whole store.
func (r *Runner) Logout(ctx context.Context) error {
	err := r.creds.Clear(context.WithoutCancel(ctx))
	r.store.Dispatch(state.AuthLogout())
	r.store.Dispatch(state.Reset())
	return err
}

func (r *Runner) FetchProfile(ctx context.Context) apiclient.Result[model.Profile] {
	return run(ctx, r, state.FetchProfile, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.Profile] {
		return c.Profile(ctx)
	})
}

func (r *Runner) UpdateProfile(ctx context.Context, p model.Profile) apiclient.Result[model.Profile] {
	return run(ctx, r, state.UpdateProfile, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.Profile] {
		return c.UpdateProfile(ctx, p)
	})
}

func (r *Runner) UpdatePassword(ctx context.Context, change model.PasswordChange) apiclient.Result[string] {
	return run(ctx, r, state.UpdatePassword, func(ctx context.Context, c *apiclient.Client) apiclient.Result[string] {
		return c.UpdatePassword(ctx, change)
	})
}

func (r *Runner) FetchPatients(ctx context.Context) apiclient.Result[[]model.Patient] {
	return run(ctx, r, state.FetchPatients, func(ctx context.Context, c *apiclient.Client) apiclient.Result[[]model.Patient] {
		return c.Patients(ctx)
	})
}

func (r *Runner) FetchPatient(ctx context.Context, id string) apiclient.Result[model.Patient] {
	return run(ctx, r, state.FetchPatient, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.Patient] {
		return c.Patient(ctx, id)
	})
}

func (r *Runner) CreatePatient(ctx context.Context, p model.Patient) apiclient.Result[model.Patient] {
	return run(ctx, r, state.CreatePatient, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.Patient] {
		return c.CreatePatient(ctx, p)
	})
}

func (r *Runner) UpdatePatient(ctx context.Context, p model.Patient) apiclient.Result[model.Patient] {
	return run(ctx, r, state.UpdatePatient, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.Patient] {
		return c.UpdatePatient(ctx, p)
	})
}

func (r *Runner) DeletePatient(ctx context.Context, id string) apiclient.Result[string] {
	action := func(o state.Outcome[string]) state.Action { return state.DeletePatient(id, o) }
	return run(ctx, r, action, func(ctx context.Context, c *apiclient.Client) apiclient.Result[string] {
		return c.DeletePatient(ctx, id)
	})
}

func (r *Runner) FetchNotes(ctx context.Context, patientID string) apiclient.Result[[]model.Note] {
	return run(ctx, r, state.FetchNotes, func(ctx context.Context, c *apiclient.Client) apiclient.Result[[]model.Note] {
		return c.Notes(ctx, patientID)
	})
}

func (r *Runner) CreateNote(ctx context.Context, n model.Note) apiclient.Result[model.Note] {
	return run(ctx, r, state.CreateNote, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.Note] {
		return c.CreateNote(ctx, n)
	})
}

func (r *Runner) UpdateNote(ctx context.Context, n model.Note) apiclient.Result[model.Note] {
	return run(ctx, r, state.UpdateNote, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.Note] {
		return c.UpdateNote(ctx, n)
	})
}

func (r *Runner) DeleteNote(ctx context.Context, id string) apiclient.Result[string] {
	action := func(o state.Outcome[string]) state.Action { return state.DeleteNote(id, o) }
	return run(ctx, r, action, func(ctx context.Context, c *apiclient.Client) apiclient.Result[string] {
		return c.DeleteNote(ctx, id)
	})
}

func (r *Runner) FetchEvaluation(ctx context.Context, patientID string) apiclient.Result[model.RiskLevel] {
	return run(ctx, r, state.FetchEvaluation, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.RiskLevel] {
		return c.Evaluation(ctx, patientID)
	})
}

func (r *Runner) SearchUsers(ctx context.Context, keyword string) apiclient.Result[[]model.User] {
	return run(ctx, r, state.SearchUsers, func(ctx context.Context, c *apiclient.Client) apiclient.Result[[]model.User] {
		return c.SearchUsers(ctx, keyword)
	})
}

func (r *Runner) FetchUser(ctx context.Context, id string) apiclient.Result[model.User] {
	return run(ctx, r, state.FetchUser, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.User] {
		return c.User(ctx, id)
	})
}

func (r *Runner) CreateUser(ctx context.Context, u model.User) apiclient.Result[model.User] {
	return run(ctx, r, state.CreateUser, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.User] {
		return c.CreateUser(ctx, u)
	})
}

func (r *Runner) UpdateUser(ctx context.Context, u model.User) apiclient.Result[model.User] {
	return run(ctx, r, state.UpdateUser, func(ctx context.Context, c *apiclient.Client) apiclient.Result[model.User] {
		return c.UpdateUser(ctx, u)
	})
}

func (r *Runner) ResetUserPassword(ctx context.Context, id string) apiclient.Result[string] {
	return run(ctx, r, state.ResetUserPassword, func(ctx context.Context, c *apiclient.Client) apiclient.Result[string] {
		return c.ResetUserPassword(ctx, id)
	})
}

func (r *Runner) DeleteUser(ctx context.Context, id string) apiclient.Result[string] {
	action := func(o state.Outcome[string]) state.Action { return state.DeleteUser(id, o) }
	return run(ctx, r, action, func(ctx context.Context, c *apiclient.Client) apiclient.Result[string] {
		return c.DeleteUser(ctx, id)
	})
}
