// Package provider prefetches the slices a page needs before its handler
// runs. Every provider is a middleware: it starts its fetches concurrently,
// waits for all of them to settle, then calls the next handler. On handler
// entry each prefetched slice is therefore loaded or carries an error.
package provider

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/operation"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
)

type fetch func(ctx context.Context, ops *operation.Runner)

// settle runs fetches concurrently and returns once all have committed.
// Backend failures live in the store, never in the returned error.
func settle(c internal.Context, fetches ...fetch) error {
	if len(fetches) == 0 {
		return nil
	}
	ops, err := c.Operations()
	if err != nil {
		return err
	}
	var g errgroup.Group
	for _, f := range fetches {
		g.Go(func() error {
			f(c, ops)
			return nil
		})
	}
	return g.Wait()
}

// Login forgets the current user: the credential is cleared and the store
// reset on every entry to the login pages.
func Login(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		if err := c.Credentials().Clear(c); err != nil {
			return err
		}
		st, err := c.Store()
		if err != nil {
			return err
		}
		st.Dispatch(state.Reset())
		return next(c)
	}
}

// ConnectedUser loads the profile of the signed-in user, and their patients
// when they are a practitioner.
func ConnectedUser(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		st, err := c.Store()
		if err != nil {
			return err
		}
		auth := st.Snapshot().Auth
		if !auth.Authenticated() {
			return next(c)
		}

		fetches := []fetch{func(ctx context.Context, ops *operation.Runner) { ops.FetchProfile(ctx) }}
		if auth.Role == model.RoleUser {
			fetches = append(fetches, func(ctx context.Context, ops *operation.Runner) { ops.FetchPatients(ctx) })
		}
		if err := settle(c, fetches...); err != nil {
			return err
		}
		return next(c)
	}
}

// Patient loads the patient named by the route together with their notes and
// risk evaluation. Without a patient in the route those slices are cleared.
func Patient(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		id := c.Param(urls.PatientID)
		if id == "" {
			st, err := c.Store()
			if err != nil {
				return err
			}
			st.Dispatch(state.PatientsClearCurrent())
			st.Dispatch(state.NotesClear())
			st.Dispatch(state.EvaluationClear())
			return next(c)
		}

		err := settle(c,
			func(ctx context.Context, ops *operation.Runner) { ops.FetchPatient(ctx, id) },
			func(ctx context.Context, ops *operation.Runner) { ops.FetchNotes(ctx, id) },
			func(ctx context.Context, ops *operation.Runner) { ops.FetchEvaluation(ctx, id) },
		)
		if err != nil {
			return err
		}
		return next(c)
	}
}

// User loads the user named by the route, or clears the current user.
func User(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		id := c.Param(urls.UserID)
		if id == "" {
			st, err := c.Store()
			if err != nil {
				return err
			}
			st.Dispatch(state.UsersClearCurrent())
			return next(c)
		}

		if err := settle(c, func(ctx context.Context, ops *operation.Runner) { ops.FetchUser(ctx, id) }); err != nil {
			return err
		}
		return next(c)
	}
}

// Note focuses the note named by the route. It reads the list the Patient
// provider already fetched; an unknown id yields an empty note.
func Note(next internal.HandlerFunc) internal.HandlerFunc {
	return func(c internal.Context) error {
		st, err := c.Store()
		if err != nil {
			return err
		}

		id := c.Param(urls.NoteID)
		if id == "" {
			st.Dispatch(state.NotesClearCurrent())
			return next(c)
		}

		note, _ := st.Snapshot().Notes.Find(id)
		st.Dispatch(state.NotesSetCurrent(note))
		return next(c)
	}
}
