package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/apiclient"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/provider"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/pkg/cache"
	"github.com/medilabo/webapp/pkg/session"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

type env struct {
	app      *internal.App
	sessions *session.CacheStore

	mu   sync.Mutex
	hits []string
	snap state.State
}

func newEnv(t *testing.T, backend map[string]http.HandlerFunc, mount func(e *env, r internal.Router)) *env {
	t.Helper()
	e := &env{}

	mux := http.NewServeMux()
	for pattern, h := range backend {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			e.mu.Lock()
			e.hits = append(e.hits, r.Method+" "+r.URL.Path)
			e.mu.Unlock()
			h(w, r)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sessCache := cache.NewMemory[session.Session](cache.WithSweepInterval(0))
	storeCache := cache.NewMemory[*state.Store](cache.WithSweepInterval(0))
	t.Cleanup(func() {
		_ = sessCache.Close()
		_ = storeCache.Close()
	})
	e.sessions = session.NewCacheStore(sessCache)

	client := apiclient.New(apiclient.Endpoints{
		UserService:       srv.URL,
		NoteService:       srv.URL,
		EvaluationService: srv.URL,
	})
	e.app = internal.New(
		internal.WithSession(e.sessions),
		internal.WithStates(state.NewRegistry(storeCache, state.ErrorInterceptor)),
		internal.WithBackends(client),
		internal.WithHandlers(routes(func(r internal.Router) { mount(e, r) })),
	)
	return e
}

// capture records the store as the handler sees it.
func (e *env) capture(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.snap = st.Snapshot()
	e.mu.Unlock()
	return c.NoContent(http.StatusOK)
}

func (e *env) signIn(t *testing.T, role model.Role) *http.Cookie {
	t.Helper()
	sess := session.New("sess-"+string(role), "cookie-"+string(role), time.Now().Add(time.Hour))
	sess.Set("token", "tok")
	sess.Set("role", string(role))
	require.NoError(t, e.sessions.Create(context.Background(), sess))
	return &http.Cookie{Name: "__sid", Value: sess.Token}
}

func (e *env) get(t *testing.T, target string, c *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if c != nil {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.app.Router().ServeHTTP(rec, r)
	return rec
}

func jsonBody(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
}

func failWith(status int, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(model.APIError{Status: status, Kind: kind, Message: "échec", Path: r.URL.Path})
	}
}

var (
	profile  = model.Profile{ID: "u1", FirstName: "Marie", LastName: "Curie", Role: model.RoleUser}
	patients = []model.Patient{{ID: "p1", FirstName: "Test", LastName: "None"}}
	notes    = []model.Note{{ID: "n1", PatientID: "p1", Note: "Fumeur"}, {ID: "n2", PatientID: "p1", Note: "Poids"}}
)

func TestConnectedUser(t *testing.T) {
	t.Parallel()

	backend := map[string]http.HandlerFunc{
		"GET /user/profile": jsonBody(profile),
		"GET /patients":     jsonBody(patients),
	}
	mount := func(e *env, r internal.Router) {
		r.GET("/profile", e.capture, provider.ConnectedUser)
	}

	t.Run("practitioner gets profile and patients", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, backend, mount)
		e.get(t, "/profile", e.signIn(t, model.RoleUser))

		require.ElementsMatch(t, []string{"GET /user/profile", "GET /patients"}, e.hits)
		require.True(t, e.snap.Profile.Loaded)
		require.Equal(t, "Marie", e.snap.Profile.Data.FirstName)
		require.True(t, e.snap.Patients.Loaded)
		require.Len(t, e.snap.Patients.List, 1)
	})

	t.Run("admin gets the profile only", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, backend, mount)
		e.get(t, "/profile", e.signIn(t, model.RoleAdmin))

		require.Equal(t, []string{"GET /user/profile"}, e.hits)
		require.False(t, e.snap.Patients.Loaded)
	})

	t.Run("anonymous fetches nothing", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, backend, mount)
		e.get(t, "/profile", nil)

		require.Empty(t, e.hits)
		require.False(t, e.snap.Profile.Loaded)
	})
}

func TestPatient(t *testing.T) {
	t.Parallel()

	mount := func(e *env, r internal.Router) {
		r.GET("/patients", e.capture, provider.Patient)
		r.GET("/patients/{patientId}", e.capture, provider.Patient)
	}

	t.Run("route with a patient settles all three slices", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, map[string]http.HandlerFunc{
			"GET /patients/p1":   jsonBody(patients[0]),
			"GET /notes/p1":      jsonBody(notes),
			"GET /evaluation/p1": func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("BORDERLINE")) },
		}, mount)
		e.get(t, "/patients/p1", e.signIn(t, model.RoleUser))

		require.Len(t, e.hits, 3)
		require.True(t, e.snap.Patients.Current.Loaded)
		require.Equal(t, "p1", e.snap.Patients.Current.Data.ID)
		require.True(t, e.snap.Notes.Loaded)
		require.Len(t, e.snap.Notes.List, 2)
		require.True(t, e.snap.Evaluation.Loaded)
		require.Equal(t, model.RiskBorderline, e.snap.Evaluation.Data)
	})

	t.Run("a failing fetch settles with an error", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, map[string]http.HandlerFunc{
			"GET /patients/p1":   jsonBody(patients[0]),
			"GET /notes/p1":      jsonBody(notes),
			"GET /evaluation/p1": failWith(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"),
		}, mount)
		e.get(t, "/patients/p1", e.signIn(t, model.RoleUser))

		require.False(t, e.snap.Evaluation.Loading)
		require.Equal(t, "échec", e.snap.Evaluation.Error)
		require.Equal(t, 500, e.snap.Error.Status, "the failure is escalated")
	})

	t.Run("route without a patient clears the slices", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, map[string]http.HandlerFunc{
			"GET /patients/p1":   jsonBody(patients[0]),
			"GET /notes/p1":      jsonBody(notes),
			"GET /evaluation/p1": func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("NONE")) },
		}, mount)
		cookie := e.signIn(t, model.RoleUser)
		e.get(t, "/patients/p1", cookie)
		require.True(t, e.snap.Patients.Current.Loaded)

		e.get(t, "/patients", cookie)
		require.Equal(t, state.ResourceState[model.Patient]{}, e.snap.Patients.Current)
		require.Empty(t, e.snap.Notes.List)
		require.False(t, e.snap.Notes.Loaded)
		require.False(t, e.snap.Evaluation.Loaded)
	})
}

func TestUser(t *testing.T) {
	t.Parallel()

	e := newEnv(t, map[string]http.HandlerFunc{
		"GET /admin/users/u7": jsonBody(model.User{ID: "u7", Email: "a@b.fr"}),
	}, func(e *env, r internal.Router) {
		r.GET("/users", e.capture, provider.User)
		r.GET("/users/{userId}", e.capture, provider.User)
	})
	cookie := e.signIn(t, model.RoleAdmin)

	e.get(t, "/users/u7", cookie)
	require.Equal(t, "a@b.fr", e.snap.Users.Current.Data.Email)

	e.get(t, "/users", cookie)
	require.False(t, e.snap.Users.Current.Loaded)
	require.Empty(t, e.snap.Users.Current.Data.ID)
}

func TestNote(t *testing.T) {
	t.Parallel()

	e := newEnv(t, map[string]http.HandlerFunc{
		"GET /patients/p1":   jsonBody(patients[0]),
		"GET /notes/p1":      jsonBody(notes),
		"GET /evaluation/p1": func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("NONE")) },
	}, func(e *env, r internal.Router) {
		r.Route("/patients/{patientId}/notes", func(r internal.Router) {
			r.Use(provider.Patient)
			r.GET("/", e.capture, provider.Note)
			r.GET("/{noteId}", e.capture, provider.Note)
		})
	})
	cookie := e.signIn(t, model.RoleUser)

	e.get(t, "/patients/p1/notes/n2", cookie)
	require.True(t, e.snap.Notes.Current.Loaded)
	require.Equal(t, "Poids", e.snap.Notes.Current.Data.Note)

	e.get(t, "/patients/p1/notes/missing", cookie)
	require.True(t, e.snap.Notes.Current.Loaded, "an unknown note is an empty loaded template")
	require.Empty(t, e.snap.Notes.Current.Data.ID)

	e.get(t, "/patients/p1/notes/", cookie)
	require.False(t, e.snap.Notes.Current.Loaded)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	e := newEnv(t, map[string]http.HandlerFunc{
		"GET /user/profile": jsonBody(profile),
		"GET /patients":     jsonBody(patients),
	}, func(e *env, r internal.Router) {
		r.GET("/profile", e.capture, provider.ConnectedUser)
		r.GET("/login", func(c internal.Context) error {
			if err := e.capture(c); err != nil {
				return err
			}
			return nil
		}, provider.Login)
	})
	cookie := e.signIn(t, model.RoleUser)

	e.get(t, "/profile", cookie)
	require.True(t, e.snap.Profile.Loaded)

	e.get(t, "/login", cookie)
	require.Equal(t, state.Initial(), e.snap)

	sess, err := e.sessions.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	_, ok := sess.Get("token")
	require.False(t, ok, "the credential is cleared")
}
