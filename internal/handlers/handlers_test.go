package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/apiclient"
	"github.com/medilabo/webapp/internal/credential"
	"github.com/medilabo/webapp/internal/handlers"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/views"
	"github.com/medilabo/webapp/pkg/cache"
	"github.com/medilabo/webapp/pkg/cookie"
	"github.com/medilabo/webapp/pkg/session"
)

var (
	profile  = model.Profile{ID: "u1", FirstName: "Marie", LastName: "Curie", Email: "marie@medilabo.fr", Role: model.RoleUser}
	patient  = model.Patient{ID: "p1", FirstName: "Test", LastName: "Borderline", DateOfBirth: "1945-06-24", Gender: model.GenderFemale, DoctorID: "u1"}
	patients = []model.Patient{patient}
	notes    = []model.Note{{ID: "n1", PatientID: "p1", DateTime: "2024-02-01T10:00:00", Note: "Fumeur"}}
)

// browser keeps cookies between requests the way a user agent would.
type browser struct {
	t        *testing.T
	app      *internal.App
	sessions *session.CacheStore
	cookies  map[string]string

	mu   sync.Mutex
	hits []string
}

func newBrowser(t *testing.T, backend map[string]http.HandlerFunc) *browser {
	t.Helper()
	b := &browser{t: t, cookies: make(map[string]string)}

	mux := http.NewServeMux()
	for pattern, h := range backend {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.hits = append(b.hits, r.Method+" "+r.URL.RequestURI())
			b.mu.Unlock()
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
	b.sessions = session.NewCacheStore(sessCache)

	pages, err := views.New()
	require.NoError(t, err)
	jar, err := cookie.New(strings.Repeat("s", 32))
	require.NoError(t, err)

	b.app = internal.New(
		internal.WithSession(b.sessions),
		internal.WithStates(state.NewRegistry(storeCache, state.ErrorInterceptor)),
		internal.WithBackends(apiclient.New(apiclient.Endpoints{
			UserService:       srv.URL,
			NoteService:       srv.URL,
			EvaluationService: srv.URL,
		})),
		internal.WithFlash(jar),
		internal.WithHandlers(handlers.All(pages)...),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		internal.WithErrorHandler(handlers.ErrorHandler(pages)),
	)
	return b
}

func (b *browser) signIn(role model.Role) {
	b.t.Helper()
	sess := session.New("sess-"+string(role), "cookie-"+string(role), time.Now().Add(time.Hour))
	sess.Set("token", signToken(b.t, role))
	sess.Set("role", string(role))
	require.NoError(b.t, b.sessions.Create(context.Background(), sess))
	b.cookies["__sid"] = sess.Token
}

func (b *browser) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Accept", "text/html,application/xhtml+xml")
	r.Header.Set("Sec-Fetch-Dest", "document")
	if form != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return b.send(r)
}

// asset fetches target the way a browser loads an image or stylesheet.
func (b *browser) asset(target string) *httptest.ResponseRecorder {
	b.t.Helper()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.Header.Set("Accept", "image/avif,image/webp,*/*")
	r.Header.Set("Sec-Fetch-Dest", "image")
	return b.send(r)
}

func (b *browser) send(r *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for name, value := range b.cookies {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	b.app.Router().ServeHTTP(rec, r)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, target, nil)
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, target, form)
}

func (b *browser) count(request string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, h := range b.hits {
		if h == request {
			n++
		}
	}
	return n
}

func (b *browser) called(request string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.hits {
		if h == request {
			return true
		}
	}
	return false
}

func signToken(t *testing.T, role model.Role) string {
	t.Helper()
	claims := credential.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "marie@medilabo.fr",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func jsonBody(v any) http.HandlerFunc {
	return jsonStatus(http.StatusOK, v)
}

func jsonStatus(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func invalid(fields map[string]string) http.HandlerFunc {
	return jsonStatus(http.StatusBadRequest, model.APIError{
		Status:      http.StatusBadRequest,
		Kind:        "BAD_REQUEST",
		Message:     "Données invalides",
		FieldErrors: fields,
	})
}

func practitionerBackend() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /user/profile":     jsonBody(profile),
		"GET /patients":         jsonBody(patients),
		"GET /patients/{id}":    jsonBody(patient),
		"GET /notes/{id}":       jsonBody(notes),
		"GET /evaluation/{id}":  jsonBody(model.RiskBorderline),
		"POST /patients":        jsonStatus(http.StatusCreated, model.Patient{ID: "p9", FirstName: "Jean", LastName: "Neuf"}),
		"GET /admin/users/{id}": jsonBody(profile),
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("success rotates the session and opens the profile", func(t *testing.T) {
		t.Parallel()
		backend := practitionerBackend()
		var token string
		backend["POST /auth/login"] = func(w http.ResponseWriter, r *http.Request) {
			jsonBody(model.LoginResponse{Token: token})(w, r)
		}
		b := newBrowser(t, backend)
		token = signToken(t, model.RoleUser)

		rec := b.get("/login")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `action="/login"`)
		before := b.cookies["__sid"]
		require.NotEmpty(t, before)

		rec = b.post("/login", url.Values{"email": {"marie@medilabo.fr"}, "password": {"secret"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/profile", rec.Header().Get("Location"))
		assert.NotEqual(t, before, b.cookies["__sid"])

		rec = b.get("/profile")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Marie Curie")
		assert.Contains(t, body, "Mes patients")
		assert.Contains(t, body, "Se déconnecter")
	})

	t.Run("validation errors render inline", func(t *testing.T) {
		t.Parallel()
		backend := practitionerBackend()
		backend["POST /auth/login"] = invalid(map[string]string{"email": "Email invalide"})
		b := newBrowser(t, backend)

		rec := b.post("/login", url.Values{"email": {"nope"}, "password": {"x"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email invalide")
		assert.Contains(t, rec.Body.String(), `value="nope"`)
	})

	t.Run("new attempt after an escalated failure reaches the backend", func(t *testing.T) {
		t.Parallel()
		var accept atomic.Bool
		var token string
		backend := practitionerBackend()
		backend["POST /auth/login"] = func(w http.ResponseWriter, r *http.Request) {
			if !accept.Load() {
				jsonStatus(http.StatusUnauthorized, model.APIError{
					Status: http.StatusUnauthorized, Kind: "UNAUTHORIZED", Message: "Identifiants incorrects",
				})(w, r)
				return
			}
			jsonBody(model.LoginResponse{Token: token})(w, r)
		}
		b := newBrowser(t, backend)
		token = signToken(t, model.RoleUser)

		rec := b.post("/login", url.Values{"email": {"marie@medilabo.fr"}, "password": {"bad"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/error", rec.Header().Get("Location"))

		accept.Store(true)
		rec = b.post("/login", url.Values{"email": {"marie@medilabo.fr"}, "password": {"secret"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/profile", rec.Header().Get("Location"))
		assert.Equal(t, 2, b.count("POST /auth/login"))

		rec = b.get("/profile")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Marie Curie")
	})

	t.Run("escalated failure goes to the error page", func(t *testing.T) {
		t.Parallel()
		backend := practitionerBackend()
		backend["POST /auth/login"] = jsonStatus(http.StatusUnauthorized, model.APIError{
			Status: http.StatusUnauthorized, Kind: "UNAUTHORIZED", Message: "Identifiants incorrects",
		})
		b := newBrowser(t, backend)

		rec := b.post("/login", url.Values{"email": {"marie@medilabo.fr"}, "password": {"bad"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/error", rec.Header().Get("Location"))

		rec = b.get("/error")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Identifiants incorrects")
	})
}

func TestGuards(t *testing.T) {
	t.Parallel()

	t.Run("anonymous visitor is sent to login", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		rec := b.get("/patients")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("wrong role is forbidden and signed out", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		b.signIn(model.RoleAdmin)

		rec := b.get("/patients")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/error", rec.Header().Get("Location"))

		rec = b.get("/error")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "403 · FORBIDDEN")
		assert.Contains(t, rec.Body.String(), "/patients")

		rec = b.get("/profile")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("unknown page", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		rec := b.get("/nowhere")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/error", rec.Header().Get("Location"))

		rec = b.get("/error")
		assert.Contains(t, rec.Body.String(), "404 · NOT_FOUND")
		assert.Contains(t, rec.Body.String(), "/nowhere")
	})

	t.Run("missing assets keep the user signed in", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		b.signIn(model.RoleUser)

		rec := b.get("/patients")
		require.Equal(t, http.StatusOK, rec.Code)

		rec = b.asset("/favicon.ico")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))

		rec = b.get("/patients/p1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Test Borderline")
	})

	t.Run("HEAD is served like GET", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		b.signIn(model.RoleUser)

		rec := b.do(http.MethodHead, "/patients", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = b.get("/patients/p1")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong method leaves the session alone", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		b.signIn(model.RoleUser)

		rec := b.post("/patients", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		rec = b.get("/patients")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("backend failure during prefetch", func(t *testing.T) {
		t.Parallel()
		backend := practitionerBackend()
		backend["GET /patients/{id}"] = jsonStatus(http.StatusInternalServerError, model.APIError{
			Status: http.StatusInternalServerError, Kind: "INTERNAL_SERVER_ERROR", Message: "boom",
		})
		b := newBrowser(t, backend)
		b.signIn(model.RoleUser)

		rec := b.get("/patients/p1")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/error", rec.Header().Get("Location"))
	})
}

func TestPatients(t *testing.T) {
	t.Parallel()

	t.Run("list and detail", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		b.signIn(model.RoleUser)

		rec := b.get("/patients")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `href="/patients/p1"`)

		rec = b.get("/patients/p1")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Test Borderline")
		assert.Contains(t, body, "Risque borderline")
		assert.Contains(t, body, "le 01/02/2024 à 10:00")
		assert.True(t, b.called("GET /evaluation/p1"))
	})

	t.Run("create form is pre-filled with the practitioner", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		b.signIn(model.RoleUser)

		rec := b.get("/patients/create")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="doctorId" value="u1"`)
	})

	t.Run("create then flash", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, practitionerBackend())
		b.signIn(model.RoleUser)

		rec := b.post("/patients/create", url.Values{
			"firstName": {"Jean"}, "lastName": {"Neuf"}, "dateOfBirth": {"1990-01-01"},
			"gender": {"M"}, "email": {"jean@neuf.fr"}, "doctorId": {"u1"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/patients/p9", rec.Header().Get("Location"))
		require.Contains(t, b.cookies, "__flash")

		rec = b.get("/patients/p9")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Le patient a été créé")
		assert.NotContains(t, b.cookies, "__flash")
	})

	t.Run("create with invalid fields", func(t *testing.T) {
		t.Parallel()
		backend := practitionerBackend()
		backend["POST /patients"] = invalid(map[string]string{"lastName": "Nom obligatoire"})
		b := newBrowser(t, backend)
		b.signIn(model.RoleUser)

		rec := b.post("/patients/create", url.Values{"firstName": {"Jean"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Nom obligatoire")
		assert.Contains(t, rec.Body.String(), `value="Jean"`)
	})
}

func TestNotes(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, practitionerBackend())
	b.signIn(model.RoleUser)

	rec := b.get("/patients/p1/notes/n1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fumeur")

	rec = b.get("/patients/p1/notes/create")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="patientId" value="p1"`)

	rec = b.get("/patients/p1/notes")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/patients/p1", rec.Header().Get("Location"))

	rec = b.get("/patients/p1/notes/unknown")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/error", rec.Header().Get("Location"))
}

func TestUsers(t *testing.T) {
	t.Parallel()

	adminBackend := func() map[string]http.HandlerFunc {
		backend := practitionerBackend()
		backend["GET /admin/users/search"] = jsonBody([]model.User{profile})
		return backend
	}

	t.Run("search runs on submit", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, adminBackend())
		b.signIn(model.RoleAdmin)

		rec := b.get("/users")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Recherchez un utilisateur")
		assert.Zero(t, b.count("GET /admin/users/search?keyword="))

		rec = b.get("/users?keyword=cur")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `href="/users/u1"`)
		assert.Contains(t, rec.Body.String(), `value="cur"`)
		assert.True(t, b.called("GET /admin/users/search?keyword=cur"))
		assert.False(t, b.called("GET /patients"))

		rec = b.get("/users?keyword=")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, b.called("GET /admin/users/search?keyword="))
	})

	t.Run("detail", func(t *testing.T) {
		t.Parallel()
		b := newBrowser(t, adminBackend())
		b.signIn(model.RoleAdmin)

		rec := b.get("/users/u1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Marie Curie")
		assert.Contains(t, rec.Body.String(), `action="/users/u1/reset-password"`)
	})

	t.Run("create sends no password", func(t *testing.T) {
		t.Parallel()
		sent := make(chan map[string]any, 1)
		backend := adminBackend()
		backend["POST /admin/users"] = func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			sent <- body
			jsonStatus(http.StatusCreated, model.User{ID: "u7", FirstName: "Paul", LastName: "Neuf"})(w, r)
		}
		b := newBrowser(t, backend)
		b.signIn(model.RoleAdmin)

		rec := b.get("/users/create")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), `name="password"`)

		rec = b.post("/users/create", url.Values{
			"firstName": {"Paul"}, "lastName": {"Neuf"}, "email": {"paul@medilabo.fr"},
			"role": {"USER"}, "password": {"ignored"},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/users/u7", rec.Header().Get("Location"))

		body := <-sent
		assert.Equal(t, "paul@medilabo.fr", body["email"])
		assert.NotContains(t, body, "password")
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	b := newBrowser(t, practitionerBackend())
	b.signIn(model.RoleUser)

	rec := b.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = b.get("/profile")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}
