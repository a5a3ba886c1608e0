package handlers

import (
	"net/http"
	"strings"

	"github.com/medilabo/webapp/internal"
	"github.com/medilabo/webapp/internal/model"
	"github.com/medilabo/webapp/internal/state"
	"github.com/medilabo/webapp/internal/urls"
	"github.com/medilabo/webapp/internal/views"
	"github.com/medilabo/webapp/middlewares"
)

// Errors serves the error page. Reaching it signs the user out.
type Errors struct {
	pages *views.Pages
}

func (h *Errors) Routes(r internal.Router) {
	r.GET(urls.Error, h.show)
}

func (h *Errors) show(c internal.Context) error {
	st, err := c.Store()
	if err != nil {
		return err
	}
	if err := c.Credentials().Clear(c); err != nil {
		return err
	}
	st.Dispatch(state.AuthLogout())

	s := st.Snapshot()
	return render(c, h.pages.Error(layout(c, s), views.ErrorPage{Error: s.Error}))
}

// NotFound records a 404 for the requested path and sends the browser to
// the error page. Requests that are not page loads get a bare 404 and leave
// the session alone.
func NotFound(c internal.Context) error {
	if !navigation(c.Request()) {
		return c.String(http.StatusNotFound, http.StatusText(http.StatusNotFound))
	}
	st, err := c.Store()
	if err != nil {
		return err
	}
	st.Dispatch(state.ErrorSet(model.NotFound(c.Request().URL.Path, c.Now())))
	return c.Redirect(http.StatusSeeOther, urls.Error)
}

// MethodNotAllowed answers 405 without touching the session.
func MethodNotAllowed(c internal.Context) error {
	return c.String(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

// navigation reports whether r loads a page in the browser window, as
// opposed to an asset or a script fetch.
func navigation(r *http.Request) bool {
	if dest := r.Header.Get("Sec-Fetch-Dest"); dest != "" {
		return dest == "document"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// ErrorHandler renders errors returned by handlers, which never come from a
// backend: those are recorded in the store.
func ErrorHandler(pages *views.Pages) internal.ErrorHandler {
	return func(c internal.Context, err error) error {
		code := http.StatusInternalServerError
		message := "Une erreur est survenue"
		if herr, ok := internal.AsHTTPError(err); ok {
			code = herr.StatusCode()
			if herr.Message != "" {
				message = herr.Message
			}
		}

		attrs := []any{"error", err, "status", code}
		if perr, ok := middlewares.AsPanicError(err); ok {
			attrs = append(attrs, "panic", perr.Value)
		}
		if code >= http.StatusInternalServerError {
			c.Logger().ErrorContext(c, "request failed", attrs...)
		} else {
			c.Logger().WarnContext(c, "request rejected", attrs...)
		}

		payload := model.APIError{
			Status:    code,
			Kind:      http.StatusText(code),
			Message:   message,
			Path:      c.Request().URL.Path,
			Timestamp: model.Timestamp(c.Now()),
		}
		return c.Render(code, pages.Error(views.Layout{Path: c.Request().URL.Path}, views.ErrorPage{Error: payload}))
	}
}
