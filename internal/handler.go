package internal

// Handler declares routes on a router.
//
// Example:
//
//	type Patients struct{ pages *views.Pages }
//
//	func (h *Patients) Routes(r internal.Router) {
//	    r.GET("/patients", h.list)
//	    r.POST("/patients/create", h.create)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands the request to the app's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc. Guards short-circuit by returning a
// redirect without calling next.
//
// Example:
//
//	func RequireAuth(next internal.HandlerFunc) internal.HandlerFunc {
//	    return func(c internal.Context) error {
//	        if !signedIn(c) {
//	            return c.Redirect(http.StatusSeeOther, "/login")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
