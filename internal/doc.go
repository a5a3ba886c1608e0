// Package internal is the HTTP layer of the web front-end: a chi router
// behind a small handler/middleware model, server-side sessions, and the
// per-request wiring that hands each handler the Root Store of its browser
// session and an operation runner bound to it.
//
// Handlers implement [Handler] and receive a [Context]:
//
//	func (h *Patients) list(c internal.Context) error {
//	    st, err := c.Store()
//	    if err != nil {
//	        return err
//	    }
//	    return c.Render(http.StatusOK, h.pages.PatientList(st.Snapshot()))
//	}
//
// Every Context built for one request shares the same response writer,
// session and store, however many middleware layers wrap the handler. The
// session is saved once, right before the response header is written.
package internal
