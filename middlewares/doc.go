// Package middlewares holds the request pipeline of the front-end: panic
// recovery, request ids, and the navigation guards.
//
// The guards run in this order on every protected route:
//
//	RequireAuth       -> /login when the stored token is missing or expired
//	provider.*        -> prefetch slices, wait for them to settle
//	RequireRole(...)  -> record a 403 and go to /error on a role mismatch
//	ErrorWatcher      -> go to /error whenever the error slice escalated
//
// Recover turns a panic into a *PanicError for the app's ErrorHandler.
package middlewares
