package job

import "errors"

var (
	// ErrInvalidSchedule is returned by Every for an expression cron cannot
	// parse.
	ErrInvalidSchedule = errors.New("job: invalid schedule")

	// ErrAlreadyStarted is returned by Start on a running scheduler.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned by Stop before Start.
	ErrNotStarted = errors.New("job: not started")
)
