package chomp

import "errors"

var (
	// ErrBaseline means the reference run could not be captured; nothing was mutated.
	ErrBaseline = errors.New("baseline could not be established")

	// ErrPersist means a tracked file could not be written; the run stops.
	ErrPersist = errors.New("persist failed")

	// ErrLaunch means the verification command could not be started.
	ErrLaunch = errors.New("command could not be launched")

	// ErrUndetermined means the command ran but its result is unusable
	// (killed by timeout or cancellation, or output over the capture limit).
	ErrUndetermined = errors.New("command result undetermined")
)
