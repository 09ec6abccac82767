package workflow

import "errors"

// ErrNoAdapters is returned by Select when no adapter is registered.
var ErrNoAdapters = errors.New("workflow: no adapters registered")

// ErrNoMatch is returned by Select when every registered adapter scores
// the task at or below zero.
var ErrNoMatch = errors.New("workflow: no adapter matched the task")
