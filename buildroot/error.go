package buildroot

import (
	"errors"
	"fmt"
)

// ErrLocked reports that another process holds the buildroot lock. It is a
// control flow signal rather than a failure: the holder owns the operation
// and the caller decides whether to join, retry or give up.
var ErrLocked = errors.New("buildroot is locked by another process")

// RootError is a fatal precondition failure inside the sandbox root that
// aborts initialization.
type RootError struct {
	Msg string
	Err error
}

func (e *RootError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("buildroot: %s: %v", e.Msg, e.Err)
	}
	return "buildroot: " + e.Msg
}

func (e *RootError) Unwrap() error { return e.Err }

// ResultDirError reports a result directory that could not be created under
// the unprivileged identity.
type ResultDirError struct {
	Path string
	Err  error
}

func (e *ResultDirError) Error() string {
	return fmt.Sprintf("result directory %s is not accessible: %v", e.Path, e.Err)
}

func (e *ResultDirError) Unwrap() error { return e.Err }
