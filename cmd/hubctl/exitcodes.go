package main

import "fmt"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitPartial = 4
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func failure(err error) error {
	return &exitError{code: exitFailure, err: err}
}
