package main

import "fmt"

const (
	exitExecutionFailed  = 1
	exitValidationFailed = 2
	exitSetupFailed      = 3
)

// exitError carries a process exit code through cobra's error return so
// main can map command outcomes onto distinct codes.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
