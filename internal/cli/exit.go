// Package cli maps run-function errors to process exit codes for the
// preflight binaries.
package cli

import (
	"errors"
	"fmt"
	"os"
)

// StatusError carries a process exit code plus user-facing error text.
type StatusError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (statusErr *StatusError) Error() string {
	if statusErr.Err == nil {
		return "exit status " + fmt.Sprint(statusErr.Code)
	}
	return statusErr.Err.Error()
}

// Unwrap exposes the underlying error for errors.Is/As.
func (statusErr *StatusError) Unwrap() error {
	return statusErr.Err
}

// Failf wraps a formatted error with a specific process exit code.
func Failf(code int, format string, args ...any) error {
	return &StatusError{
		Code: code,
		Err:  fmt.Errorf(format, args...),
	}
}

// Exit prints err on stderr and terminates the process. A StatusError picks
// its own exit code; any other error exits 2.
func Exit(err error) {
	if err == nil {
		os.Exit(0)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		// A StatusError without text means the diagnostics were already
		// printed; only the exit code is left to deliver.
		if statusErr.Err != nil {
			fmt.Fprintln(os.Stderr, "ERROR:", statusErr.Err)
		}
		os.Exit(statusErr.Code)
	}
	fmt.Fprintln(os.Stderr, "ERROR:", err)
	os.Exit(2)
}
