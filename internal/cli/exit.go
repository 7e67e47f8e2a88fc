package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	ducterr "github.com/matzehuels/ductrouter/pkg/errors"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1   // routing or I/O failure
	ExitInvalid     = 2   // bad scenario, flags or bounds
	ExitNotFound    = 3   // missing run or file
	ExitInterrupted = 130 // SIGINT, as shells expect
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch ducterr.GetCode(err) {
	case ducterr.ErrCodeInvalidInput, ducterr.ErrCodeInvalidScenario, ducterr.ErrCodeInvalidFormat,
		ducterr.ErrCodeInvalidPath, ducterr.ErrCodeInvalidBounds:
		return ExitInvalid
	case ducterr.ErrCodeRunNotFound, ducterr.ErrCodeFileNotFound:
		return ExitNotFound
	}
	return ExitFailure
}

// Report writes err to w, unless the run was interrupted, and returns the
// exit status for it.
func Report(w io.Writer, err error) int {
	code := ExitCode(err)
	if code != ExitOK && code != ExitInterrupted {
		fmt.Fprintln(w, StyleError.Render("error:"), err)
	}
	return code
}
