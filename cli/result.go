package cli

// Exit codes returned by commands.
const (
	ExitFailure      = 1
	ExitPrecondition = 2
)

// CommandError signals a command failure with a specific exit code.
// Commands return this after handling all output (printing errors/warnings to stderr).
// Main centralizes exit handling instead of commands calling os.Exit directly.
type CommandError struct {
	exitCode int
	err      error
}

// NewCommandError creates a new CommandError with the given exit code and
// underlying cause, which may be nil.
func NewCommandError(exitCode int, err error) *CommandError {
	return &CommandError{exitCode: exitCode, err: err}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "command failed"
}

// Unwrap returns the underlying cause.
func (e *CommandError) Unwrap() error {
	return e.err
}

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}
