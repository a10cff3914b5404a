// Package cmdutil runs external commands and captures their output.
//
// Failures carry the full invocation record (argv, exit code, both output
// streams) so callers can persist them verbatim; a resolver run treats a
// failed install as data, not as a reason to stop.
package cmdutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Result holds the captured output of a completed command.
type Result struct {
	Stdout     string
	Stderr     string
	ReturnCode int
}

// CommandError reports a command that exited non-zero or could not start.
// A start failure (missing binary, cancelled context) uses ReturnCode -1.
type CommandError struct {
	Command string // argv joined with spaces, for display
	Message string // stderr summary or the underlying error
	Result
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed with exit code %d: %s", e.Command, e.ReturnCode, e.Message)
}

// Details returns the serializable payload recorded in resolver documents.
func (e *CommandError) Details() map[string]any {
	return map[string]any{
		"command":     e.Command,
		"return_code": e.ReturnCode,
		"stdout":      e.Stdout,
		"stderr":      e.Stderr,
		"message":     e.Message,
	}
}

// Runner executes commands with a fixed working directory and environment.
// The zero value runs commands in the current directory with the inherited
// environment and without logging.
type Runner struct {
	// Dir is the working directory for commands. Empty means inherit.
	Dir string
	// Env overrides the command environment when non-nil.
	Env []string
	// Logger receives debug lines for every invocation.
	Logger *log.Logger
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.New(io.Discard)
}

// Run executes the command and captures stdout and stderr. On a non-zero
// exit (or a start failure) it returns a *CommandError alongside whatever
// output was captured; the Result is never nil.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	argv := append([]string{name}, args...)
	r.logger().Debug("running command", "args", argv, "dir", r.Dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		ReturnCode: 0,
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ReturnCode = exitErr.ExitCode()
	} else {
		result.ReturnCode = -1
	}

	message := strings.TrimSpace(result.Stderr)
	if message == "" {
		message = err.Error()
	}
	// Cancellation beats whatever the killed process printed.
	if ctx.Err() != nil {
		message = ctx.Err().Error()
	}

	cmdErr := &CommandError{
		Command: strings.Join(argv, " "),
		Message: message,
		Result:  *result,
	}
	r.logger().Debug("command failed", "args", argv, "code", result.ReturnCode)
	return result, cmdErr
}

// RunJSON executes the command and decodes its stdout as JSON into v.
func (r *Runner) RunJSON(ctx context.Context, v any, name string, args ...string) error {
	result, err := r.Run(ctx, name, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(result.Stdout), v); err != nil {
		return fmt.Errorf("failed to decode JSON from command %q: %w", name, err)
	}
	return nil
}
