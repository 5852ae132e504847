package execs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func commandAttrs(c RenderedCommand) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("command", c.String()),
		attribute.Bool("shell", c.IsShell()),
	}
}

var tracer = otel.Tracer("pathaction/pkg/execs")

// ErrCommandExecution is returned when a command fails: non-zero exit,
// timeout, or declined confirmation.
var ErrCommandExecution = errors.New("command execution failed")

// Confirmer asks the user whether a still-running command should be waited
// on further. Implementations block until a decision is made.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Runner executes command lists strictly sequentially.
type Runner struct {
	shellPath string
	confirmer Confirmer
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// RunnerOpt is a functional option for [NewRunner].
type RunnerOpt func(*Runner)

// WithConfirmer installs the confirmation prompt used when a command is
// still running at the `confirm_after_timeout` checkpoint. Without one, the
// checkpoint is skipped and only the hard timeout applies.
func WithConfirmer(c Confirmer) RunnerOpt {
	return func(r *Runner) {
		r.confirmer = c
	}
}

// WithStdin overrides the reader children inherit as standard input.
func WithStdin(in io.Reader) RunnerOpt {
	return func(r *Runner) {
		r.stdin = in
	}
}

// WithStdout overrides the writer children inherit as standard output.
func WithStdout(out io.Writer) RunnerOpt {
	return func(r *Runner) {
		r.stdout = out
	}
}

// WithStderr overrides the writer children inherit as standard error.
func WithStderr(out io.Writer) RunnerOpt {
	return func(r *Runner) {
		r.stderr = out
	}
}

// NewRunner creates a [Runner] that uses shellPath as the interpreter for
// shell-mode commands.
func NewRunner(shellPath string, opts ...RunnerOpt) *Runner {
	r := &Runner{
		shellPath: shellPath,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RunOptions bound one command-list execution.
type RunOptions struct {
	// Dir is the working directory for every command, or empty for the
	// invocation's current directory.
	Dir string

	// Timeout bounds each command individually; zero waits forever.
	Timeout time.Duration

	// ConfirmAfter suspends a command still running after this long for
	// confirmation. Keeping waiting re-arms both this checkpoint and the
	// timeout; declining kills the command. Zero disables the checkpoint.
	ConfirmAfter time.Duration

	// StdoutPath and StderrPath redirect child output to files. The same
	// path on both redirects to a single shared handle.
	StdoutPath string
	StderrPath string
}

// Run executes commands in order, halting at the first failure. The
// returned [Result] is always populated for the commands that ran; a
// failure additionally yields an error wrapping [ErrCommandExecution].
func (r *Runner) Run(ctx context.Context, commands []RenderedCommand, opts RunOptions) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	stdout, stderr, cleanup, err := r.openRedirects(opts)
	if err != nil {
		return &Result{}, err
	}
	defer cleanup()

	res := &Result{}

	for i, cmd := range commands {
		cr, err := r.runOne(ctx, cmd, opts, stdout, stderr)
		res.Commands = append(res.Commands, cr)

		if err != nil {
			return res, fmt.Errorf("command %d %q: %w", i, cmd.String(), err)
		}

		if cr.Failed() {
			return res, fmt.Errorf("%w: command %d %q: %s",
				ErrCommandExecution, i, cmd.String(), failureReason(cr))
		}
	}

	res.Success = true

	return res, nil
}

func failureReason(cr CommandResult) string {
	switch {
	case cr.Declined:
		return "confirmation declined"

	case cr.TimedOut:
		return "timed out"
	}

	return fmt.Sprintf("exit code %d", cr.ExitCode)
}

func (r *Runner) runOne(
	ctx context.Context,
	command RenderedCommand,
	opts RunOptions,
	stdout, stderr io.Writer,
) (CommandResult, error) {
	ctx, span := tracer.Start(ctx, "runOne",
		trace.WithAttributes(commandAttrs(command)...))
	defer span.End()

	cr := CommandResult{Command: command}

	var cmd *exec.Cmd
	if command.IsShell() {
		cmd = exec.Command(r.shellPath, "-c", command.Line) //nolint:gosec // G204: Running user-declared commands is the point.
	} else {
		if len(command.Args) == 0 {
			return cr, fmt.Errorf("%w: empty argument vector", ErrCommandExecution)
		}

		cmd = exec.Command(command.Args[0], command.Args[1:]...) //nolint:gosec // G204: Running user-declared commands is the point.
	}

	cmd.Dir = opts.Dir
	cmd.Stdin = r.stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()

	err := cmd.Start()
	if err != nil {
		return cr, fmt.Errorf("%w: start: %w", ErrCommandExecution, err)
	}

	slog.DebugContext(ctx, "command started",
		"command", command.String(), "pid", cmd.Process.Pid)

	done := make(chan error, 1)

	go func() {
		done <- cmd.Wait()
	}()

	err = r.wait(ctx, cmd, done, opts, &cr)
	cr.Duration = time.Since(start)

	if err != nil {
		return cr, err
	}

	slog.DebugContext(ctx, "command finished",
		"command", command.String(),
		"exit_code", cr.ExitCode,
		"duration", cr.Duration)

	return cr, nil
}

// wait blocks until the child exits, times out, or the invocation is
// cancelled. The confirmation checkpoint fires independently of the hard
// timeout; keeping waiting re-arms both windows, declining kills the child.
func (r *Runner) wait(
	ctx context.Context,
	cmd *exec.Cmd,
	done <-chan error,
	opts RunOptions,
	cr *CommandResult,
) error {
	var timeout, confirm <-chan time.Time

	var timeoutTimer, confirmTimer *time.Timer

	if opts.Timeout > 0 {
		timeoutTimer = time.NewTimer(opts.Timeout)
		defer timeoutTimer.Stop()

		timeout = timeoutTimer.C
	}

	if opts.ConfirmAfter > 0 && r.confirmer != nil {
		confirmTimer = time.NewTimer(opts.ConfirmAfter)
		defer confirmTimer.Stop()

		confirm = confirmTimer.C
	}

	for {
		select {
		case err := <-done:
			cr.ExitCode = exitCode(err)

			return nil

		case <-confirm:
			prompt := fmt.Sprintf("Command still running after %s. Keep waiting?",
				opts.ConfirmAfter)

			keep, err := r.confirmer.Confirm(ctx, prompt)
			if err == nil && keep {
				confirmTimer.Reset(opts.ConfirmAfter)

				if timeoutTimer != nil {
					timeoutTimer.Reset(opts.Timeout)
				}

				continue
			}

			kill(cmd, done)
			cr.Declined = true
			cr.ExitCode = -1

			return nil

		case <-timeout:
			kill(cmd, done)
			cr.TimedOut = true
			cr.ExitCode = -1

			return nil

		case <-ctx.Done():
			kill(cmd, done)
			cr.ExitCode = -1

			return fmt.Errorf("%w: %w", ErrCommandExecution, ctx.Err())
		}
	}
}

func kill(cmd *exec.Cmd, done <-chan error) {
	_ = cmd.Process.Kill()
	<-done
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}

// openRedirects resolves the stdout/stderr writers for one run. When both
// redirect paths are equal the file is opened once and shared.
func (r *Runner) openRedirects(opts RunOptions) (io.Writer, io.Writer, func(), error) {
	stdout := r.stdout
	stderr := r.stderr

	var files []*os.File

	cleanup := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	open := func(path string) (*os.File, error) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // G304: Redirect targets are user-declared.
		if err != nil {
			return nil, fmt.Errorf("open redirect %q: %w", path, err)
		}

		files = append(files, f)

		return f, nil
	}

	if opts.StdoutPath != "" {
		f, err := open(opts.StdoutPath)
		if err != nil {
			return nil, nil, cleanup, err
		}

		stdout = f
	}

	switch {
	case opts.StderrPath == "":

	case opts.StderrPath == opts.StdoutPath:
		stderr = stdout

	default:
		f, err := open(opts.StderrPath)
		if err != nil {
			return nil, nil, cleanup, err
		}

		stderr = f
	}

	return stdout, stderr, cleanup, nil
}
