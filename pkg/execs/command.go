package execs

import (
	"strings"
	"time"

	"github.com/alessio/shellescape"
)

// RenderedCommand is one fully rendered, ready-to-run command. In shell
// mode Line is handed opaquely to the interpreter; otherwise Args is
// executed directly without a shell. The mode is carried explicitly so a
// shell line rendering to an empty string still runs as a shell no-op.
type RenderedCommand struct {
	Line  string
	Args  []string
	Shell bool
}

// NewShellCommand creates a shell-mode [RenderedCommand].
func NewShellCommand(line string) RenderedCommand {
	return RenderedCommand{Line: line, Shell: true}
}

// NewArgsCommand creates a direct-mode [RenderedCommand].
func NewArgsCommand(args ...string) RenderedCommand {
	return RenderedCommand{Args: args}
}

// IsShell reports whether the command runs through a shell interpreter.
func (c RenderedCommand) IsShell() bool {
	return c.Shell
}

func (c RenderedCommand) String() string {
	if c.IsShell() {
		return c.Line
	}

	return shellescape.QuoteCommand(c.Args)
}

// CommandResult records the outcome of one command.
type CommandResult struct {
	Command  RenderedCommand
	ExitCode int
	Duration time.Duration
	TimedOut bool
	Declined bool
}

// Failed reports whether the command counts as a failure: a non-zero exit,
// a timeout, or a declined confirmation.
func (r CommandResult) Failed() bool {
	return r.ExitCode != 0 || r.TimedOut || r.Declined
}

// Result is the outcome of a whole command list. Execution halts at the
// first failing command, so Commands may be shorter than the requested
// list.
type Result struct {
	Commands []CommandResult
	Success  bool
}

// FirstFailure returns the index of the first failed command, or -1 when
// every command succeeded.
func (r *Result) FirstFailure() int {
	for i, c := range r.Commands {
		if c.Failed() {
			return i
		}
	}

	return -1
}

// ExitCode returns the exit code of the first failing command, or zero on
// success. Timed-out and declined commands report their recorded code.
func (r *Result) ExitCode() int {
	i := r.FirstFailure()
	if i < 0 {
		return 0
	}

	return r.Commands[i].ExitCode
}

func (r *Result) String() string {
	parts := make([]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		parts = append(parts, c.Command.String())
	}

	return strings.Join(parts, " && ")
}
