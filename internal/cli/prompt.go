package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when a prompt is needed but standard input
// is not a terminal.
var ErrNotInteractive = errors.New("standard input is not interactive")

// AuthDecision is the outcome of a directory authorization prompt.
type AuthDecision int

const (
	AuthDeny AuthDecision = iota
	AuthOnce
	AuthAlways
)

// Prompter runs the interactive prompts: directory authorization,
// run confirmation, and the keep-waiting checkpoint after a timeout.
type Prompter struct {
	in  io.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out}
}

// Interactive reports whether prompts can be shown at all.
func (p *Prompter) Interactive() bool {
	f, ok := p.in.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// Confirm asks a yes/no question and blocks until answered.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if !p.Interactive() {
		return false, ErrNotInteractive
	}

	var ok bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Value(&ok),
		),
	).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("run confirm prompt: %w", err)
	}

	return ok, nil
}

// Authorize asks whether dir may provide rule-set files.
func (p *Prompter) Authorize(ctx context.Context, dir string) (AuthDecision, error) {
	if !p.Interactive() {
		return AuthDeny, ErrNotInteractive
	}

	var decision AuthDecision

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Rule-Set Directory Found").
				Description(fmt.Sprintf(
					"The directory:\n%s\n\n"+
						"contains a rule-set file that declares commands to run on your files.\n"+
						"Do you allow it?",
					dir,
				)),

			huh.NewSelect[AuthDecision]().
				Options(
					huh.NewOption("Allow permanently (saved to the permissions file)", AuthAlways),
					huh.NewOption("Allow for this invocation only", AuthOnce),
					huh.NewOption("Deny", AuthDeny),
				).
				Value(&decision),
		),
	).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	if err != nil {
		return AuthDeny, fmt.Errorf("run authorization prompt: %w", err)
	}

	return decision, nil
}
