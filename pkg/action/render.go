package action

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/alessio/shellescape"
	"github.com/mattn/go-shellwords"

	"github.com/jamescherti/pathaction/pkg/execs"
	"github.com/jamescherti/pathaction/pkg/rule"
	"github.com/jamescherti/pathaction/pkg/ruleset"
	"github.com/jamescherti/pathaction/pkg/tmpl"
)

// RenderedRule is a rule after template substitution: the commands to run
// in order plus the execution settings shared by all of them.
type RenderedRule struct {
	Commands   []execs.RenderedCommand
	Dir        string
	StdoutPath string
	StderrPath string
	Timeout    time.Duration
}

// Render substitutes the execution context into a rule. The rule's `cwd` is
// rendered once per invocation, against the pre-override invocation
// directory; a relative result resolves against the rule-set file's
// directory. Any template failure aborts the rule before a single command
// runs.
func Render(
	r *rule.Rule,
	ec *ExecutionContext,
	opts ruleset.Options,
	vars map[string]any,
) (*RenderedRule, error) {
	ctx := tmpl.New(ec.File(), ec.Cwd(), ec.Environ(), vars)

	rr := &RenderedRule{}

	err := renderSettings(rr, r, ec, opts, ctx)
	if err != nil {
		return nil, err
	}

	shell := r.Shell != nil && *r.Shell

	for _, spec := range r.Commands() {
		cmd, err := renderCommand(spec, shell, ctx)
		if err != nil {
			return nil, err
		}

		rr.Commands = append(rr.Commands, cmd)
	}

	return rr, nil
}

func renderSettings(
	rr *RenderedRule,
	r *rule.Rule,
	ec *ExecutionContext,
	opts ruleset.Options,
	ctx *tmpl.Context,
) error {
	if r.Cwd != "" {
		cwd, err := ctx.Render(r.Cwd)
		if err != nil {
			return fmt.Errorf("cwd: %w", err)
		}

		if !filepath.IsAbs(cwd) {
			base := r.SourceDir()
			if base == "" {
				base = ec.Cwd()
			}

			cwd = filepath.Join(base, cwd)
		}

		rr.Dir = cwd
	}

	rr.Timeout = time.Duration(r.Timeout) * time.Second
	if r.Timeout == 0 {
		rr.Timeout = time.Duration(opts.TimeoutSeconds()) * time.Second
	}

	var err error

	rr.StdoutPath, err = renderRedirect(r.Stdout, rr.Dir, ec, ctx)
	if err != nil {
		return fmt.Errorf("stdout: %w", err)
	}

	rr.StderrPath, err = renderRedirect(r.Stderr, rr.Dir, ec, ctx)
	if err != nil {
		return fmt.Errorf("stderr: %w", err)
	}

	return nil
}

// renderRedirect renders a stdout/stderr redirect path. A relative result
// resolves against the effective working directory.
func renderRedirect(text, dir string, ec *ExecutionContext, ctx *tmpl.Context) (string, error) {
	if text == "" {
		return "", nil
	}

	path, err := ctx.Render(text)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(path) {
		return path, nil
	}

	if dir == "" {
		dir = ec.Cwd()
	}

	return filepath.Join(dir, path), nil
}

// renderCommand renders one command entry. A token list renders each token
// independently; in shell mode the tokens are joined shell-safely into one
// line, otherwise they form the argument vector. A single string renders as
// one line, then either stays opaque for the shell or is tokenized with
// shell-style quoting.
func renderCommand(spec rule.CommandSpec, shell bool, ctx *tmpl.Context) (execs.RenderedCommand, error) {
	if spec.IsList() {
		args := make([]string, 0, len(spec.Tokens))

		for _, token := range spec.Tokens {
			rendered, err := ctx.Render(token)
			if err != nil {
				return execs.RenderedCommand{}, err
			}

			args = append(args, rendered)
		}

		if len(args) == 0 {
			return execs.RenderedCommand{},
				fmt.Errorf("%w: empty token list", tmpl.ErrTemplate)
		}

		if shell {
			return execs.NewShellCommand(shellescape.QuoteCommand(args)), nil
		}

		return execs.NewArgsCommand(args...), nil
	}

	line, err := ctx.Render(spec.Line)
	if err != nil {
		return execs.RenderedCommand{}, err
	}

	if shell {
		return execs.NewShellCommand(line), nil
	}

	args, err := shellwords.Parse(line)
	if err != nil {
		return execs.RenderedCommand{}, fmt.Errorf("%w: tokenize %q: %w",
			tmpl.ErrTemplate, line, err)
	}

	if len(args) == 0 {
		return execs.RenderedCommand{},
			fmt.Errorf("%w: %q renders to an empty command", tmpl.ErrTemplate, spec.Line)
	}

	return execs.NewArgsCommand(args...), nil
}
