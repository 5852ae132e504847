package action

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jamescherti/pathaction/pkg/execs"
	"github.com/jamescherti/pathaction/pkg/log"
	"github.com/jamescherti/pathaction/pkg/rule"
	"github.com/jamescherti/pathaction/pkg/ruleset"
)

var tracer = otel.Tracer("pathaction/pkg/action")

// Dispatcher is the invocation pipeline: load the rule set for a target,
// resolve the first matching rule, render it, and run its commands.
type Dispatcher struct {
	loader    *ruleset.Loader
	confirmer execs.Confirmer
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

// DispatcherOpt is a functional option for [NewDispatcher].
type DispatcherOpt func(*Dispatcher)

// WithConfirmer installs the prompt used for `confirm_after_timeout`.
func WithConfirmer(c execs.Confirmer) DispatcherOpt {
	return func(d *Dispatcher) {
		d.confirmer = c
	}
}

// WithStdio overrides the streams child processes inherit. Nil values keep
// the process defaults.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) DispatcherOpt {
	return func(d *Dispatcher) {
		d.stdin = stdin
		d.stdout = stdout
		d.stderr = stderr
	}
}

// NewDispatcher creates a [Dispatcher] over the given loader.
func NewDispatcher(loader *ruleset.Loader, opts ...DispatcherOpt) *Dispatcher {
	d := &Dispatcher{loader: loader}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Resolve loads the rule set for the context's target and returns the first
// rule matching its path and tag. [ruleset.ErrNoRuleMatched] reports the
// normal no-match outcome.
func (d *Dispatcher) Resolve(ctx context.Context, ec *ExecutionContext) (*ruleset.RuleSet, *rule.Rule, error) {
	ctx, span := tracer.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.String("file", ec.File()),
			attribute.String("tag", ec.Tag()),
		))
	defer span.End()

	rs, err := d.loader.Load(ec.File())
	if err != nil {
		return nil, nil, err
	}

	log.WithContext(ctx).Debug("rule set loaded",
		"rules", rs.Len(), "sources", rs.Sources())

	r, err := rs.Resolve(ec.File(), ec.Tag())
	if err != nil {
		return rs, nil, err
	}

	log.WithContext(ctx).Debug("rule resolved", "rule", r.String(), "source", r.Source())

	return rs, r, nil
}

// Execute renders the rule and runs its commands sequentially, halting at
// the first failure.
func (d *Dispatcher) Execute(
	ctx context.Context,
	rs *ruleset.RuleSet,
	r *rule.Rule,
	ec *ExecutionContext,
) (*execs.Result, error) {
	ctx, span := tracer.Start(ctx, "Execute")
	defer span.End()

	rendered, err := Render(r, ec, rs.Options(), rs.Vars())
	if err != nil {
		return nil, err
	}

	runnerOpts := []execs.RunnerOpt{}
	if d.confirmer != nil {
		runnerOpts = append(runnerOpts, execs.WithConfirmer(d.confirmer))
	}

	if d.stdin != nil {
		runnerOpts = append(runnerOpts, execs.WithStdin(d.stdin))
	}

	if d.stdout != nil {
		runnerOpts = append(runnerOpts, execs.WithStdout(d.stdout))
	}

	if d.stderr != nil {
		runnerOpts = append(runnerOpts, execs.WithStderr(d.stderr))
	}

	runner := execs.NewRunner(rs.Options().ShellPath(), runnerOpts...)

	return runner.Run(ctx, rendered.Commands, execs.RunOptions{
		Dir:          rendered.Dir,
		Timeout:      rendered.Timeout,
		ConfirmAfter: time.Duration(rs.Options().ConfirmAfterSeconds()) * time.Second,
		StdoutPath:   rendered.StdoutPath,
		StderrPath:   rendered.StderrPath,
	})
}

// Run is the full pipeline for one invocation: resolve then execute.
func (d *Dispatcher) Run(ctx context.Context, ec *ExecutionContext) (*execs.Result, error) {
	rs, r, err := d.Resolve(ctx, ec)
	if err != nil {
		return nil, err
	}

	return d.Execute(ctx, rs, r, ec)
}
