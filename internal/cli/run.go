package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jamescherti/pathaction/pkg/action"
	"github.com/jamescherti/pathaction/pkg/execs"
	"github.com/jamescherti/pathaction/pkg/policy"
	"github.com/jamescherti/pathaction/pkg/rule"
	"github.com/jamescherti/pathaction/pkg/ruleset"
)

const cmdExamples = `  # Run the default ("main") action for a file:
  pathaction ./script.py

  # Run the action tagged "install":
  pathaction -t install ./script.py

  # List every rule consulted for a file, in resolution order:
  pathaction --list ./script.py

  # Permanently allow a directory to provide rule-set files:
  pathaction -d ~/src/project ./src/project/script.py

  # Re-run the action whenever the file changes:
  pathaction --watch ./notes.md`

type RunArgs struct {
	*RootArgs

	Path          string
	Tag           string
	PolicyPath    string
	AllowDirs     []string
	List          bool
	ConfirmBefore bool
	Watch         bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ra.Tag, "tag", "t", rule.DefaultTag, "Tag selecting which action to run")
	cmd.Flags().StringVar(&ra.PolicyPath, "permissions", "", "Path to the directory permissions file")
	cmd.Flags().StringArrayVarP(&ra.AllowDirs, "allow-dir", "d", nil,
		"Permanently allow a directory to provide rule-set files (repeatable)")
	cmd.Flags().BoolVarP(&ra.List, "list", "l", false, "List the rules consulted for FILE and exit")
	cmd.Flags().BoolVarP(&ra.ConfirmBefore, "confirm-before", "b", false,
		"Ask for confirmation before running the resolved action")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Re-run the action whenever FILE changes")

	err := cmd.MarkFlagFilename("permissions", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark permissions flag: %w", err))
	}
}

// ExitCodeError carries the process exit code for a failed invocation: the
// first failing command's own exit code, or 1 for engine failures.
type ExitCodeError struct {
	Err  error
	Code int
}

func (e *ExitCodeError) Error() string {
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

func run(cmd *cobra.Command, ra *RunArgs) error {
	ctx := cmd.Context()

	policyPath := ra.PolicyPath
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}

	pol, err := policy.Load(policyPath)
	if err != nil {
		return fmt.Errorf("load permissions: %w", err)
	}

	for _, dir := range ra.AllowDirs {
		err = pol.Allow(dir, true)
		if err != nil {
			return fmt.Errorf("allow directory: %w", err)
		}
	}

	if len(ra.AllowDirs) > 0 {
		err = pol.Save(policyPath)
		if err != nil {
			return fmt.Errorf("save permissions: %w", err)
		}

		slog.InfoContext(ctx, "permissions updated",
			"path", policyPath, "dirs", ra.AllowDirs)
	}

	prompter := NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	ec, err := action.NewExecutionContext(ra.Path, ra.Tag)
	if err != nil {
		return err
	}

	loader := ruleset.NewLoader(pol)

	rs, err := loadAuthorizing(ctx, loader, pol, policyPath, prompter, ec.File())
	if err != nil {
		return err
	}

	if ra.List {
		return listRules(cmd, rs)
	}

	r, err := rs.Resolve(ec.File(), ec.Tag())
	if err != nil {
		if errors.Is(err, ruleset.ErrNoRuleMatched) {
			return &ExitCodeError{Err: err, Code: 1}
		}

		return err
	}

	if ra.ConfirmBefore {
		ok, err := prompter.Confirm(ctx, fmt.Sprintf("Run %s?", r.String()))
		if err != nil {
			return fmt.Errorf("confirm before run: %w", err)
		}

		if !ok {
			slog.InfoContext(ctx, "aborted by user", "rule", r.String())

			return nil
		}
	}

	dispatcherOpts := []action.DispatcherOpt{
		action.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
	if prompter.Interactive() {
		dispatcherOpts = append(dispatcherOpts, action.WithConfirmer(prompter))
	}

	d := action.NewDispatcher(loader, dispatcherOpts...)

	if ra.Watch {
		return watch(ctx, ec.File(), func() error {
			return executeOnce(ctx, d, rs, r, ec)
		})
	}

	return executeOnce(ctx, d, rs, r, ec)
}

// loadAuthorizing loads the rule set, prompting for authorization and
// retrying when a directory is denied. Non-interactive denials fail the
// load outright.
func loadAuthorizing(
	ctx context.Context,
	loader *ruleset.Loader,
	pol *policy.Policy,
	policyPath string,
	prompter *Prompter,
	target string,
) (*ruleset.RuleSet, error) {
	for {
		rs, err := loader.Load(target)
		if err == nil {
			return rs, nil
		}

		var denied *ruleset.DirNotAllowedError
		if !errors.As(err, &denied) {
			return nil, err
		}

		decision, perr := prompter.Authorize(ctx, denied.Dir)
		if perr != nil || decision == AuthDeny {
			return nil, err
		}

		aerr := pol.Allow(denied.Dir, decision == AuthAlways)
		if aerr != nil {
			return nil, aerr
		}

		if decision == AuthAlways {
			aerr = pol.Save(policyPath)
			if aerr != nil {
				return nil, aerr
			}
		}
	}
}

func listRules(cmd *cobra.Command, rs *ruleset.RuleSet) error {
	if rs.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no rules found")

		return nil
	}

	for _, r := range rs.Rules() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Source(), r.String())
	}

	return nil
}

func executeOnce(
	ctx context.Context,
	d *action.Dispatcher,
	rs *ruleset.RuleSet,
	r *rule.Rule,
	ec *action.ExecutionContext,
) error {
	res, err := d.Execute(ctx, rs, r, ec)
	if err == nil {
		return nil
	}

	if res != nil && errors.Is(err, execs.ErrCommandExecution) {
		code := res.ExitCode()
		if code <= 0 {
			code = 1
		}

		return &ExitCodeError{Err: err, Code: code}
	}

	return err
}
