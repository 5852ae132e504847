package ruleset

import "os"

// DefaultShellPath is the shell interpreter used when neither the rule set
// nor the environment names one.
const DefaultShellPath = "/bin/sh"

// Options holds the tunable settings of a rule-set fragment. All fields are
// pointers so that an unset field falls through to a farther fragment during
// merging.
type Options struct {
	Shell               *string `yaml:"shell,omitempty"`
	Verbose             *bool   `yaml:"verbose,omitempty"`
	Debug               *bool   `yaml:"debug,omitempty"`
	Timeout             *int    `yaml:"timeout,omitempty"`
	ConfirmAfterTimeout *int    `yaml:"confirm_after_timeout,omitempty"`
	Last                *bool   `yaml:"last,omitempty"`
}

// Merge overlays other onto o: fields set in other win, unset fields keep
// o's value.
func (o Options) Merge(other Options) Options {
	if other.Shell != nil {
		o.Shell = other.Shell
	}
	if other.Verbose != nil {
		o.Verbose = other.Verbose
	}
	if other.Debug != nil {
		o.Debug = other.Debug
	}
	if other.Timeout != nil {
		o.Timeout = other.Timeout
	}
	if other.ConfirmAfterTimeout != nil {
		o.ConfirmAfterTimeout = other.ConfirmAfterTimeout
	}
	if other.Last != nil {
		o.Last = other.Last
	}

	return o
}

// ShellPath returns the shell interpreter to use for shell-mode commands,
// falling back to $SHELL and then [DefaultShellPath].
func (o Options) ShellPath() string {
	if o.Shell != nil && *o.Shell != "" {
		return *o.Shell
	}

	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}

	return DefaultShellPath
}

// IsVerbose reports whether verbose output was requested.
func (o Options) IsVerbose() bool {
	return o.Verbose != nil && *o.Verbose
}

// IsDebug reports whether debug output was requested.
func (o Options) IsDebug() bool {
	return o.Debug != nil && *o.Debug
}

// TimeoutSeconds returns the default command timeout in seconds, or zero
// when commands may run unbounded.
func (o Options) TimeoutSeconds() int {
	if o.Timeout == nil {
		return 0
	}

	return *o.Timeout
}

// ConfirmAfterSeconds returns how long a command may run before suspending
// for confirmation, in seconds, or zero when the checkpoint is disabled.
func (o Options) ConfirmAfterSeconds() int {
	if o.ConfirmAfterTimeout == nil {
		return 0
	}

	return *o.ConfirmAfterTimeout
}

// IsLast reports whether this fragment discards all farther fragments.
func (o Options) IsLast() bool {
	return o.Last != nil && *o.Last
}
