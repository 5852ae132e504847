package rule

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultTag is assigned to rules that declare no tags, and is the tag
// requested when the caller asks for none.
const DefaultTag = "main"

var (
	// ErrNoCommand is returned when a rule defines neither `command` nor
	// `list_commands`.
	ErrNoCommand = errors.New("rule defines no command")

	// ErrAmbiguousCommand is returned when a rule defines both `command` and
	// `list_commands`.
	ErrAmbiguousCommand = errors.New("command and list_commands are mutually exclusive")

	// ErrNoIncludePattern is returned when a rule has no include pattern in
	// any matching family. Such a rule could never match a path.
	ErrNoIncludePattern = errors.New("rule defines no include pattern")
)

// Rule is one action entry from a rule-set file. Pattern fields accept a
// scalar or a list; both normalize to [StringList]. A path matches the rule
// when at least one family's include patterns hit it and that family's
// excludes do not.
type Rule struct {
	PathMatch            StringList `yaml:"path_match,omitempty"`
	PathMatchExclude     StringList `yaml:"path_match_exclude,omitempty"`
	PathRegex            StringList `yaml:"path_regex,omitempty"`
	PathRegexExclude     StringList `yaml:"path_regex_exclude,omitempty"`
	PathRegexCase        StringList `yaml:"path_regex_case,omitempty"`
	PathRegexCaseExclude StringList `yaml:"path_regex_case_exclude,omitempty"`
	MimeType             StringList `yaml:"mimetype,omitempty"`
	MimeTypeExclude      StringList `yaml:"mimetype_exclude,omitempty"`
	MimeTypeMatch        StringList `yaml:"mimetype_match,omitempty"`
	MimeTypeMatchExclude StringList `yaml:"mimetype_match_exclude,omitempty"`
	MimeTypeRegex        StringList `yaml:"mimetype_regex,omitempty"`
	MimeTypeRegexExclude StringList `yaml:"mimetype_regex_exclude,omitempty"`

	Tags         StringList    `yaml:"tags,omitempty"`
	Shell        *bool         `yaml:"shell,omitempty"`
	Cwd          string        `yaml:"cwd,omitempty"`
	Timeout      int           `yaml:"timeout,omitempty"`
	Comment      string        `yaml:"comment,omitempty"`
	Command      *CommandSpec  `yaml:"command,omitempty"`
	ListCommands []CommandSpec `yaml:"list_commands,omitempty"`
	Stdout       string        `yaml:"stdout,omitempty"`
	Stderr       string        `yaml:"stderr,omitempty"`

	source   string
	families []*Family
}

// RuleOpt is a functional option for building a [Rule] programmatically.
type RuleOpt func(*Rule)

// New creates a rule with the given command line and options, and builds it.
func New(command string, opts ...RuleOpt) (*Rule, error) {
	spec := NewCommand(command)
	r := &Rule{Command: &spec}
	for _, opt := range opts {
		opt(r)
	}

	err := r.Build("")
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", command, err)
	}

	return r, nil
}

// MustNew creates a new rule and panics if there's an error.
func MustNew(command string, opts ...RuleOpt) *Rule {
	r, err := New(command, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

// WithPathMatch sets glob include patterns.
func WithPathMatch(patterns ...string) RuleOpt {
	return func(r *Rule) {
		r.PathMatch = patterns
	}
}

// WithPathMatchExclude sets glob exclude patterns.
func WithPathMatchExclude(patterns ...string) RuleOpt {
	return func(r *Rule) {
		r.PathMatchExclude = patterns
	}
}

// WithPathRegex sets regex include patterns.
func WithPathRegex(patterns ...string) RuleOpt {
	return func(r *Rule) {
		r.PathRegex = patterns
	}
}

// WithPathRegexExclude sets regex exclude patterns.
func WithPathRegexExclude(patterns ...string) RuleOpt {
	return func(r *Rule) {
		r.PathRegexExclude = patterns
	}
}

// WithTags sets the rule's tags.
func WithTags(tags ...string) RuleOpt {
	return func(r *Rule) {
		r.Tags = tags
	}
}

// WithShell sets the rule's shell flag.
func WithShell(shell bool) RuleOpt {
	return func(r *Rule) {
		r.Shell = &shell
	}
}

// WithCwd sets the rule's working directory template.
func WithCwd(cwd string) RuleOpt {
	return func(r *Rule) {
		r.Cwd = cwd
	}
}

// WithTimeout sets the rule's timeout in seconds.
func WithTimeout(seconds int) RuleOpt {
	return func(r *Rule) {
		r.Timeout = seconds
	}
}

// WithListCommands replaces the single command with an ordered command list.
func WithListCommands(specs ...CommandSpec) RuleOpt {
	return func(r *Rule) {
		r.Command = nil
		r.ListCommands = specs
	}
}

// Build validates the rule invariants and compiles all pattern families.
// The source argument is the path of the rule-set file that declared the
// rule; it anchors relative `cwd` overrides.
func (r *Rule) Build(source string) error {
	r.source = source

	if len(r.Tags) == 0 {
		r.Tags = StringList{DefaultTag}
	}

	if r.Command != nil && len(r.ListCommands) > 0 {
		return ErrAmbiguousCommand
	}
	if r.Command == nil && len(r.ListCommands) == 0 {
		return ErrNoCommand
	}

	specs := []struct {
		include StringList
		exclude StringList
		kind    Kind
		media   bool
	}{
		{kind: KindGlob, include: r.PathMatch, exclude: r.PathMatchExclude},
		{kind: KindRegex, include: r.PathRegex, exclude: r.PathRegexExclude},
		{kind: KindRegexCase, include: r.PathRegexCase, exclude: r.PathRegexCaseExclude},
		{media: true, kind: KindExact, include: r.MimeType, exclude: r.MimeTypeExclude},
		{media: true, kind: KindGlob, include: r.MimeTypeMatch, exclude: r.MimeTypeMatchExclude},
		{media: true, kind: KindRegex, include: r.MimeTypeRegex, exclude: r.MimeTypeRegexExclude},
	}

	r.families = r.families[:0]
	hasInclude := false

	for _, s := range specs {
		if len(s.include) == 0 && len(s.exclude) == 0 {
			continue
		}

		var (
			f   *Family
			err error
		)

		if s.media {
			f, err = NewMediaFamily(s.kind, s.include, s.exclude)
		} else {
			f, err = NewFamily(s.kind, s.include, s.exclude)
		}
		if err != nil {
			return err
		}

		if f.HasIncludes() {
			hasInclude = true
		}

		r.families = append(r.families, f)
	}

	if !hasInclude {
		return ErrNoIncludePattern
	}

	return nil
}

// Matches reports whether the absolute path satisfies at least one of the
// rule's pattern families.
func (r *Rule) Matches(path string) bool {
	for _, f := range r.families {
		if f.Matches(path) {
			return true
		}
	}

	return false
}

// HasTag reports whether the rule carries the given tag. An empty requested
// tag selects [DefaultTag].
func (r *Rule) HasTag(tag string) bool {
	if tag == "" {
		tag = DefaultTag
	}

	return r.Tags.Contains(tag)
}

// Commands returns the rule's ordered command specifications.
func (r *Rule) Commands() []CommandSpec {
	if r.Command != nil {
		return []CommandSpec{*r.Command}
	}

	return r.ListCommands
}

// Source returns the path of the rule-set file that declared this rule, or
// an empty string for programmatically built rules.
func (r *Rule) Source() string {
	return r.source
}

// SourceDir returns the directory of the declaring rule-set file. Relative
// `cwd` overrides resolve against it.
func (r *Rule) SourceDir() string {
	if r.source == "" {
		return ""
	}

	return filepath.Dir(r.source)
}

func (r *Rule) String() string {
	cmds := r.Commands()
	parts := make([]string, 0, len(cmds))
	for _, c := range cmds {
		parts = append(parts, c.String())
	}

	return fmt.Sprintf("[%s] %s", strings.Join(r.Tags, ","), strings.Join(parts, " && "))
}
