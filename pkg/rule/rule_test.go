package rule_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamescherti/pathaction/pkg/rule"
)

func TestRuleBuild(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		rule *rule.Rule
		err  error
	}{
		"valid": {
			rule: &rule.Rule{
				PathMatch: rule.StringList{"*.py"},
				Command:   commandPtr("python3 {{ .file }}"),
			},
		},
		"no command": {
			rule: &rule.Rule{PathMatch: rule.StringList{"*.py"}},
			err:  rule.ErrNoCommand,
		},
		"command and list": {
			rule: &rule.Rule{
				PathMatch:    rule.StringList{"*.py"},
				Command:      commandPtr("true"),
				ListCommands: []rule.CommandSpec{rule.NewCommand("true")},
			},
			err: rule.ErrAmbiguousCommand,
		},
		"no include pattern": {
			rule: &rule.Rule{Command: commandPtr("true")},
			err:  rule.ErrNoIncludePattern,
		},
		"excludes only": {
			rule: &rule.Rule{
				PathMatchExclude: rule.StringList{"*.py"},
				Command:          commandPtr("true"),
			},
			err: rule.ErrNoIncludePattern,
		},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.rule.Build("")
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestRuleDefaultTag(t *testing.T) {
	t.Parallel()

	r := rule.MustNew("true", rule.WithPathMatch("*"))

	assert.Equal(t, rule.StringList{rule.DefaultTag}, r.Tags)
	assert.True(t, r.HasTag(""))
	assert.True(t, r.HasTag("main"))
	assert.False(t, r.HasTag("debug"))
}

func TestRuleMatchesAnyFamily(t *testing.T) {
	t.Parallel()

	r := rule.MustNew("true",
		rule.WithPathMatch("*.py"),
		rule.WithPathRegex(`\.sh$`))

	// Either family's include grants a match.
	assert.True(t, r.Matches("/src/app.py"))
	assert.True(t, r.Matches("/src/run.sh"))
	assert.False(t, r.Matches("/src/readme.md"))
}

func TestRuleExcludeScopedToFamily(t *testing.T) {
	t.Parallel()

	r := rule.MustNew("true",
		rule.WithPathMatch("*.py"),
		rule.WithPathRegex(`app`),
		rule.WithPathRegexExclude(`legacy`))

	// The regex exclude does not reach the glob family.
	assert.True(t, r.Matches("/legacy/app.py"))
	assert.False(t, r.Matches("/legacy/app"))
}

func TestRuleCommands(t *testing.T) {
	t.Parallel()

	single := rule.MustNew("make build", rule.WithPathMatch("Makefile"))
	require.Len(t, single.Commands(), 1)
	assert.Equal(t, "make build", single.Commands()[0].Line)

	list := rule.MustNew("",
		rule.WithPathMatch("Makefile"),
		rule.WithListCommands(rule.NewCommand("make build"), rule.NewCommand("make test")))
	require.Len(t, list.Commands(), 2)
	assert.Equal(t, "make test", list.Commands()[1].Line)
}

func TestRuleSource(t *testing.T) {
	t.Parallel()

	r := &rule.Rule{
		PathMatch: rule.StringList{"*"},
		Command:   commandPtr("true"),
	}

	source := filepath.Join("/home", "user", "project", ".pathaction.yaml")
	require.NoError(t, r.Build(source))

	assert.Equal(t, source, r.Source())
	assert.Equal(t, filepath.Join("/home", "user", "project"), r.SourceDir())
}

func commandPtr(line string) *rule.CommandSpec {
	spec := rule.NewCommand(line)

	return &spec
}
