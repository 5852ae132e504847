package ruleset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamescherti/pathaction/pkg/rule"
	"github.com/jamescherti/pathaction/pkg/ruleset"
)

func TestResolveFirstMatch(t *testing.T) {
	t.Parallel()

	first := rule.MustNew("python2 {{ .file }}", rule.WithPathMatch("*.py"))
	second := rule.MustNew("python3 {{ .file }}", rule.WithPathMatch("*.py"))
	other := rule.MustNew("go run {{ .file }}", rule.WithPathMatch("*.go"))

	rs := ruleset.New([]*rule.Rule{first, second, other}, ruleset.Options{}, nil)

	got, err := rs.Resolve("/src/app.py", "")
	require.NoError(t, err)
	assert.Same(t, first, got)

	// Swapping two matching rules flips the winner.
	swapped := ruleset.New([]*rule.Rule{second, first, other}, ruleset.Options{}, nil)

	got, err = swapped.Resolve("/src/app.py", "")
	require.NoError(t, err)
	assert.Same(t, second, got)

	// Reordering a non-matching rule changes nothing.
	reordered := ruleset.New([]*rule.Rule{other, first, second}, ruleset.Options{}, nil)

	got, err = reordered.Resolve("/src/app.py", "")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestResolveTagFilter(t *testing.T) {
	t.Parallel()

	run := rule.MustNew("python3 {{ .file }}", rule.WithPathMatch("*.py"))
	debug := rule.MustNew("pdb {{ .file }}",
		rule.WithPathMatch("*.py"), rule.WithTags("debug"))

	rs := ruleset.New([]*rule.Rule{run, debug}, ruleset.Options{}, nil)

	got, err := rs.Resolve("/src/app.py", "debug")
	require.NoError(t, err)
	assert.Same(t, debug, got)

	// No requested tag selects the default tag.
	got, err = rs.Resolve("/src/app.py", "")
	require.NoError(t, err)
	assert.Same(t, run, got)

	got, err = rs.Resolve("/src/app.py", "main")
	require.NoError(t, err)
	assert.Same(t, run, got)
}

func TestResolveNoMatch(t *testing.T) {
	t.Parallel()

	r := rule.MustNew("python3 {{ .file }}", rule.WithPathMatch("*.py"))
	rs := ruleset.New([]*rule.Rule{r}, ruleset.Options{}, nil)

	_, err := rs.Resolve("/src/app.py", "install")
	require.ErrorIs(t, err, ruleset.ErrNoRuleMatched)
	assert.ErrorContains(t, err, `tagged "install"`)

	_, err = rs.Resolve("/src/readme.md", "")
	require.ErrorIs(t, err, ruleset.ErrNoRuleMatched)
	assert.ErrorContains(t, err, "rule matches")
}

func TestResolveExcludeWins(t *testing.T) {
	t.Parallel()

	r := rule.MustNew("python3 {{ .file }}",
		rule.WithPathMatch("*.py"),
		rule.WithPathMatchExclude("*_test.py"))
	rs := ruleset.New([]*rule.Rule{r}, ruleset.Options{}, nil)

	_, err := rs.Resolve("/src/app_test.py", "")
	require.ErrorIs(t, err, ruleset.ErrNoRuleMatched)
}

func TestOptionsMerge(t *testing.T) {
	t.Parallel()

	shell := "/bin/bash"
	yes := true
	five := 5

	far := ruleset.Options{Shell: &shell, Timeout: &five}
	near := ruleset.Options{Verbose: &yes}

	merged := far.Merge(near)

	assert.Equal(t, "/bin/bash", merged.ShellPath())
	assert.Equal(t, 5, merged.TimeoutSeconds())
	assert.True(t, merged.IsVerbose())
	assert.False(t, merged.IsDebug())
}

func TestOptionsShellFallback(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/zsh")

	assert.Equal(t, "/usr/bin/zsh", ruleset.Options{}.ShellPath())

	t.Setenv("SHELL", "")

	assert.Equal(t, ruleset.DefaultShellPath, ruleset.Options{}.ShellPath())
}
