package ruleset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamescherti/pathaction/pkg/ruleset"
)

type allowAll struct{}

func (allowAll) IsAllowed(string) bool { return true }

type allowOnly []string

func (a allowOnly) IsAllowed(path string) bool {
	for _, dir := range a {
		if path == dir {
			return true
		}
	}

	return false
}

func writeRuleFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoaderWalkUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	project := filepath.Join(root, "project")
	src := filepath.Join(project, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	writeRuleFile(t, project, ruleset.RuleFileName, `
actions:
  - path_match: "*.py"
    command: "python {{ .file | quote }}"
`)
	writeRuleFile(t, src, ruleset.RuleFileName, `
actions:
  - path_match: "*.go"
    command: "go run {{ .file | quote }}"
`)

	loader := ruleset.NewLoader(allowAll{}, ruleset.WithUserFragment(""))

	rs, err := loader.Load(filepath.Join(src, "main.go"))
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())

	// Closest fragment's rules come first.
	assert.Equal(t, filepath.Join(src, ruleset.RuleFileName), rs.Rules()[0].Source())
	assert.Equal(t, filepath.Join(project, ruleset.RuleFileName), rs.Rules()[1].Source())
	assert.Equal(t, []string{
		filepath.Join(src, ruleset.RuleFileName),
		filepath.Join(project, ruleset.RuleFileName),
	}, rs.Sources())
}

func TestLoaderDirectoryTarget(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	project := filepath.Join(root, "project")

	writeRuleFile(t, root, ruleset.RuleFileName, `
actions:
  - path_match: "*"
    command: "echo outer"
`)
	writeRuleFile(t, project, ruleset.RuleFileName, `
actions:
  - path_match: "*"
    command: "echo inner"
`)

	loader := ruleset.NewLoader(allowAll{}, ruleset.WithUserFragment(""))

	// A directory target contributes its own rule-set file first.
	rs, err := loader.Load(project)
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, filepath.Join(project, ruleset.RuleFileName), rs.Rules()[0].Source())
	assert.Equal(t, filepath.Join(root, ruleset.RuleFileName), rs.Rules()[1].Source())
}

func TestLoaderAltExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRuleFile(t, dir, ruleset.RuleFileNameAlt, `
actions:
  - path_match: "*"
    command: "true"
`)

	loader := ruleset.NewLoader(nil, ruleset.WithUserFragment(""))

	rs, err := loader.Load(filepath.Join(dir, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Len())
}

func TestLoaderBothExtensionsConflict(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRuleFile(t, dir, ruleset.RuleFileName, "actions: []\n")
	writeRuleFile(t, dir, ruleset.RuleFileNameAlt, "actions: []\n")

	loader := ruleset.NewLoader(nil, ruleset.WithUserFragment(""))

	_, err := loader.Load(filepath.Join(dir, "file.txt"))
	require.ErrorIs(t, err, ruleset.ErrConfig)
}

func TestLoaderUnauthorizedAncestorAborts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inner := filepath.Join(root, "inner")

	writeRuleFile(t, root, ruleset.RuleFileName, `
actions:
  - path_match: "*"
    command: "true"
`)
	writeRuleFile(t, inner, ruleset.RuleFileName, `
actions:
  - path_match: "*"
    command: "true"
`)

	// Only the inner directory is authorized; the ancestor still fails the
	// whole load.
	loader := ruleset.NewLoader(allowOnly{inner}, ruleset.WithUserFragment(""))

	_, err := loader.Load(filepath.Join(inner, "file.txt"))
	require.ErrorIs(t, err, ruleset.ErrDirNotAllowed)
}

func TestLoaderLastStopsWalk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	inner := filepath.Join(root, "inner")

	writeRuleFile(t, root, ruleset.RuleFileName, `
actions:
  - path_match: "*"
    command: "echo outer"
`)
	writeRuleFile(t, inner, ruleset.RuleFileName, `
options:
  last: true
actions:
  - path_match: "*.sh"
    command: "echo inner"
`)

	// The outer directory is not authorized, but `last: true` stops the
	// walk before it is ever visited.
	loader := ruleset.NewLoader(allowOnly{inner}, ruleset.WithUserFragment(""))

	rs, err := loader.Load(filepath.Join(inner, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Len())
}

func TestLoaderUserFragmentLowestPriority(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRuleFile(t, dir, ruleset.RuleFileName, `
options:
  timeout: 5
actions:
  - path_match: "*.txt"
    command: "cat {{ .file | quote }}"
`)

	user := writeRuleFile(t, filepath.Join(dir, "config"), "pathaction.yaml", `
options:
  timeout: 60
  verbose: true
vars:
  editor: vi
actions:
  - path_match: "*"
    command: "true"
`)

	loader := ruleset.NewLoader(allowAll{}, ruleset.WithUserFragment(user))

	rs, err := loader.Load(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, user, rs.Rules()[1].Source())

	// Closer fragment overrides field by field, unset fields fall through.
	assert.Equal(t, 5, rs.Options().TimeoutSeconds())
	assert.True(t, rs.Options().IsVerbose())
	assert.Equal(t, "vi", rs.Vars()["editor"])
}

func TestLoaderConfirmAfterTimeoutSeconds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeRuleFile(t, dir, ruleset.RuleFileName, `
options:
  confirm_after_timeout: 5
actions:
  - path_match: "*"
    command: "true"
`)

	loader := ruleset.NewLoader(nil, ruleset.WithUserFragment(""))

	rs, err := loader.Load(filepath.Join(dir, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, 5, rs.Options().ConfirmAfterSeconds())
}

func TestLoaderInvalidFragment(t *testing.T) {
	t.Parallel()

	tcs := map[string]string{
		"not yaml": "{{{{",
		"unknown key": `
actions:
  - path_match: "*"
    command: "true"
    bogus: 1
`,
		"no command": `
actions:
  - path_match: "*"
`,
		"command and list_commands": `
actions:
  - path_match: "*"
    command: "true"
    list_commands: ["true"]
`,
		"no include pattern": `
actions:
  - command: "true"
`,
		"bad regex": `
actions:
  - path_regex: "["
    command: "true"
`,
	}
	for name, content := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeRuleFile(t, dir, ruleset.RuleFileName, content)

			loader := ruleset.NewLoader(nil, ruleset.WithUserFragment(""))

			_, err := loader.Load(filepath.Join(dir, "file.txt"))
			require.ErrorIs(t, err, ruleset.ErrConfig)
		})
	}
}
