package rule_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamescherti/pathaction/pkg/rule"
	"github.com/jamescherti/pathaction/pkg/yaml"
)

func TestStringListUnmarshal(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  rule.StringList
		err   bool
	}{
		"scalar": {
			input: `"*.py"`,
			want:  rule.StringList{"*.py"},
		},
		"list": {
			input: `["*.py", "*.sh"]`,
			want:  rule.StringList{"*.py", "*.sh"},
		},
		"empty list": {
			input: `[]`,
			want:  rule.StringList{},
		},
		"mapping rejected": {
			input: `{a: b}`,
			err:   true,
		},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got rule.StringList

			err := yaml.NewDecoder(bytes.NewBufferString(tc.input)).Decode(&got)
			if tc.err {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStringListContains(t *testing.T) {
	t.Parallel()

	l := rule.StringList{"main", "debug"}

	assert.True(t, l.Contains("main"))
	assert.False(t, l.Contains("install"))
}

func TestCommandSpecUnmarshal(t *testing.T) {
	t.Parallel()

	var line rule.CommandSpec

	require.NoError(t,
		yaml.NewDecoder(bytes.NewBufferString(`"python3 {{ .file }}"`)).Decode(&line))
	assert.False(t, line.IsList())
	assert.Equal(t, "python3 {{ .file }}", line.Line)

	var tokens rule.CommandSpec

	require.NoError(t,
		yaml.NewDecoder(bytes.NewBufferString(`["python3", "{{ .file }}"]`)).Decode(&tokens))
	assert.True(t, tokens.IsList())
	assert.Equal(t, []string{"python3", "{{ .file }}"}, tokens.Tokens)
}
