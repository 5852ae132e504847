package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamescherti/pathaction/pkg/rule"
)

func TestFamilyGlob(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		include []string
		exclude []string
		path    string
		want    bool
	}{
		"suffix": {
			include: []string{"*.py"},
			path:    "/home/user/app.py",
			want:    true,
		},
		"star crosses separators": {
			include: []string{"*/src/*"},
			path:    "/home/user/src/deep/nested/app.py",
			want:    true,
		},
		"anchored to whole path": {
			include: []string{"app.py"},
			path:    "/home/user/app.py",
			want:    false,
		},
		"no hit": {
			include: []string{"*.sh"},
			path:    "/home/user/app.py",
			want:    false,
		},
		"exclude wins": {
			include: []string{"*.py"},
			exclude: []string{"*_test.py"},
			path:    "/home/user/app_test.py",
			want:    false,
		},
		"empty include matches nothing": {
			exclude: []string{"*.py"},
			path:    "/home/user/app.sh",
			want:    false,
		},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f, err := rule.NewFamily(rule.KindGlob, tc.include, tc.exclude)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f.Matches(tc.path))
		})
	}
}

func TestFamilyRegex(t *testing.T) {
	t.Parallel()

	// Search semantics: the pattern need not span the whole path.
	f, err := rule.NewFamily(rule.KindRegex, []string{`\.py$`}, nil)
	require.NoError(t, err)
	assert.True(t, f.Matches("/home/user/app.py"))
	assert.False(t, f.Matches("/home/user/app.pyc"))

	// Case-insensitive by default.
	f, err = rule.NewFamily(rule.KindRegex, []string{`\.PY$`}, nil)
	require.NoError(t, err)
	assert.True(t, f.Matches("/home/user/app.py"))

	// KindRegexCase is case-sensitive.
	f, err = rule.NewFamily(rule.KindRegexCase, []string{`\.PY$`}, nil)
	require.NoError(t, err)
	assert.False(t, f.Matches("/home/user/app.py"))
	assert.True(t, f.Matches("/home/user/APP.PY"))
}

func TestFamilyRegexInvalid(t *testing.T) {
	t.Parallel()

	_, err := rule.NewFamily(rule.KindRegex, []string{"["}, nil)
	require.Error(t, err)
}

func TestFamilyMediaType(t *testing.T) {
	t.Parallel()

	exact, err := rule.NewMediaFamily(rule.KindExact, []string{"application/pdf"}, nil)
	require.NoError(t, err)
	assert.True(t, exact.Matches("/docs/manual.pdf"))
	assert.False(t, exact.Matches("/docs/manual.html"))

	glob, err := rule.NewMediaFamily(rule.KindGlob, []string{"image/*"}, nil)
	require.NoError(t, err)
	assert.True(t, glob.Matches("/pics/cat.png"))
	assert.False(t, glob.Matches("/docs/manual.pdf"))

	// Unknown extension derives no media type and never matches.
	assert.False(t, glob.Matches("/bin/tool.xyzzy"))
}

func TestMatches(t *testing.T) {
	t.Parallel()

	ok, err := rule.Matches("/src/app.py", []string{"*.py"}, nil, rule.KindGlob)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rule.Matches("/src/app.py", []string{"*.py"}, []string{"*app*"}, rule.KindGlob)
	require.NoError(t, err)
	assert.False(t, ok)
}
