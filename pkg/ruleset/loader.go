package ruleset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Recognized rule-set filenames. When both exist in the same directory the
// load fails rather than silently preferring one.
const (
	RuleFileName    = ".pathaction.yaml"
	RuleFileNameAlt = ".pathaction.yml"
)

// UserFragmentPath returns the location of the lowest-priority, user-level
// rule-set fragment.
func UserFragmentPath() string {
	return filepath.Join(xdg.ConfigHome, "pathaction", "pathaction.yaml")
}

// AccessChecker authorizes directories to contribute rule-set fragments.
type AccessChecker interface {
	IsAllowed(path string) bool
}

// Loader discovers and merges rule-set fragments for a target path.
type Loader struct {
	checker      AccessChecker
	userFragment string
}

// LoaderOpt is a functional option for [NewLoader].
type LoaderOpt func(*Loader)

// WithUserFragment overrides the user-level fragment location. An empty
// path disables it.
func WithUserFragment(path string) LoaderOpt {
	return func(l *Loader) {
		l.userFragment = path
	}
}

// NewLoader creates a [Loader]. A nil checker authorizes every directory.
func NewLoader(checker AccessChecker, opts ...LoaderOpt) *Loader {
	l := &Loader{
		checker:      checker,
		userFragment: UserFragmentPath(),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load walks from targetPath's directory (or targetPath itself when it is a
// directory) up to the filesystem root collecting rule-set fragments, then
// appends the user-level fragment as the lowest priority, and merges them
// into one [RuleSet].
//
// Every directory contributing a fragment must pass the access check or the
// whole load fails with [ErrDirNotAllowed]. The user-level fragment lives
// in the user's own config directory and is exempt. A fragment with
// `last: true` discards all farther fragments, the user-level one included.
func (l *Loader) Load(targetPath string) (*RuleSet, error) {
	abs, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %w", ErrConfig, targetPath, err)
	}

	var frags []*Fragment

	last := false

	for dir := startDir(abs); ; {
		path, err := ruleFileIn(dir)
		if err != nil {
			return nil, err
		}

		if path != "" {
			if l.checker != nil && !l.checker.IsAllowed(dir) {
				return nil, &DirNotAllowedError{Dir: dir}
			}

			f, err := LoadFragment(path)
			if err != nil {
				return nil, err
			}

			frags = append(frags, f)

			if f.Options.IsLast() {
				last = true

				break
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	if !last && l.userFragment != "" {
		f, err := l.loadUserFragment()
		if err != nil {
			return nil, err
		}

		if f != nil {
			frags = append(frags, f)
		}
	}

	return merge(frags), nil
}

func (l *Loader) loadUserFragment() (*Fragment, error) {
	_, err := os.Stat(l.userFragment)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // Absent user fragment is not an error.
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, l.userFragment, err)
	}

	return LoadFragment(l.userFragment)
}

// ruleFileIn returns the rule-set file in dir, or an empty string when none
// exists. Both filenames present at once is a configuration error.
func ruleFileIn(dir string) (string, error) {
	primary := filepath.Join(dir, RuleFileName)
	alt := filepath.Join(dir, RuleFileNameAlt)

	primaryExists := fileExists(primary)
	altExists := fileExists(alt)

	switch {
	case primaryExists && altExists:
		return "", fmt.Errorf("%w: both %s and %s exist in %s",
			ErrConfig, RuleFileName, RuleFileNameAlt, dir)

	case primaryExists:
		return primary, nil

	case altExists:
		return alt, nil
	}

	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

// startDir returns the directory the walk begins at: the target itself when
// it is a directory, its parent otherwise.
func startDir(abs string) string {
	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		return abs
	}

	return filepath.Dir(abs)
}

// merge combines fragments ordered closest-first into one [RuleSet].
// Rules keep closest-first order; options and vars merge farthest to
// closest so closer fragments override field by field.
func merge(frags []*Fragment) *RuleSet {
	rs := &RuleSet{vars: map[string]any{}}

	for i := len(frags) - 1; i >= 0; i-- {
		rs.options = rs.options.Merge(frags[i].Options)

		for k, v := range frags[i].Vars {
			rs.vars[k] = v
		}
	}

	for _, f := range frags {
		rs.rules = append(rs.rules, f.Actions...)
		rs.sources = append(rs.sources, f.path)
	}

	return rs
}
