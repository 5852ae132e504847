package rule

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Kind selects the pattern semantics of a matching family.
type Kind int

const (
	// KindGlob matches shell-style globs anchored to the whole subject,
	// where `*` crosses path separators.
	KindGlob Kind = iota
	// KindRegex matches with search semantics, case-insensitively.
	KindRegex
	// KindRegexCase matches with search semantics, case-sensitively.
	KindRegexCase
	// KindExact matches by string equality.
	KindExact
)

type pattern interface {
	Match(s string) bool
}

type globPattern struct {
	g glob.Glob
}

func (p globPattern) Match(s string) bool { return p.g.Match(s) }

type regexPattern struct {
	lr *LazyRegexp
}

func (p regexPattern) Match(s string) bool {
	re, err := p.lr.Get()
	if err != nil || re == nil {
		return false
	}

	return re.MatchString(s)
}

type exactPattern struct {
	s string
}

func (p exactPattern) Match(s string) bool { return p.s == s }

func compilePattern(kind Kind, raw string) (pattern, error) {
	switch kind {
	case KindGlob:
		g, err := glob.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", raw, err)
		}

		return globPattern{g: g}, nil

	case KindRegex, KindRegexCase:
		expr := raw
		if kind == KindRegex {
			expr = "(?i)" + expr
		}

		lr := NewLazyRegexp(expr)

		_, err := lr.Get()
		if err != nil {
			return nil, fmt.Errorf("regex %q: %w", raw, err)
		}

		return regexPattern{lr: lr}, nil

	case KindExact:
		return exactPattern{s: raw}, nil
	}

	return nil, fmt.Errorf("unknown pattern kind: %d", kind)
}

func compilePatterns(kind Kind, raw []string) ([]pattern, error) {
	patterns := make([]pattern, 0, len(raw))
	for _, r := range raw {
		p, err := compilePattern(kind, r)
		if err != nil {
			return nil, err
		}

		patterns = append(patterns, p)
	}

	return patterns, nil
}

// subjectFunc extracts the string a family matches against. The second return
// is false when no subject can be derived for the path, in which case the
// family does not match at all.
type subjectFunc func(path string) (string, bool)

func pathSubject(path string) (string, bool) {
	return path, true
}

// mediaTypeSubject guesses the media type from the path extension, matching
// the extension-based lookup the rule-set format documents. The parameter
// suffix (e.g. `; charset=utf-8`) is stripped before matching.
func mediaTypeSubject(path string) (string, bool) {
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		return "", false
	}

	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	return mt, true
}

// Family binds the compiled include and exclude patterns of one matching
// family on a rule. Excludes only ever apply within their own family.
type Family struct {
	subject subjectFunc
	name    string
	include []pattern
	exclude []pattern
}

// NewFamily compiles a path-matching family.
func NewFamily(kind Kind, include, exclude []string) (*Family, error) {
	return newFamily("path", kind, pathSubject, include, exclude)
}

// NewMediaFamily compiles a media-type-matching family.
func NewMediaFamily(kind Kind, include, exclude []string) (*Family, error) {
	return newFamily("mediatype", kind, mediaTypeSubject, include, exclude)
}

func newFamily(name string, kind Kind, subject subjectFunc, include, exclude []string) (*Family, error) {
	in, err := compilePatterns(kind, include)
	if err != nil {
		return nil, fmt.Errorf("%s include: %w", name, err)
	}

	ex, err := compilePatterns(kind, exclude)
	if err != nil {
		return nil, fmt.Errorf("%s exclude: %w", name, err)
	}

	return &Family{
		name:    name,
		subject: subject,
		include: in,
		exclude: ex,
	}, nil
}

// HasIncludes reports whether the family declares any include patterns.
// A family without includes can never grant a match.
func (f *Family) HasIncludes() bool {
	return len(f.include) > 0
}

// Matches reports whether path passes the family: at least one include
// pattern hits and no exclude pattern does. An empty include set is not
// "match everything" but "match nothing".
func (f *Family) Matches(path string) bool {
	if len(f.include) == 0 {
		return false
	}

	s, ok := f.subject(path)
	if !ok {
		return false
	}

	hit := false

	for _, p := range f.include {
		if p.Match(s) {
			hit = true

			break
		}
	}

	if !hit {
		return false
	}

	for _, p := range f.exclude {
		if p.Match(s) {
			return false
		}
	}

	return true
}

// Matches reports whether path passes the given include and exclude pattern
// sets of a single kind. It is a convenience wrapper over [NewFamily].
func Matches(path string, include, exclude []string, kind Kind) (bool, error) {
	f, err := NewFamily(kind, include, exclude)
	if err != nil {
		return false, err
	}

	return f.Matches(path), nil
}
