package ruleset

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when a rule-set file cannot be parsed or declares
	// an invalid rule. No partial rule set is produced.
	ErrConfig = errors.New("invalid rule-set file")

	// ErrDirNotAllowed is returned when a directory containing a rule-set
	// file has not been authorized. The whole load aborts, so an
	// unauthorized ancestor never degrades to "no rules found".
	ErrDirNotAllowed = errors.New("directory not allowed")

	// ErrNoRuleMatched is returned by [RuleSet.Resolve] when no rule
	// qualifies for the given path and tag. It reports a normal outcome,
	// not a failure.
	ErrNoRuleMatched = errors.New("no rule matched")
)

// DirNotAllowedError carries the denied directory so callers can prompt for
// authorization and retry. It matches [ErrDirNotAllowed] with [errors.Is].
type DirNotAllowedError struct {
	Dir string
}

func (e *DirNotAllowedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDirNotAllowed, e.Dir)
}

func (e *DirNotAllowedError) Unwrap() error {
	return ErrDirNotAllowed
}
