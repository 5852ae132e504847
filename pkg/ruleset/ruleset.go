package ruleset

import (
	"fmt"

	"github.com/jamescherti/pathaction/pkg/rule"
)

// RuleSet is the merged result of all discovered fragments. It is immutable
// after load: rules are ordered closest-first, options and vars carry the
// closest fragment's overrides.
type RuleSet struct {
	rules   []*rule.Rule
	options Options
	vars    map[string]any
	sources []string
}

// New creates a rule set from already-built rules. [Loader.Load] is the
// usual entry point; New serves programmatic construction.
func New(rules []*rule.Rule, options Options, vars map[string]any) *RuleSet {
	if vars == nil {
		vars = map[string]any{}
	}

	return &RuleSet{
		rules:   rules,
		options: options,
		vars:    vars,
	}
}

// Rules returns the merged rules in resolution order.
func (rs *RuleSet) Rules() []*rule.Rule {
	return rs.rules
}

// Options returns the merged options.
func (rs *RuleSet) Options() Options {
	return rs.options
}

// Vars returns the merged template variables.
func (rs *RuleSet) Vars() map[string]any {
	return rs.vars
}

// Sources returns the fragment files that contributed to this rule set,
// closest first.
func (rs *RuleSet) Sources() []string {
	return rs.sources
}

// Len returns the number of merged rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Resolve returns the first rule, in merged order, that carries the
// requested tag and whose patterns match path. Later matching rules are
// never considered. When no rule qualifies it returns [ErrNoRuleMatched],
// distinguishing "no rule carries the tag" from "no pattern matched".
func (rs *RuleSet) Resolve(path, tag string) (*rule.Rule, error) {
	tagged := false

	for _, r := range rs.rules {
		if !r.HasTag(tag) {
			continue
		}

		tagged = true

		if r.Matches(path) {
			return r, nil
		}
	}

	if tag == "" {
		tag = rule.DefaultTag
	}

	if !tagged {
		return nil, fmt.Errorf("%w: no rule is tagged %q", ErrNoRuleMatched, tag)
	}

	return nil, fmt.Errorf("%w: no %q rule matches %q", ErrNoRuleMatched, tag, path)
}
