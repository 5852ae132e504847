package rule

import (
	"fmt"
	"strings"
)

// StringList accepts either a YAML scalar or a sequence of scalars, so rule
// fields can be written as `tags: run` or `tags: [run, debug]`. Both forms
// normalize to a list at decode time.
type StringList []string

func (l *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*l = StringList{s}

		return nil
	}

	var ss []string

	err := unmarshal(&ss)
	if err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}

	*l = StringList(ss)

	return nil
}

// Contains reports whether the list contains s.
func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}

	return false
}

// CommandSpec is one command entry on a rule: either a single template string
// (tokenized later unless the rule runs through a shell) or an ordered list of
// template tokens used verbatim as the argument vector.
type CommandSpec struct {
	Line   string
	Tokens []string

	isList bool
}

// NewCommand creates a [CommandSpec] from a single command line.
func NewCommand(line string) CommandSpec {
	return CommandSpec{Line: line}
}

// NewCommandTokens creates a [CommandSpec] from an argument vector.
func NewCommandTokens(tokens ...string) CommandSpec {
	return CommandSpec{Tokens: tokens, isList: true}
}

// IsList reports whether the spec was given as a token list.
func (c CommandSpec) IsList() bool {
	return c.isList
}

func (c *CommandSpec) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		c.Line = s
		c.isList = false

		return nil
	}

	var tokens []string

	err := unmarshal(&tokens)
	if err != nil {
		return fmt.Errorf("expected a command string or a list of tokens: %w", err)
	}

	c.Tokens = tokens
	c.isList = true

	return nil
}

func (c CommandSpec) String() string {
	if c.isList {
		return strings.Join(c.Tokens, " ")
	}

	return c.Line
}
