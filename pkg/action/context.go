// Package action ties rule resolution, template rendering, and command
// execution together into the tool's two entry points: resolve a rule for a
// target path, and execute it.
package action

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecutionContext is an immutable snapshot of one invocation: the absolute
// target path, the requested tag, the invocation working directory, and the
// process environment.
type ExecutionContext struct {
	file    string
	tag     string
	cwd     string
	environ []string
}

// NewExecutionContext builds the context for one invocation of target.
func NewExecutionContext(target, tag string) (*ExecutionContext, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve target %q: %w", target, err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	return &ExecutionContext{
		file:    abs,
		tag:     tag,
		cwd:     cwd,
		environ: os.Environ(),
	}, nil
}

// File returns the absolute path of the target file.
func (ec *ExecutionContext) File() string {
	return ec.file
}

// Tag returns the requested tag, possibly empty.
func (ec *ExecutionContext) Tag() string {
	return ec.tag
}

// Cwd returns the invocation's working directory.
func (ec *ExecutionContext) Cwd() string {
	return ec.cwd
}

// Environ returns the environment snapshot taken at construction.
func (ec *ExecutionContext) Environ() []string {
	return ec.environ
}
