// Package tmpl renders command and working-directory templates. A [Context]
// binds the variables `file`, `cwd`, `env`, and `pathsep`, plus any
// user-declared vars, and registers the filter functions usable in
// pipelines, e.g. `{{ .file | quote }}`.
package tmpl

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

var (
	// ErrTemplate is returned for unresolved variables, unknown filters, and
	// filter failures. The rule aborts before any command runs.
	ErrTemplate = errors.New("template error")

	// ErrCommandNotFound is returned when the `which` filter cannot resolve
	// an executable. It always wraps [ErrTemplate].
	ErrCommandNotFound = errors.New("command not found")
)

// Context binds template variables and filters for one rule invocation.
// Rendering is pure with respect to the context: the same text always
// renders to the same output.
type Context struct {
	data  map[string]any
	funcs template.FuncMap
}

// New creates a rendering context. The reserved variables `file`, `cwd`,
// `env`, and `pathsep` shadow same-named entries in vars.
func New(file, cwd string, environ []string, vars map[string]any) *Context {
	env := make(map[string]string, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[k] = v
		}
	}

	data := make(map[string]any, len(vars)+4)
	for k, v := range vars {
		data[k] = v
	}

	data["file"] = file
	data["cwd"] = cwd
	data["env"] = env
	data["pathsep"] = pathSeparator

	c := &Context{data: data}
	c.funcs = filterFuncs(cwd)

	return c
}

// Render substitutes variables and filters into text. Unresolved variables
// and filter failures yield [ErrTemplate]; a `which` miss additionally
// matches [ErrCommandNotFound].
func (c *Context) Render(text string) (string, error) {
	t, err := template.New("command").
		Funcs(c.funcs).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: parse %q: %w", ErrTemplate, text, err)
	}

	var b strings.Builder

	err = t.Execute(&b, c.data)
	if err != nil {
		if errors.Is(err, ErrCommandNotFound) {
			return "", fmt.Errorf("%w: %w", ErrTemplate, err)
		}

		return "", fmt.Errorf("%w: render %q: %w", ErrTemplate, text, err)
	}

	return b.String(), nil
}

// File returns the bound target file path.
func (c *Context) File() string {
	return fmt.Sprint(c.data["file"])
}
