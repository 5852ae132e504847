package tmpl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/alessio/shellescape"
	"github.com/mattn/go-shellwords"
)

const pathSeparator = string(filepath.Separator)

// filterFuncs builds the filter table. In a pipeline the piped value is the
// last argument, so two-argument filters read as
// `{{ .file | startswith "/tmp" }}`. Filters that touch the filesystem live
// in fsfilters.go.
func filterFuncs(cwd string) template.FuncMap {
	return template.FuncMap{
		"quote":      shellescape.Quote,
		"basename":   filepath.Base,
		"dirname":    filepath.Dir,
		"abspath":    absPath,
		"relpath":    relPathTo(cwd),
		"joinpath":   filepath.Join,
		"joincmd":    joinCmd,
		"splitcmd":   splitCmd,
		"expanduser": expandUser,
		"expandvars": os.ExpandEnv,
		"startswith": func(prefix, s string) bool { return strings.HasPrefix(s, prefix) },
		"endswith":   func(suffix, s string) bool { return strings.HasSuffix(s, suffix) },

		"realpath":      realPath,
		"shebang":       shebang,
		"shebang_list":  shebangList,
		"shebang_quote": shebangQuote,
		"which":         which,
	}
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abspath %q: %w", path, err)
	}

	return abs, nil
}

func relPathTo(cwd string) func(string) (string, error) {
	return func(path string) (string, error) {
		abs, err := absPath(path)
		if err != nil {
			return "", err
		}

		rel, err := filepath.Rel(cwd, abs)
		if err != nil {
			return "", fmt.Errorf("relpath %q: %w", path, err)
		}

		return rel, nil
	}
}

// joinCmd joins an argument list into one shell-safe command line. It
// accepts []string directly and []any for lists built inside a template.
func joinCmd(args any) (string, error) {
	switch v := args.(type) {
	case []string:
		return shellescape.QuoteCommand(v), nil

	case []any:
		ss := make([]string, 0, len(v))
		for _, item := range v {
			ss = append(ss, fmt.Sprint(item))
		}

		return shellescape.QuoteCommand(ss), nil
	}

	return "", fmt.Errorf("joincmd: expected a list, got %T", args)
}

func splitCmd(line string) ([]string, error) {
	tokens, err := shellwords.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("splitcmd %q: %w", line, err)
	}

	return tokens, nil
}

func expandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~"+pathSeparator) {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanduser %q: %w", path, err)
	}

	return filepath.Join(home, path[1:]), nil
}
