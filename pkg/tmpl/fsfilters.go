package tmpl

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"
)

// The filters below read the filesystem. Everything else in the filter
// table is a pure string function.

func realPath(path string) (string, error) {
	abs, err := absPath(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("realpath %q: %w", path, err)
	}

	return resolved, nil
}

// shebang returns the interpreter line of path without the `#!` prefix, or
// an empty string when the file has no shebang.
func shebang(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: The path is the rule's target file.
	if err != nil {
		return "", fmt.Errorf("shebang %q: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // Read-only.

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("shebang %q: %w", path, err)
		}

		return "", nil
	}

	line := scanner.Text()
	if !strings.HasPrefix(line, "#!") {
		return "", nil
	}

	return strings.TrimSpace(line[2:]), nil
}

func shebangList(path string) ([]string, error) {
	line, err := shebang(path)
	if err != nil {
		return nil, err
	}

	if line == "" {
		return nil, nil
	}

	return splitCmd(line)
}

func shebangQuote(path string) (string, error) {
	tokens, err := shebangList(path)
	if err != nil {
		return "", err
	}

	return shellescape.QuoteCommand(tokens), nil
}

// which resolves an executable name via $PATH. A miss is an
// [ErrCommandNotFound], surfaced distinctly for diagnostics.
func which(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrCommandNotFound, name)
	}

	return path, nil
}
