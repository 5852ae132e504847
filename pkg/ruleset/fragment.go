package ruleset

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/jamescherti/pathaction/pkg/rule"
	"github.com/jamescherti/pathaction/pkg/yaml"
)

//go:embed ruleset.schema.json
var fragmentSchema []byte

var fragmentValidator = yaml.MustNewValidator(
	"https://github.com/jamescherti/pathaction/pkg/ruleset/ruleset.schema.json",
	fragmentSchema,
)

// Fragment is one parsed rule-set file.
type Fragment struct {
	Options Options        `yaml:"options,omitempty"`
	Vars    map[string]any `yaml:"vars,omitempty"`
	Actions []*rule.Rule   `yaml:"actions,omitempty"`

	path string
}

// LoadFragment reads, validates, and decodes a single rule-set file. Every
// rule in it is built with the file as its source. Failures wrap
// [ErrConfig].
func LoadFragment(path string) (*Fragment, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Paths come from the directory walk.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	var raw any

	err = yaml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}

	err = fragmentValidator.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}

	f := &Fragment{path: path}

	err = yaml.NewDecoder(bytes.NewReader(data)).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, path, err)
	}

	for i, r := range f.Actions {
		err = r.Build(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: action %d: %w", ErrConfig, path, i, err)
		}
	}

	return f, nil
}

// Path returns the file this fragment was loaded from.
func (f *Fragment) Path() string {
	return f.path
}
