package yaml

import (
	"fmt"

	"github.com/goccy/go-yaml/token"
)

// Error carries the source position of a YAML decoding or validation failure.
type Error struct {
	Err   error
	Token *token.Token
}

func (e *Error) Error() string {
	if e.Token != nil && e.Token.Position != nil {
		return fmt.Sprintf("line %d, column %d: %v",
			e.Token.Position.Line, e.Token.Position.Column, e.Err)
	}

	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
