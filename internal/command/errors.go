package command

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every error produced while building a descriptor.
var ErrValidation = errors.New("invalid command definition")

// ValidationError describes one malformed part of a command definition.
// Path locates the offending element, e.g. "options[1].options[0].min_value".
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Path, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// problems accumulates validation errors for a single build.
type problems []error

func (p *problems) add(path, format string, args ...any) {
	*p = append(*p, &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (p problems) err() error {
	return errors.Join(p...)
}
