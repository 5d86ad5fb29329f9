// Package schema holds the validation problem type shared by the tolerant
// decoders. Decoders never fail on malformed input; they fall back to
// defaults and report what they had to repair as ValidationErrors.
package schema

import (
	"fmt"
	"strings"
)

// ValidationError describes a single problem found while decoding input.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Errorf builds a ValidationError with a formatted message.
func Errorf(path, format string, args ...any) ValidationError {
	return ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Join renders a list of problems one per line, for logs.
func Join(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}
