package units

import (
	"errors"
	"fmt"
)

// ErrFormat is the kind of every parse failure in this package.
var ErrFormat = errors.New("unrecognized format")

// FormatError reports text that does not match the grammar expected for a value.
type FormatError struct {
	What string // grammar name, e.g. "si number"
	Text string // offending input
}

func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s %q", ErrFormat.Error(), e.What, e.Text)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

func formatErr(what, text string) error {
	return &FormatError{What: what, Text: text}
}
