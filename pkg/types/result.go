package types

import "fmt"

// ErrorPrefix is prepended to every user-visible failure message.
const ErrorPrefix = "Error: "

// Result is the responder's reply: exactly one of Text or Error is meaningful.
// A non-empty Error selects the error variant.
type Result struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// TextResult creates a successful result.
func TextResult(text string) Result {
	return Result{Text: text}
}

// ErrorResult creates a failed result carrying a human-readable message.
func ErrorResult(message string) Result {
	return Result{Error: message}
}

// IsError reports whether r is the error variant.
func (r Result) IsError() bool {
	return r.Error != ""
}

// Display returns the string the popup shows for r.
func (r Result) Display() string {
	if r.IsError() {
		return FormatError(r.Error)
	}
	return r.Text
}

// FormatError renders message the way all failures are shown to the user.
func FormatError(message string) string {
	return fmt.Sprintf("%s%s", ErrorPrefix, message)
}
