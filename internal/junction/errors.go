package junction

import "fmt"

// InvalidInputError reports malformed input rejected at ingestion, such as
// a lane boundary without four corners or a box with a negative size.
// Expected absences (no plate, no lane, short history) are never reported
// as errors.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
