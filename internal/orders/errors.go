package orders

import "strings"

// MissingFieldsError reports every absent required field at once rather
// than failing on the first.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}
