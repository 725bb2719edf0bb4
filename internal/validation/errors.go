// Package validation carries user-facing input errors keyed by field.
package validation

import (
	"errors"
	"sort"
	"strings"
)

// NonField is the key for errors that do not belong to a single field
const NonField = ""

const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice."
)

// Errors maps a field key to its messages
type Errors map[string][]string

// Add records a message for a field
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Err returns e as an error, or nil when nothing was recorded
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		msg := strings.Join(e[f], " ")
		if f != NonField {
			msg = f + ": " + msg
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

// Field builds an Errors with a single message
func Field(field, msg string) Errors {
	return Errors{field: {msg}}
}

// As extracts Errors from err
func As(err error) (Errors, bool) {
	var verr Errors
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
