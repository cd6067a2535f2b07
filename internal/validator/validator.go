// Package validator collects field-level input problems before anything is
// sent to the backend.
package validator

import (
	"sort"
	"strings"
)

// Validator accumulates one message per field. The first failing check for a
// field wins.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no check has failed.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records message for key unless key already has one.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check records message for key when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Err returns the collected problems as an error, or nil when valid.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	out := make(FieldErrors, len(v.Errors))
	for k, msg := range v.Errors {
		out[k] = msg
	}
	return out
}

// NotBlank reports whether s has any non-space content.
func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Between reports whether min <= n <= max.
func Between(n, min, max int) bool {
	return n >= min && n <= max
}

// FieldErrors maps a field name to its problem.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
