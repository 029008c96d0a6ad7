// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate collects field-level input errors into one
// VALIDATION_ERROR [apperr.AppError].
//
// Services validate their inputs with it. Handlers only use it for path and
// query parameters that never reach a service unparsed.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
)

// canonicalUUIDLength is the length of the hyphenated 8-4-4-4-12 form.
const canonicalUUIDLength = 36

// ErrInvalidJSON is returned when a request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator accumulates rule failures; every rule returns the receiver so
// rules chain. Use one Validator per operation.
type Validator struct {
	failures []apperr.FieldError
}

func (v *Validator) check(field string, failed bool, message string) *Validator {
	if failed {
		v.failures = append(v.failures, apperr.FieldError{Field: field, Message: message})
	}
	return v
}

// Required rejects empty or whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(field, strings.TrimSpace(value) == "", "is required")
}

// MaxLen rejects values longer than max runes.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	return v.check(field, utf8.RuneCountInString(value) > max, fmt.Sprintf("must be at most %d characters", max))
}

// MinLen rejects values shorter than min runes.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	return v.check(field, utf8.RuneCountInString(value) < min, fmt.Sprintf("must be at least %d characters", min))
}

// MaxBytes rejects values whose UTF-8 encoding exceeds max bytes. bcrypt only
// reads the first 72 bytes of a password.
func (v *Validator) MaxBytes(field, value string, max int) *Validator {
	return v.check(field, len(value) > max, fmt.Sprintf("must be at most %d bytes", max))
}

// Printable rejects control and invisible format characters.
func (v *Validator) Printable(field, value string) *Validator {
	hidden := strings.IndexFunc(value, func(char rune) bool {
		return unicode.IsControl(char) || unicode.Is(unicode.Cf, char)
	})
	return v.check(field, hidden >= 0, "must not contain control characters")
}

// Email accepts a bare RFC 5322 address only; "Alice <alice@example.com>"
// is rejected.
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	return v.check(field, err != nil || address.Address != value, "must be a valid email address")
}

// UUID accepts the hyphenated form in either case.
func (v *Validator) UUID(field, value string) *Validator {
	return v.check(field, !isUUID(value), "must be a valid UUID")
}

// UUIDs reports one failure if any element is not a hyphenated UUID.
func (v *Validator) UUIDs(field string, values []string) *Validator {
	for _, value := range values {
		if !isUUID(value) {
			return v.check(field, true, "must contain only valid UUIDs")
		}
	}
	return v
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.failures) > 0
}

// Err returns the accumulated failures as one error, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.failures...)
}

func isUUID(value string) bool {
	return len(value) == canonicalUUIDLength && uuid.Validate(value) == nil
}
