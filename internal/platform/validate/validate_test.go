// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/validate"
)

type rule func(v *validate.Validator)

/*
TestValidator_Rules runs each rule alone and checks whether it fails.
*/
func TestValidator_Rules(t *testing.T) {
	const groupID = "9cc607c1-7b93-4245-98f5-0d788cf94895"

	tests := []struct {
		name  string
		rule  rule
		fails bool
	}{
		{"required_present", func(v *validate.Validator) { v.Required("username", "alice") }, false},
		{"required_blank", func(v *validate.Validator) { v.Required("username", " \t ") }, true},

		{"max_len_counts_runes", func(v *validate.Validator) { v.MaxLen("first_name", "Zo\u00eb", 3) }, false},
		{"max_len_exceeded", func(v *validate.Validator) { v.MaxLen("first_name", "Zo\u00eby", 3) }, true},
		{"min_len_short", func(v *validate.Validator) { v.MinLen("password", "abc12", 6) }, true},

		{"max_bytes_ascii", func(v *validate.Validator) { v.MaxBytes("password", "hunter22", 72) }, false},
		{"max_bytes_multibyte", func(v *validate.Validator) { v.MaxBytes("password", strings.Repeat("é", 37), 72) }, true},

		{"printable_accented", func(v *validate.Validator) { v.Printable("username", "José Müller") }, false},
		{"printable_newline", func(v *validate.Validator) { v.Printable("username", "alice\nadmin") }, true},
		{"printable_zero_width", func(v *validate.Validator) { v.Printable("username", "ali\u200bce") }, true},

		{"email_bare", func(v *validate.Validator) { v.Email("email", "alice@example.com") }, false},
		{"email_no_at", func(v *validate.Validator) { v.Email("email", "alice.example.com") }, true},
		{"email_no_domain", func(v *validate.Validator) { v.Email("email", "alice@") }, true},
		{"email_display_name", func(v *validate.Validator) { v.Email("email", "Alice <alice@example.com>") }, true},

		{"uuid_upper_case", func(v *validate.Validator) { v.UUID("id", strings.ToUpper(groupID)) }, false},
		{"uuid_braced", func(v *validate.Validator) { v.UUID("id", "{"+groupID+"}") }, true},
		{"uuid_urn", func(v *validate.Validator) { v.UUID("id", "urn:uuid:"+groupID) }, true},
		{"uuid_word", func(v *validate.Validator) { v.UUID("id", "me") }, true},

		{"uuids_empty", func(v *validate.Validator) { v.UUIDs("group_ids", nil) }, false},
		{"uuids_valid", func(v *validate.Validator) { v.UUIDs("group_ids", []string{groupID, groupID}) }, false},
		{"uuids_one_bad", func(v *validate.Validator) { v.UUIDs("group_ids", []string{groupID, "everyone"}) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			tt.rule(v)

			assert.Equal(t, tt.fails, v.HasErrors())
			if !tt.fails {
				assert.NoError(t, v.Err())
			}
		})
	}
}

/*
TestValidator_CollectsEveryFailure checks that a chain reports all failed
fields in one VALIDATION_ERROR.
*/
func TestValidator_CollectsEveryFailure(t *testing.T) {
	err := (&validate.Validator{}).
		Required("username", "").
		MinLen("password", "abc", 6).
		Email("email", "not-an-email").
		UUIDs("group_ids", []string{"a", "b"}).
		Err()

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeValidation, appError.Code)

	fields := make([]string, 0, len(appError.Details))
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	assert.Equal(t, []string{"username", "password", "email", "group_ids"}, fields)
}

func TestValidator_PassingChainReturnsNil(t *testing.T) {
	err := (&validate.Validator{}).
		Required("username", "alice").
		MaxLen("username", "alice", 50).
		Printable("username", "alice").
		Err()

	assert.NoError(t, err)
}
