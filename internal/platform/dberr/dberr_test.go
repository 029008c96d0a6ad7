// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/dberr"
)

func TestWrap(t *testing.T) {
	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	foreignKey := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}

	assert.NoError(t, dberr.Wrap(nil, "noop"))
	assert.True(t, apperr.HasCode(dberr.Wrap(pgx.ErrNoRows, "find"), apperr.CodeNotFound))
	assert.True(t, apperr.HasCode(dberr.Wrap(fmt.Errorf("insert: %w", unique), "insert"), apperr.CodeConflict))

	internal := dberr.Wrap(errors.New("connection reset"), "update_user")
	assert.True(t, apperr.HasCode(internal, apperr.CodeInternal))
	assert.Contains(t, apperr.As(internal).Cause.Error(), "update_user")

	assert.True(t, dberr.IsUniqueViolation(unique))
	assert.False(t, dberr.IsUniqueViolation(foreignKey))
	assert.True(t, dberr.IsForeignKeyViolation(fmt.Errorf("wrapped: %w", foreignKey)))
}
