// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuidv7 generates time-ordered ids for account primary keys and
// request correlation.
//
// Version 7 ids sort by creation time, so new rows land at the end of the
// users.account primary key index instead of scattering across it.
package uuidv7

import "github.com/google/uuid"

// New returns a new UUIDv7 string. It panics only when the OS entropy
// source fails, which the process cannot recover from anyway.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}
