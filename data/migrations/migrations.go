// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migrations embeds the versioned SQL files so the binary can migrate
// a database without a copy of this directory on disk.
package migrations

import "embed"

// Files holds every NNNNNN_name.{up,down}.sql file in this directory.
//
//go:embed *.sql
var Files embed.FS
