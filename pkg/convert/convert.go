// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package convert parses loosely typed input such as query parameters.
//
// Use it only where a malformed value and a missing one should be treated
// the same way.
package convert

import "strconv"

// ToIntD parses s as a base-10 int, returning def when s is empty or malformed.
func ToIntD(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
