// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query splits multi-valued URL query parameters.
package query

import "strings"

// StringSlice accepts both repeated keys (?id=a&id=b) and comma lists
// (?id=a,b), trimming blanks and dropping empty entries. The result is nil
// when nothing remains.
func StringSlice(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if clean := strings.TrimSpace(part); clean != "" {
				result = append(result, clean)
			}
		}
	}
	return result
}
