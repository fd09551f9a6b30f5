// Package strings normalizes string lists read from configuration.
package strings

import "strings"

// CleanList trims each element, drops blanks, and keeps the first occurrence
// of every value. Comma-joined elements, as a single environment variable
// yields, are split first.
func CleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
