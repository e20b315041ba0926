// Package util provides shared utility functions used across the codebase.
package util

import "strings"

// SplitList splits a comma-separated list such as "default, other" into
// its trimmed, non-empty items. Repeated items are kept once, in order of
// first appearance. Returns nil when nothing remains.
func SplitList(s string) []string {
	var result []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		result = append(result, part)
	}
	return result
}
