// Package utils provides shared utilities for text, math, and logging.
package utils

// TruncateRunes returns s truncated to at most maxRunes runes, without a
// suffix marker. Safe for multi-byte text.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
