package store

import "strconv"

// formatScore renders a sorted-set score the way go-redis and the in-memory
// store both expect: a plain decimal, since every score in this engine is a
// 64-bit epoch-millisecond timestamp with no fractional part.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
