package memstore

import (
	"math"
	"strconv"
)

const negInf = -math.MaxFloat64

// mustParseScore parses a decimal score string produced by store.formatScore.
// It panics on malformed input since every caller in this package constructs
// the string itself via the store package's Cmd helpers.
func mustParseScore(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		panic("memstore: malformed score " + s)
	}
	return f
}
