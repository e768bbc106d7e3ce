// Package store defines the datastore adapter contract the metric engine is
// built against: atomic integer counters, sorted sets keyed by numeric score
// with range queries, and a pipelined batch execution primitive. Two
// implementations satisfy this contract: redisstore (production, backed by
// go-redis) and memstore (an in-memory double used in tests and as the
// engine's fallback store when no Redis host is configured).
package store

import (
	"context"
	"errors"
)

// CmdKind enumerates the primitive operations a Store must support.
type CmdKind int

const (
	CmdIncr CmdKind = iota
	CmdIncrBy
	CmdDecrBy
	CmdSet
	CmdGet
	CmdZAdd
	CmdZRemRangeByScore
	CmdZRangeByScore
	CmdZRevRangeByScore
)

// Cmd is one command in a pipelined Batch. Only the fields relevant to Kind
// are read by a Store implementation.
type Cmd struct {
	Kind CmdKind
	Key  string

	// IntArg is the increment/decrement amount for IncrBy/DecrBy, or the
	// value to write for Set.
	IntArg int64

	// Score and Member are used by ZAdd: member is stored at the given score.
	Score  float64
	Member string

	// Min and Max bound a sorted-set score range. For ZRemRangeByScore both
	// are the exact score to evict. For ZRangeByScore they are the inclusive
	// bounds, ascending. For ZRevRangeByScore Max is the upper bound to
	// search from (typically the query timestamp) and Min is the lower bound
	// (typically "-inf").
	Min, Max string

	// Limit caps the number of members a ZRevRangeByScore returns.
	Limit int64
}

// CmdResult is one element of a Batch result vector: either an error or a
// value, never both. A failing command does not abort the rest of the batch.
type CmdResult struct {
	Err  error
	Int  int64    // result of Incr/IncrBy/DecrBy/Get
	Strs []string // result of ZRangeByScore/ZRevRangeByScore, in score order
}

// ErrNoSuchKey is returned by a Get command result when the key is absent.
// Callers interpret this as zero per the schema's delta-absence rule, never
// as a batch-level failure.
var ErrNoSuchKey = errors.New("store: no such key")

// Store is the backing-store contract the write and read paths depend on.
// Every call is a suspension point; there is no synchronous variant.
type Store interface {
	// Batch executes cmds as a single pipelined unit, in order, and returns
	// one CmdResult per command. A transport-level failure (the store is
	// unreachable, the connection pool is exhausted, ...) is reported as a
	// single top-level error and no per-command results are produced.
	Batch(ctx context.Context, cmds []Cmd) ([]CmdResult, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

func Incr(key string) Cmd            { return Cmd{Kind: CmdIncr, Key: key} }
func IncrBy(key string, n int64) Cmd { return Cmd{Kind: CmdIncrBy, Key: key, IntArg: n} }
func DecrBy(key string, n int64) Cmd { return Cmd{Kind: CmdDecrBy, Key: key, IntArg: n} }
func Set(key string, v int64) Cmd    { return Cmd{Kind: CmdSet, Key: key, IntArg: v} }
func Get(key string) Cmd             { return Cmd{Kind: CmdGet, Key: key} }
func ZAdd(key string, score float64, member string) Cmd {
	return Cmd{Kind: CmdZAdd, Key: key, Score: score, Member: member}
}
func ZRemRangeByScore(key string, score float64) Cmd {
	f := formatScore(score)
	return Cmd{Kind: CmdZRemRangeByScore, Key: key, Min: f, Max: f}
}
func ZRangeByScore(key string, min, max float64) Cmd {
	return Cmd{Kind: CmdZRangeByScore, Key: key, Min: formatScore(min), Max: formatScore(max)}
}
func ZRevRangeByScore(key string, max float64, limit int64) Cmd {
	return Cmd{Kind: CmdZRevRangeByScore, Key: key, Max: formatScore(max), Min: "-inf", Limit: limit}
}
