// Package memstore is a mapping-based, ordered-set-based in-memory Store. It
// satisfies the same contract as redisstore and is used both as a fast test
// double and as the engine's fallback when no backing store is configured.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/scality/utapi/store"
)

type zmember struct {
	score  float64
	member string
}

// Store is a single-process, mutex-guarded implementation of store.Store.
// Commands within one Batch call are applied in order while holding the
// lock, which gives it strictly stronger isolation than the production
// Redis adapter. Every property the engine relies on (atomic single-key
// ops, ordered pipelines) still holds.
type Store struct {
	mu       sync.Mutex
	counters map[string]int64
	zsets    map[string][]zmember
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		counters: make(map[string]int64),
		zsets:    make(map[string][]zmember),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Batch(ctx context.Context, cmds []store.Cmd) ([]store.CmdResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]store.CmdResult, len(cmds))
	for i, cmd := range cmds {
		results[i] = s.apply(cmd)
	}
	return results, nil
}

func (s *Store) apply(cmd store.Cmd) store.CmdResult {
	switch cmd.Kind {
	case store.CmdIncr:
		s.counters[cmd.Key]++
		return store.CmdResult{Int: s.counters[cmd.Key]}
	case store.CmdIncrBy:
		s.counters[cmd.Key] += cmd.IntArg
		return store.CmdResult{Int: s.counters[cmd.Key]}
	case store.CmdDecrBy:
		s.counters[cmd.Key] -= cmd.IntArg
		return store.CmdResult{Int: s.counters[cmd.Key]}
	case store.CmdSet:
		s.counters[cmd.Key] = cmd.IntArg
		return store.CmdResult{Int: cmd.IntArg}
	case store.CmdGet:
		v, ok := s.counters[cmd.Key]
		if !ok {
			return store.CmdResult{Err: store.ErrNoSuchKey}
		}
		return store.CmdResult{Int: v}
	case store.CmdZAdd:
		s.zadd(cmd.Key, cmd.Score, cmd.Member)
		return store.CmdResult{}
	case store.CmdZRemRangeByScore:
		s.zremRangeByScore(cmd.Key, cmd.Min, cmd.Max)
		return store.CmdResult{}
	case store.CmdZRangeByScore:
		return store.CmdResult{Strs: s.zrangeByScore(cmd.Key, cmd.Min, cmd.Max)}
	case store.CmdZRevRangeByScore:
		return store.CmdResult{Strs: s.zrevRangeByScore(cmd.Key, cmd.Max, cmd.Min, cmd.Limit)}
	default:
		return store.CmdResult{}
	}
}

func (s *Store) zadd(key string, score float64, member string) {
	set := s.zsets[key]
	for i := range set {
		if set[i].member == member {
			set[i].score = score
			s.sortZSet(key)
			return
		}
	}
	s.zsets[key] = append(set, zmember{score: score, member: member})
	s.sortZSet(key)
}

func (s *Store) sortZSet(key string) {
	set := s.zsets[key]
	sort.Slice(set, func(i, j int) bool { return set[i].score < set[j].score })
}

// zremRangeByScore evicts members whose score lies in [min, max], inclusive.
// The engine only ever calls this with min == max (evict the sample at
// exactly one interval), so no float-parsing of "-inf"/"+inf" is needed here.
func (s *Store) zremRangeByScore(key, minStr, maxStr string) {
	min, max := mustParseScore(minStr), mustParseScore(maxStr)
	set := s.zsets[key]
	kept := set[:0]
	for _, m := range set {
		if m.score < min || m.score > max {
			kept = append(kept, m)
		}
	}
	s.zsets[key] = kept
}

func (s *Store) zrangeByScore(key, minStr, maxStr string) []string {
	min, max := mustParseScore(minStr), mustParseScore(maxStr)
	var out []string
	for _, m := range s.zsets[key] {
		if m.score >= min && m.score <= max {
			out = append(out, m.member)
		}
	}
	return out
}

func (s *Store) zrevRangeByScore(key, maxStr, minStr string, limit int64) []string {
	max := mustParseScore(maxStr)
	min := float64(0)
	if minStr != "-inf" {
		min = mustParseScore(minStr)
	} else {
		min = negInf
	}

	set := s.zsets[key]
	var out []string
	for i := len(set) - 1; i >= 0; i-- {
		if set[i].score <= max && set[i].score >= min {
			out = append(out, set[i].member)
			if limit > 0 && int64(len(out)) >= limit {
				break
			}
		}
	}
	return out
}
