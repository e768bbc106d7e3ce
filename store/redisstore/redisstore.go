// Package redisstore implements store.Store on top of Redis (or any
// Redis-protocol-compatible service such as Valkey or DragonflyDB), using
// go-redis's pipeline to satisfy Batch in a single round trip.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scality/utapi/store"
)

// Store wraps a go-redis client.
type Store struct {
	client *redis.Client
}

// Config describes how to reach the backing Redis instance.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// New dials Redis and verifies connectivity before returning.
func New(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: connect: %w", err)
	}

	return &Store{client: client}, nil
}

// NewFromClient wraps an already-constructed go-redis client, primarily for
// tests that point at a miniredis instance.
func NewFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Batch(ctx context.Context, cmds []store.Cmd) ([]store.CmdResult, error) {
	pipe := s.client.Pipeline()

	type pending struct {
		kind  store.CmdKind
		cmder redis.Cmder
	}
	queued := make([]pending, 0, len(cmds))

	for _, cmd := range cmds {
		switch cmd.Kind {
		case store.CmdIncr:
			queued = append(queued, pending{cmd.Kind, pipe.Incr(ctx, cmd.Key)})
		case store.CmdIncrBy:
			queued = append(queued, pending{cmd.Kind, pipe.IncrBy(ctx, cmd.Key, cmd.IntArg)})
		case store.CmdDecrBy:
			queued = append(queued, pending{cmd.Kind, pipe.DecrBy(ctx, cmd.Key, cmd.IntArg)})
		case store.CmdSet:
			queued = append(queued, pending{cmd.Kind, pipe.Set(ctx, cmd.Key, cmd.IntArg, 0)})
		case store.CmdGet:
			queued = append(queued, pending{cmd.Kind, pipe.Get(ctx, cmd.Key)})
		case store.CmdZAdd:
			queued = append(queued, pending{cmd.Kind, pipe.ZAdd(ctx, cmd.Key, redis.Z{Score: cmd.Score, Member: cmd.Member})})
		case store.CmdZRemRangeByScore:
			queued = append(queued, pending{cmd.Kind, pipe.ZRemRangeByScore(ctx, cmd.Key, cmd.Min, cmd.Max)})
		case store.CmdZRangeByScore:
			queued = append(queued, pending{cmd.Kind, pipe.ZRangeByScore(ctx, cmd.Key, &redis.ZRangeBy{
				Min: cmd.Min,
				Max: cmd.Max,
			})})
		case store.CmdZRevRangeByScore:
			queued = append(queued, pending{cmd.Kind, pipe.ZRevRangeByScore(ctx, cmd.Key, &redis.ZRangeBy{
				Max:   cmd.Max,
				Min:   cmd.Min,
				Count: cmd.Limit,
			})})
		}
	}

	// Exec reports the first failing command even when the pipeline reached
	// the server, so it alone cannot distinguish a transport failure from a
	// single bad command. When the transport fails, every queued Cmder
	// carries the same error; if any command completed, the failure is
	// per-command and is surfaced in its own result below instead of
	// short-circuiting the batch.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		reachedServer := false
		for _, p := range queued {
			if cmdErr := p.cmder.Err(); cmdErr == nil || errors.Is(cmdErr, redis.Nil) {
				reachedServer = true
				break
			}
		}
		if !reachedServer {
			return nil, fmt.Errorf("redisstore: pipeline exec: %w", err)
		}
	}

	results := make([]store.CmdResult, len(queued))
	for i, p := range queued {
		results[i] = toResult(p.kind, p.cmder)
	}
	return results, nil
}

func toResult(kind store.CmdKind, cmder redis.Cmder) store.CmdResult {
	switch kind {
	case store.CmdIncr, store.CmdIncrBy, store.CmdDecrBy:
		c := cmder.(*redis.IntCmd)
		if err := c.Err(); err != nil {
			return store.CmdResult{Err: fmt.Errorf("redisstore: %w", err)}
		}
		return store.CmdResult{Int: c.Val()}
	case store.CmdSet:
		c := cmder.(*redis.StatusCmd)
		if err := c.Err(); err != nil {
			return store.CmdResult{Err: fmt.Errorf("redisstore: %w", err)}
		}
		return store.CmdResult{}
	case store.CmdGet:
		c := cmder.(*redis.StringCmd)
		if err := c.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				return store.CmdResult{Err: store.ErrNoSuchKey}
			}
			return store.CmdResult{Err: fmt.Errorf("redisstore: %w", err)}
		}
		v, err := c.Int64()
		if err != nil {
			return store.CmdResult{Err: fmt.Errorf("redisstore: non-numeric value: %w", err)}
		}
		return store.CmdResult{Int: v}
	case store.CmdZAdd:
		c := cmder.(*redis.IntCmd)
		if err := c.Err(); err != nil {
			return store.CmdResult{Err: fmt.Errorf("redisstore: %w", err)}
		}
		return store.CmdResult{}
	case store.CmdZRemRangeByScore:
		c := cmder.(*redis.IntCmd)
		if err := c.Err(); err != nil {
			return store.CmdResult{Err: fmt.Errorf("redisstore: %w", err)}
		}
		return store.CmdResult{}
	case store.CmdZRangeByScore, store.CmdZRevRangeByScore:
		c := cmder.(*redis.StringSliceCmd)
		if err := c.Err(); err != nil {
			return store.CmdResult{Err: fmt.Errorf("redisstore: %w", err)}
		}
		return store.CmdResult{Strs: c.Val()}
	default:
		return store.CmdResult{}
	}
}
