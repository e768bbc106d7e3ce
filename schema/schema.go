// Package schema derives backing-store keys for the utilization-tracking
// engine. Every function here is a pure, deterministic transform from a
// (level, resource id, metric, interval) tuple to a string key; no function
// in this package talks to a store.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is one of the three resource families tracked independently and
// symmetrically by the engine.
type Level string

const (
	LevelBucket  Level = "bucket"
	LevelAccount Level = "account"
	LevelService Level = "service"
)

// Absolute-level metric names. These have a running counter plus a sampled
// state set, as opposed to delta metrics which only have interval counters.
const (
	MetricStorageUtilized = "storageUtilized"
	MetricNumberOfObjects = "numberOfObjects"
)

// Traffic delta metric names.
const (
	MetricIncomingBytes = "incomingBytes"
	MetricOutgoingBytes = "outgoingBytes"
)

// Params identifies the resource a key belongs to: its level and the
// resource-specific identifier (bucket name, account id, or service name).
type Params struct {
	Level Level
	ID    string
}

// resourceTag is the `{level}:{id}` prefix shared by every key shape in this
// package.
func (p Params) resourceTag() string {
	return string(p.Level) + ":" + p.ID
}

// GenerateKey derives the interval-scoped delta key for an operation counter
// or a traffic metric: `R:{metric}:{interval}`.
func GenerateKey(p Params, metric string, interval int64) string {
	return fmt.Sprintf("%s:%s:%d", p.resourceTag(), metric, interval)
}

// GenerateStateKey derives the sorted-set key holding the sampled history of
// an absolute metric: `R:state:{metric}`.
func GenerateStateKey(p Params, metric string) string {
	return fmt.Sprintf("%s:state:%s", p.resourceTag(), metric)
}

// GenerateCounter derives the unscoped running-counter key for an absolute
// metric: `R:counter:{metric}`.
func GenerateCounter(p Params, metric string) string {
	return fmt.Sprintf("%s:counter:%s", p.resourceTag(), metric)
}

// GetCounters returns every running-counter key tracked for a resource.
func GetCounters(p Params) []string {
	return []string{
		GenerateCounter(p, MetricStorageUtilized),
		GenerateCounter(p, MetricNumberOfObjects),
	}
}

// GetMetricFromKey recovers the metric name embedded in a delta key produced
// by GenerateKey, given the resource it belongs to. The schema is reversible
// by design: a reader holding a key plus the resource identifier can always
// recover which metric it names without a side lookup.
func GetMetricFromKey(key string, p Params) (string, error) {
	prefix := p.resourceTag() + ":"
	if !strings.HasPrefix(key, prefix) {
		return "", fmt.Errorf("schema: key %q does not belong to resource %q", key, p.resourceTag())
	}
	rest := key[len(prefix):]
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", fmt.Errorf("schema: key %q is not interval-scoped", key)
	}
	metric, interval := rest[:idx], rest[idx+1:]
	if _, err := strconv.ParseInt(interval, 10, 64); err != nil {
		return "", fmt.Errorf("schema: key %q has a non-numeric interval suffix: %w", key, err)
	}
	return metric, nil
}
