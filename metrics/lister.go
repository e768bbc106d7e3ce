package metrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/scality/utapi/schema"
	"github.com/scality/utapi/store"
)

// DefaultConcurrency bounds how many per-resource batches a Lister issues
// at once.
const DefaultConcurrency = 5

// Lister is the read path: given a resource list and time range, it issues
// one pipelined batch per resource and folds the results into a metrics
// record. The same implementation serves buckets, accounts, and service
// uniformly; only the Level differs.
type Lister struct {
	store       store.Store
	level       schema.Level
	concurrency int
	log         *logrus.Logger
}

// ListerConfig configures a Lister. Concurrency defaults to
// DefaultConcurrency when zero or negative.
type ListerConfig struct {
	Store       store.Store
	Level       schema.Level
	Concurrency int
	Log         *logrus.Logger
}

func NewLister(cfg ListerConfig) *Lister {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Lister{store: cfg.Store, level: cfg.Level, concurrency: concurrency, log: log}
}

// ListMetrics computes one Result per resource, with at most l.concurrency
// per-resource batches in flight at a time.
func (l *Lister) ListMetrics(ctx context.Context, resources []string, startMs, endMs int64) ([]*Result, error) {
	results := make([]*Result, len(resources))
	errs := make([]error, len(resources))

	semaphore := make(chan struct{}, l.concurrency)
	var wg sync.WaitGroup

	for i, resource := range resources {
		wg.Add(1)
		go func(idx int, resourceName string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			r, err := l.listOne(ctx, resourceName, startMs, endMs)
			results[idx] = r
			errs[idx] = err
		}(i, resource)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// listOne builds and executes the single pipelined batch for one resource,
// then folds the results into a Result record.
func (l *Lister) listOne(ctx context.Context, resourceName string, startMs, endMs int64) (*Result, error) {
	r := schema.Params{Level: l.level, ID: resourceName}
	res := newResult(resourceName, startMs, endMs)

	intervals := schema.EnumerateIntervals(startMs, endMs)
	deltaMetrics := append(append([]string{}, operationName[:]...), schema.MetricIncomingBytes, schema.MetricOutgoingBytes)

	var cmds []store.Cmd
	var keys []string
	for _, interval := range intervals {
		for _, metric := range deltaMetrics {
			key := schema.GenerateKey(r, metric, interval)
			cmds = append(cmds, store.Get(key))
			keys = append(keys, key)
		}
	}

	storageStateKey := schema.GenerateStateKey(r, schema.MetricStorageUtilized)
	numObjStateKey := schema.GenerateStateKey(r, schema.MetricNumberOfObjects)
	cmds = append(cmds,
		store.ZRevRangeByScore(storageStateKey, float64(startMs), 1),
		store.ZRevRangeByScore(storageStateKey, float64(endMs), 1),
		store.ZRevRangeByScore(numObjStateKey, float64(startMs), 1),
		store.ZRevRangeByScore(numObjStateKey, float64(endMs), 1),
	)

	results, err := l.store.Batch(ctx, cmds)
	if err != nil {
		l.log.WithError(err).WithField("resource", resourceName).Error("list batch transport failure")
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	deltaCount := len(keys)
	for i := 0; i < deltaCount; i++ {
		cmdResult := results[i]
		val := parseIntOrZero(l, cmdResult, keys[i])

		metric, err := schema.GetMetricFromKey(keys[i], r)
		if err != nil {
			l.log.WithError(err).WithField("key", keys[i]).Warn("unparseable delta key")
			continue
		}
		switch metric {
		case schema.MetricIncomingBytes:
			res.IncomingBytes += val
		case schema.MetricOutgoingBytes:
			res.OutgoingBytes += val
		default:
			res.Operations[metric] += val
		}
	}

	tail := results[deltaCount:]
	res.StorageUtilized[0] = parseAbsOrZero(tail[0])
	res.StorageUtilized[1] = parseAbsOrZero(tail[1])
	res.NumberOfObjects[0] = parseAbsOrZero(tail[2])
	res.NumberOfObjects[1] = parseAbsOrZero(tail[3])

	return res, nil
}

// parseIntOrZero implements the delta aggregation failure policy: a failed
// sub-command is logged and treated as zero, never failing the request. A
// missing key is also zero, without a log line.
func parseIntOrZero(l *Lister, r store.CmdResult, key string) int64 {
	if r.Err != nil {
		if r.Err != store.ErrNoSuchKey {
			l.log.WithError(r.Err).WithField("key", key).Warn("delta read failed, treating as zero")
		}
		return 0
	}
	return r.Int
}

// parseAbsOrZero reads the nearest-neighbor absolute sample, clamping
// negative values to zero and treating a missing sample as zero.
func parseAbsOrZero(r store.CmdResult) int64 {
	if r.Err != nil || len(r.Strs) == 0 {
		return 0
	}
	v, err := strconv.ParseInt(r.Strs[0], 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
