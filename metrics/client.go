package metrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/scality/utapi/schema"
	"github.com/scality/utapi/store"
)

// Client is the write path: it classifies an event into one of six write
// algorithms, fans it out across the configured granularities, and emits
// the resulting command batches to the backing store. A Client is
// constructed once per process and passed by reference through request
// handling; it carries no per-request mutable state.
type Client struct {
	store     store.Store
	component string
	levels    map[schema.Level]bool
	log       *logrus.Logger
}

// Config configures a Client. Store may be nil, in which case the client
// enters disabled mode: every PushMetric call is a no-op that returns nil.
// Levels, if empty, means "every granularity present in the event's params".
type Config struct {
	Store     store.Store
	Component string
	Levels    []schema.Level
	Log       *logrus.Logger
}

// NewClient constructs a Client. Component is mandatory even in disabled
// mode, since service-level keys are always derived from it.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Component == "" {
		return nil, fmt.Errorf("%w: component is required", ErrPrecondition)
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	levels := make(map[schema.Level]bool, len(cfg.Levels))
	for _, l := range cfg.Levels {
		levels[l] = true
	}

	return &Client{
		store:     cfg.Store,
		component: cfg.Component,
		levels:    levels,
		log:       log,
	}, nil
}

// granularityParams is one per-granularity record produced by fan-out: the
// resource this level's keys are scoped to, plus the numeric payload shared
// by every level (it is identical across levels; only the resource tag
// differs).
type granularityParams struct {
	resource schema.Params
	p        Params
}

// fanOut intersects the client's configured granularity set with the
// granularities present in p and produces one record per included level.
// service needs nothing from params: it is included whenever the configured
// set allows it, with its id taken from the configured component name.
func (c *Client) fanOut(p Params) []granularityParams {
	included := func(level schema.Level) bool {
		if len(c.levels) == 0 {
			return true
		}
		return c.levels[level]
	}

	var out []granularityParams
	if p.Bucket != "" && included(schema.LevelBucket) {
		out = append(out, granularityParams{resource: schema.Params{Level: schema.LevelBucket, ID: p.Bucket}, p: p})
	}
	if p.AccountID != "" && included(schema.LevelAccount) {
		out = append(out, granularityParams{resource: schema.Params{Level: schema.LevelAccount, ID: p.AccountID}, p: p})
	}
	if included(schema.LevelService) {
		out = append(out, granularityParams{resource: schema.Params{Level: schema.LevelService, ID: c.component}, p: p})
	}
	return out
}

// PushMetric is the client's single public write operation. It validates
// params, fans the event out across the configured granularities, and
// applies the write algorithm for eventKind to each resulting resource
// independently.
func (c *Client) PushMetric(ctx context.Context, eventKind EventKind, requestID string, p Params) error {
	if c.store == nil {
		return nil
	}
	if err := validateParams(eventKind, p); err != nil {
		return err
	}

	interval := currentInterval()
	for _, gp := range c.fanOut(p) {
		if err := c.apply(ctx, eventKind, gp.resource, gp.p, interval); err != nil {
			c.log.WithFields(logrus.Fields{
				"requestId": requestID,
				"eventKind": OperationName(eventKind),
				"resource":  gp.resource,
			}).WithError(err).Error("pushMetric failed")
			return fmt.Errorf("%w: %s", ErrInternal, OperationName(eventKind))
		}
	}
	return nil
}

// apply routes to one of the six write algorithms and executes its batch(es)
// against the store.
func (c *Client) apply(ctx context.Context, eventKind EventKind, r schema.Params, p Params, interval int64) error {
	switch eventKind {
	case EventCreateBucket:
		return c.applyCreateBucket(ctx, r, interval)
	case EventUploadPart:
		return c.applyUploadPart(ctx, r, p, interval)
	case EventCompleteMultipartUpload:
		return c.applyCompleteMultipartUpload(ctx, r, interval)
	case EventPutObject, EventCopyObject:
		return c.applyPutOrCopyObject(ctx, eventKind, r, p, interval)
	case EventDeleteObject, EventMultiObjectDelete:
		return c.applyDelete(ctx, eventKind, r, p, interval)
	default:
		return c.applyGenericIncrement(ctx, eventKind, r, p, interval)
	}
}

// applyGenericIncrement handles every ACL/HEAD/LIST/multipart-lifecycle
// operation: incr the operation counter, optionally prefixed by an incrby
// against a traffic delta when byteLength is present.
func (c *Client) applyGenericIncrement(ctx context.Context, eventKind EventKind, r schema.Params, p Params, interval int64) error {
	cmds := []store.Cmd{store.Incr(schema.GenerateKey(r, OperationName(eventKind), interval))}
	if p.ByteLength != nil {
		trafficMetric := trafficMetricFor(eventKind)
		if trafficMetric != "" {
			cmds = append([]store.Cmd{store.IncrBy(schema.GenerateKey(r, trafficMetric, interval), *p.ByteLength)}, cmds...)
		}
	}
	return c.exec(ctx, cmds)
}

// trafficMetricFor names the traffic delta a generic operation should also
// increment when it carries a byte length. Only GetObject records outgoing
// traffic through the generic path; PutObject/CopyObject/UploadPart have
// their own dedicated algorithms and account for incomingBytes there.
func trafficMetricFor(eventKind EventKind) string {
	if eventKind == EventGetObject {
		return schema.MetricOutgoingBytes
	}
	return ""
}

// applyCreateBucket zeroes both absolute counters and writes fresh 0-value
// samples at the creation interval, establishing t0 of the resource
// timeline. The operation counter is set to 1 at bucket granularity (this is
// the resource's first event) or incremented at account/service
// granularity, where the same component may have created many buckets.
func (c *Client) applyCreateBucket(ctx context.Context, r schema.Params, interval int64) error {
	cmds := []store.Cmd{
		store.Set(schema.GenerateCounter(r, schema.MetricStorageUtilized), 0),
		store.Set(schema.GenerateCounter(r, schema.MetricNumberOfObjects), 0),
		store.ZRemRangeByScore(schema.GenerateStateKey(r, schema.MetricStorageUtilized), float64(interval)),
		store.ZAdd(schema.GenerateStateKey(r, schema.MetricStorageUtilized), float64(interval), "0"),
		store.ZRemRangeByScore(schema.GenerateStateKey(r, schema.MetricNumberOfObjects), float64(interval)),
		store.ZAdd(schema.GenerateStateKey(r, schema.MetricNumberOfObjects), float64(interval), "0"),
	}
	opKey := schema.GenerateKey(r, OperationName(EventCreateBucket), interval)
	if r.Level == schema.LevelBucket {
		cmds = append(cmds, store.Set(opKey, 1))
	} else {
		cmds = append(cmds, store.Incr(opKey))
	}
	return c.exec(ctx, cmds)
}

// applyUploadPart incrbys the storage counter and incomingBytes by the same
// amount, incrs the operation counter, then re-samples storageUtilized into
// the state set in a second batch derived from the first batch's counter
// snapshot.
func (c *Client) applyUploadPart(ctx context.Context, r schema.Params, p Params, interval int64) error {
	n := deref(p.NewByteLength)

	result, err := c.exec1(ctx, []store.Cmd{
		store.IncrBy(schema.GenerateCounter(r, schema.MetricStorageUtilized), n),
		store.IncrBy(schema.GenerateKey(r, schema.MetricIncomingBytes, interval), n),
		store.Incr(schema.GenerateKey(r, OperationName(EventUploadPart), interval)),
	})
	if err != nil {
		return err
	}

	return c.resample(ctx, r, schema.MetricStorageUtilized, clampNegative(result[0].Int), interval)
}

// applyCompleteMultipartUpload increments numberOfObjects and the operation
// counter, then re-samples numberOfObjects.
func (c *Client) applyCompleteMultipartUpload(ctx context.Context, r schema.Params, interval int64) error {
	result, err := c.exec1(ctx, []store.Cmd{
		store.Incr(schema.GenerateCounter(r, schema.MetricNumberOfObjects)),
		store.Incr(schema.GenerateKey(r, OperationName(EventCompleteMultipartUpload), interval)),
	})
	if err != nil {
		return err
	}
	return c.resample(ctx, r, schema.MetricNumberOfObjects, clampNegative(result[0].Int), interval)
}

// applyPutOrCopyObject computes Δstorage = newByteLength - (oldByteLength ??
// 0). A nil oldByteLength means this is a new object: numberOfObjects is
// incremented. A present oldByteLength means an overwrite: numberOfObjects
// is read, not written, since the object count didn't change. PutObject
// additionally records incomingBytes; CopyObject does not, since the bytes
// never traversed the ingest path.
func (c *Client) applyPutOrCopyObject(ctx context.Context, eventKind EventKind, r schema.Params, p Params, interval int64) error {
	delta := deref(p.NewByteLength) - deref(p.OldByteLength)

	cmds := []store.Cmd{
		store.IncrBy(schema.GenerateCounter(r, schema.MetricStorageUtilized), delta),
	}
	numObjIdx := -1
	if p.OldByteLength == nil {
		numObjIdx = len(cmds)
		cmds = append(cmds, store.Incr(schema.GenerateCounter(r, schema.MetricNumberOfObjects)))
	} else {
		numObjIdx = len(cmds)
		cmds = append(cmds, store.Get(schema.GenerateCounter(r, schema.MetricNumberOfObjects)))
	}
	if eventKind == EventPutObject {
		cmds = append(cmds, store.IncrBy(schema.GenerateKey(r, schema.MetricIncomingBytes, interval), deref(p.NewByteLength)))
	}
	cmds = append(cmds, store.Incr(schema.GenerateKey(r, OperationName(eventKind), interval)))

	results, err := c.exec1(ctx, cmds)
	if err != nil {
		return err
	}

	storageVal := clampNegative(results[0].Int)
	numObjVal := results[numObjIdx].Int
	if results[numObjIdx].Err != nil {
		numObjVal = 0
	}
	numObjVal = clampNegative(numObjVal)

	if err := c.resample(ctx, r, schema.MetricStorageUtilized, storageVal, interval); err != nil {
		return err
	}
	return c.resample(ctx, r, schema.MetricNumberOfObjects, numObjVal, interval)
}

// applyDelete decrements both absolute counters, increments the operation
// counter, then re-samples both state sets. The counters themselves may go
// negative when deletes race ahead of puts; clamping happens only at sample
// time, so a later put still reconciles the counter to the true value.
func (c *Client) applyDelete(ctx context.Context, eventKind EventKind, r schema.Params, p Params, interval int64) error {
	results, err := c.exec1(ctx, []store.Cmd{
		store.DecrBy(schema.GenerateCounter(r, schema.MetricStorageUtilized), deref(p.ByteLength)),
		store.DecrBy(schema.GenerateCounter(r, schema.MetricNumberOfObjects), deref(p.NumberOfObjects)),
		store.Incr(schema.GenerateKey(r, OperationName(eventKind), interval)),
	})
	if err != nil {
		return err
	}

	storageVal := clampNegative(results[0].Int)
	numObjVal := clampNegative(results[1].Int)

	if err := c.resample(ctx, r, schema.MetricStorageUtilized, storageVal, interval); err != nil {
		return err
	}
	return c.resample(ctx, r, schema.MetricNumberOfObjects, numObjVal, interval)
}

// resample is the sampling pattern shared by every absolute-level write:
// remove any existing entry at exactly this interval, then insert the
// current value. Executed as one pipeline so no reader ever observes the
// state set empty at a sampled interval once a writer has completed.
func (c *Client) resample(ctx context.Context, r schema.Params, metric string, value int64, interval int64) error {
	key := schema.GenerateStateKey(r, metric)
	_, err := c.exec1(ctx, []store.Cmd{
		store.ZRemRangeByScore(key, float64(interval)),
		store.ZAdd(key, float64(interval), fmt.Sprintf("%d", value)),
	})
	return err
}

func (c *Client) exec(ctx context.Context, cmds []store.Cmd) error {
	_, err := c.exec1(ctx, cmds)
	return err
}

// exec1 runs cmds as a single batch and surfaces both transport-level and
// per-command failures as ErrInternal, logging the underlying cause. A Get
// against an absent key is not a failure: the schema defines absence as
// zero, and callers reading a counter snapshot handle it as such.
func (c *Client) exec1(ctx context.Context, cmds []store.Cmd) ([]store.CmdResult, error) {
	results, err := c.store.Batch(ctx, cmds)
	if err != nil {
		c.log.WithError(err).Error("batch transport failure")
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	for _, r := range results {
		if r.Err != nil && !errors.Is(r.Err, store.ErrNoSuchKey) {
			c.log.WithError(r.Err).Error("batch command failure")
			return nil, fmt.Errorf("%w: %v", ErrInternal, r.Err)
		}
	}
	return results, nil
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func clampNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
