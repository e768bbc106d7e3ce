package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scality/utapi/schema"
	"github.com/scality/utapi/store/memstore"
)

func int64p(n int64) *int64 { return &n }

func newTestClient(t *testing.T) (*Client, *Lister) {
	t.Helper()
	s := memstore.New()
	c, err := NewClient(Config{Store: s, Component: "s3"})
	require.NoError(t, err)
	l := NewLister(ListerConfig{Store: s, Level: schema.LevelBucket})
	return c, l
}

func TestCreateBucketThenListMetrics(t *testing.T) {
	c, l := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.PushMetric(ctx, EventCreateBucket, "req-1", Params{Bucket: "b1"}))

	now := currentInterval()
	results, err := l.ListMetrics(ctx, []string{"b1"}, now-1, now+1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, [2]int64{0, 0}, r.StorageUtilized)
	assert.Equal(t, [2]int64{0, 0}, r.NumberOfObjects)
	assert.Equal(t, int64(1), r.Operations[OperationName(EventCreateBucket)])
}

func TestPutObjectNewThenListMetrics(t *testing.T) {
	c, l := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.PushMetric(ctx, EventCreateBucket, "req-1", Params{Bucket: "b1"}))
	require.NoError(t, c.PushMetric(ctx, EventPutObject, "req-2", Params{
		Bucket:        "b1",
		NewByteLength: int64p(100),
	}))

	// Start just before the write interval, so the start-side absolutes read
	// the state before any sample was taken.
	now := currentInterval()
	results, err := l.ListMetrics(ctx, []string{"b1"}, now-1, now+int64(schema.IntervalDuration.Milliseconds()))
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, int64(0), r.StorageUtilized[0])
	assert.Equal(t, int64(100), r.StorageUtilized[1])
	assert.Equal(t, int64(0), r.NumberOfObjects[0])
	assert.Equal(t, int64(1), r.NumberOfObjects[1])
	assert.Equal(t, int64(100), r.IncomingBytes)
	assert.Equal(t, int64(1), r.Operations[OperationName(EventPutObject)])
}

func TestPutObjectOverwriteLeavesNumberOfObjectsUnchanged(t *testing.T) {
	c, l := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.PushMetric(ctx, EventCreateBucket, "req-1", Params{Bucket: "b1"}))
	require.NoError(t, c.PushMetric(ctx, EventPutObject, "req-2", Params{Bucket: "b1", NewByteLength: int64p(100)}))
	require.NoError(t, c.PushMetric(ctx, EventPutObject, "req-3", Params{
		Bucket:        "b1",
		NewByteLength: int64p(150),
		OldByteLength: int64p(100),
	}))

	now := currentInterval()
	results, err := l.ListMetrics(ctx, []string{"b1"}, now, now+int64(schema.IntervalDuration.Milliseconds()))
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, int64(150), r.StorageUtilized[1])
	assert.Equal(t, int64(1), r.NumberOfObjects[1])
	assert.Equal(t, int64(250), r.IncomingBytes)
}

func TestPutObjectOverwriteOnUninitializedBucketSucceeds(t *testing.T) {
	c, l := newTestClient(t)
	ctx := context.Background()

	// No CreateBucket first: the numberOfObjects counter key is absent, so
	// the overwrite path's read of it sees no value and samples zero.
	require.NoError(t, c.PushMetric(ctx, EventPutObject, "req-1", Params{
		Bucket:        "b1",
		NewByteLength: int64p(150),
		OldByteLength: int64p(100),
	}))

	now := currentInterval()
	results, err := l.ListMetrics(ctx, []string{"b1"}, now, now+int64(schema.IntervalDuration.Milliseconds()))
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, int64(50), r.StorageUtilized[1])
	assert.Equal(t, int64(0), r.NumberOfObjects[1])
}

func TestDeleteObjectNeverReadsNegative(t *testing.T) {
	c, l := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.PushMetric(ctx, EventCreateBucket, "req-1", Params{Bucket: "b1"}))
	require.NoError(t, c.PushMetric(ctx, EventDeleteObject, "req-2", Params{
		Bucket:          "b1",
		ByteLength:      int64p(100),
		NumberOfObjects: int64p(1),
	}))

	now := currentInterval()
	results, err := l.ListMetrics(ctx, []string{"b1"}, now, now+int64(schema.IntervalDuration.Milliseconds()))
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, int64(0), r.StorageUtilized[1])
	assert.Equal(t, int64(0), r.NumberOfObjects[1])
	assert.Equal(t, int64(1), r.Operations[OperationName(EventDeleteObject)])
}

func TestUploadPartFiveTimesAccumulates(t *testing.T) {
	c, l := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.PushMetric(ctx, EventCreateBucket, "req-1", Params{Bucket: "b1"}))
	const mib = 1 << 20
	for i := 0; i < 5; i++ {
		require.NoError(t, c.PushMetric(ctx, EventUploadPart, "req-up", Params{
			Bucket:        "b1",
			NewByteLength: int64p(mib),
		}))
	}

	now := currentInterval()
	results, err := l.ListMetrics(ctx, []string{"b1"}, now, now+int64(schema.IntervalDuration.Milliseconds()))
	require.NoError(t, err)

	r := results[0]
	assert.Equal(t, int64(5*mib), r.StorageUtilized[1])
	assert.Equal(t, int64(5*mib), r.IncomingBytes)
	assert.Equal(t, int64(5), r.Operations[OperationName(EventUploadPart)])
}

func TestAccountGranularityOnlyWritesWhenConfigured(t *testing.T) {
	s := memstore.New()
	c, err := NewClient(Config{Store: s, Component: "s3", Levels: []schema.Level{schema.LevelAccount}})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.PushMetric(ctx, EventCreateBucket, "req-1", Params{Bucket: "b1", AccountID: "a1"}))

	bucketLister := NewLister(ListerConfig{Store: s, Level: schema.LevelBucket})
	now := currentInterval()
	bucketResults, err := bucketLister.ListMetrics(ctx, []string{"b1"}, now-1, now+1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bucketResults[0].Operations[OperationName(EventCreateBucket)])

	accountLister := NewLister(ListerConfig{Store: s, Level: schema.LevelAccount})
	accountResults, err := accountLister.ListMetrics(ctx, []string{"a1"}, now-1, now+1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), accountResults[0].Operations[OperationName(EventCreateBucket)])
}

func TestDisabledModeIsNoOp(t *testing.T) {
	c, err := NewClient(Config{Component: "s3"})
	require.NoError(t, err)
	assert.NoError(t, c.PushMetric(context.Background(), EventCreateBucket, "req-1", Params{Bucket: "b1"}))
}

func TestPutObjectMissingNewByteLengthIsPrecondition(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.PushMetric(context.Background(), EventPutObject, "req-1", Params{Bucket: "b1"})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestNewClientRequiresComponent(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrPrecondition)
}
