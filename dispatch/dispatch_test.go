package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scality/utapi/metrics"
	"github.com/scality/utapi/store/memstore"
)

func TestDispatchServiceFamilySynthesizesComponentResource(t *testing.T) {
	s := memstore.New()
	d := NewDispatcher(Config{Store: s, Component: "s3"})

	results, err := d.Dispatch(context.Background(), metrics.Request{
		Family:  metrics.FamilyService,
		StartMs: 0,
		EndMs:   1,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s3", results[0].ResourceName)
}

func TestDispatchBucketsRequiresResources(t *testing.T) {
	s := memstore.New()
	d := NewDispatcher(Config{Store: s, Component: "s3"})

	_, err := d.Dispatch(context.Background(), metrics.Request{
		Family:  metrics.FamilyBuckets,
		StartMs: 0,
		EndMs:   1,
	})
	assert.ErrorIs(t, err, metrics.ErrPrecondition)
}

func TestDispatchRejectsInvertedRange(t *testing.T) {
	s := memstore.New()
	d := NewDispatcher(Config{Store: s, Component: "s3"})

	_, err := d.Dispatch(context.Background(), metrics.Request{
		Family:    metrics.FamilyBuckets,
		Resources: []string{"b1"},
		StartMs:   10,
		EndMs:     5,
	})
	assert.ErrorIs(t, err, metrics.ErrPrecondition)
}

func TestDispatchUnrecognizedFamily(t *testing.T) {
	s := memstore.New()
	d := NewDispatcher(Config{Store: s, Component: "s3"})

	_, err := d.Dispatch(context.Background(), metrics.Request{
		Family:  "bogus",
		StartMs: 0,
		EndMs:   1,
	})
	assert.ErrorIs(t, err, metrics.ErrPrecondition)
}
