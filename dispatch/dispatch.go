// Package dispatch routes an incoming ListMetrics request for a resource
// family to the appropriate Lister and assembles the response.
package dispatch

import (
	"context"
	"fmt"

	"github.com/scality/utapi/metrics"
	"github.com/scality/utapi/schema"
	"github.com/scality/utapi/store"
)

// Dispatcher constructs the right Lister for a request's family and awaits
// its completion. One Dispatcher is constructed per process and shared
// across requests; it holds no per-request state.
type Dispatcher struct {
	store       store.Store
	component   string
	concurrency int
}

// Config configures a Dispatcher.
type Config struct {
	Store       store.Store
	Component   string
	Concurrency int
}

func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{store: cfg.Store, component: cfg.Component, concurrency: cfg.Concurrency}
}

// Dispatch validates and serves req, synthesizing a single-element resource
// list from the configured component name for the service family.
func (d *Dispatcher) Dispatch(ctx context.Context, req metrics.Request) ([]*metrics.Result, error) {
	if req.EndMs < req.StartMs {
		return nil, fmt.Errorf("%w: end precedes start", metrics.ErrPrecondition)
	}

	level, resources, err := d.resolve(req)
	if err != nil {
		return nil, err
	}

	lister := metrics.NewLister(metrics.ListerConfig{
		Store:       d.store,
		Level:       level,
		Concurrency: d.concurrency,
	})
	return lister.ListMetrics(ctx, resources, req.StartMs, req.EndMs)
}

func (d *Dispatcher) resolve(req metrics.Request) (schema.Level, []string, error) {
	switch req.Family {
	case metrics.FamilyBuckets:
		if len(req.Resources) == 0 {
			return "", nil, fmt.Errorf("%w: buckets request requires at least one bucket name", metrics.ErrPrecondition)
		}
		return schema.LevelBucket, req.Resources, nil
	case metrics.FamilyAccounts:
		if len(req.Resources) == 0 {
			return "", nil, fmt.Errorf("%w: accounts request requires at least one account id", metrics.ErrPrecondition)
		}
		return schema.LevelAccount, req.Resources, nil
	case metrics.FamilyService:
		return schema.LevelService, []string{d.component}, nil
	default:
		return "", nil, fmt.Errorf("%w: unrecognized family %q", metrics.ErrPrecondition, req.Family)
	}
}
