package metrics

import "errors"

// ErrPrecondition is returned when params fails a property-type check before
// any store call is made: a missing required numeric field, a missing
// resource identifier, or a missing component configuration. Surfaced
// synchronously to the caller.
var ErrPrecondition = errors.New("metrics: precondition failed")

// ErrInternal covers any top-level batch failure, or a per-command failure
// whose result feeds the second-phase absolute resampling. The underlying
// cause is logged. PushMetric returns ErrInternal with only the operation
// name attached; Lister.ListMetrics returns it wrapped with the transport
// error's text.
var ErrInternal = errors.New("metrics: internal error")
