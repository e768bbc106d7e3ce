package metrics

// Family is the resource family a ListMetrics request targets.
type Family string

const (
	FamilyBuckets  Family = "buckets"
	FamilyAccounts Family = "accounts"
	FamilyService  Family = "service"
)

// Request is a validated ListMetrics request: the resources to report on
// and the inclusive-start/exclusive-end range to aggregate over.
type Request struct {
	Family    Family
	Resources []string
	StartMs   int64
	EndMs     int64
}

// Result is one resource's metrics record. ResourceName holds the bucket
// name, account id, or service name depending on Family; it is rendered
// under the matching JSON key by the response encoder rather than stored
// here as a family-qualified field.
type Result struct {
	ResourceName string
	TimeRange    [2]int64

	StorageUtilized [2]int64
	NumberOfObjects [2]int64
	IncomingBytes   int64
	OutgoingBytes   int64
	Operations      map[string]int64
}

// newResult initializes a record with every operation counter at zero, per
// the read path's aggregation rule.
func newResult(resourceName string, startMs, endMs int64) *Result {
	ops := make(map[string]int64, len(operationName))
	for _, name := range operationName {
		ops[name] = 0
	}
	return &Result{
		ResourceName: resourceName,
		TimeRange:    [2]int64{startMs, endMs},
		Operations:   ops,
	}
}
