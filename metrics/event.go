// Package metrics implements the write path (Client) and read path
// (Lister) of the utilization-tracking engine: it classifies ingested
// events into one of six write algorithms, fans them out across the
// configured granularities, and reconstructs per-interval metrics plus
// nearest-neighbor absolutes over an arbitrary time range.
package metrics

// EventKind enumerates every operation the engine accounts for. The source
// system dispatches on a string name; here a closed integer enum is used
// instead, and the classification switch in Client.apply sends every kind
// without a dedicated algorithm to the generic increment.
type EventKind int

const (
	EventCreateBucket EventKind = iota
	EventDeleteBucket
	EventListBucket
	EventGetBucketAcl
	EventPutBucketAcl
	EventPutBucketWebsite
	EventGetBucketWebsite
	EventDeleteBucketWebsite
	EventPutObject
	EventCopyObject
	EventUploadPart
	EventListBucketMultipartUploads
	EventListMultipartUploadParts
	EventInitiateMultipartUpload
	EventCompleteMultipartUpload
	EventAbortMultipartUpload
	EventDeleteObject
	EventMultiObjectDelete
	EventGetObject
	EventGetObjectAcl
	EventPutObjectAcl
	EventHeadBucket
	EventHeadObject
)

// operationName is the canonical, verbatim `s3:`-prefixed name stored as the
// key suffix and reported in the ListMetrics response. Order matches the
// EventKind iota block; any new kind must be appended to both.
var operationName = [...]string{
	EventCreateBucket:               "s3:CreateBucket",
	EventDeleteBucket:               "s3:DeleteBucket",
	EventListBucket:                 "s3:ListBucket",
	EventGetBucketAcl:               "s3:GetBucketAcl",
	EventPutBucketAcl:               "s3:PutBucketAcl",
	EventPutBucketWebsite:           "s3:PutBucketWebsite",
	EventGetBucketWebsite:           "s3:GetBucketWebsite",
	EventDeleteBucketWebsite:        "s3:DeleteBucketWebsite",
	EventPutObject:                  "s3:PutObject",
	EventCopyObject:                 "s3:CopyObject",
	EventUploadPart:                 "s3:UploadPart",
	EventListBucketMultipartUploads: "s3:ListBucketMultipartUploads",
	EventListMultipartUploadParts:   "s3:ListMultipartUploadParts",
	EventInitiateMultipartUpload:    "s3:InitiateMultipartUpload",
	EventCompleteMultipartUpload:    "s3:CompleteMultipartUpload",
	EventAbortMultipartUpload:       "s3:AbortMultipartUpload",
	EventDeleteObject:               "s3:DeleteObject",
	EventMultiObjectDelete:          "s3:MultiObjectDelete",
	EventGetObject:                  "s3:GetObject",
	EventGetObjectAcl:               "s3:GetObjectAcl",
	EventPutObjectAcl:               "s3:PutObjectAcl",
	EventHeadBucket:                 "s3:HeadBucket",
	EventHeadObject:                 "s3:HeadObject",
}

// OperationName returns the canonical stored/reported name for kind.
func OperationName(kind EventKind) string {
	return operationName[kind]
}

// OperationNames lists every recognized operation name, in EventKind order.
// ListMetrics responses initialize every one of these to zero before
// summation, per the read path's aggregation rule.
func OperationNames() []string {
	names := make([]string, len(operationName))
	copy(names, operationName[:])
	return names
}

// eventKindByName inverts operationName for callers that only have the
// verbatim s3: operation string, such as the replay CLI reading a JSON
// Lines event log.
var eventKindByName = func() map[string]EventKind {
	m := make(map[string]EventKind, len(operationName))
	for kind, name := range operationName {
		m[name] = EventKind(kind)
	}
	return m
}()

// ParseEventKind resolves the canonical s3: operation name to its EventKind.
// ok is false for an unrecognized name.
func ParseEventKind(name string) (kind EventKind, ok bool) {
	kind, ok = eventKindByName[name]
	return kind, ok
}

// Params is the duck-typed event payload from the source system modeled as
// a single typed struct: a granularity-identifier union plus optional
// numeric fields. Only the fields relevant to eventKind's write algorithm
// are read; the rest may be nil.
type Params struct {
	Bucket    string
	AccountID string

	// Service is accepted for symmetry with the other identifiers, but the
	// client always records service-level keys under its own configured
	// component name, so any value here is not consulted.
	Service string

	ByteLength      *int64
	NewByteLength   *int64
	OldByteLength   *int64
	NumberOfObjects *int64
}
