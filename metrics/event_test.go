package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEventKindRoundTripsEveryOperationName(t *testing.T) {
	for kind, name := range operationName {
		got, ok := ParseEventKind(name)
		assert.True(t, ok, "name %q should resolve", name)
		assert.Equal(t, EventKind(kind), got)
	}
}

func TestParseEventKindRejectsUnknownName(t *testing.T) {
	_, ok := ParseEventKind("s3:NotARealOperation")
	assert.False(t, ok)
}

func TestListBucketMultipartUploadsStoredNameMatchesOpenQuestionResolution(t *testing.T) {
	assert.Equal(t, "s3:ListBucketMultipartUploads", OperationName(EventListBucketMultipartUploads))
}
