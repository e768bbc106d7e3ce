package httpapi

import (
	"encoding/json"

	"github.com/scality/utapi/metrics"
)

// resourceResponse is one element of the ListMetrics response array.
// The resource-name field varies by family (bucketName / accountId /
// serviceName), which is why it is encoded by a custom MarshalJSON rather
// than a single struct tag.
type resourceResponse struct {
	family Family
	result *metrics.Result
}

// Family names the resource family a response element belongs to, reused
// from the read-path Family type so the router and this package agree on
// the three recognized values.
type Family = metrics.Family

func newResourceResponse(family Family, result *metrics.Result) resourceResponse {
	return resourceResponse{family: family, result: result}
}

func (rr resourceResponse) MarshalJSON() ([]byte, error) {
	type body struct {
		StorageUtilized [2]int64         `json:"storageUtilized"`
		TimeRange       [2]int64         `json:"timeRange"`
		IncomingBytes   int64            `json:"incomingBytes"`
		OutgoingBytes   int64            `json:"outgoingBytes"`
		NumberOfObjects [2]int64         `json:"numberOfObjects"`
		Operations      map[string]int64 `json:"operations"`
	}

	raw, err := json.Marshal(body{
		StorageUtilized: rr.result.StorageUtilized,
		TimeRange:       rr.result.TimeRange,
		IncomingBytes:   rr.result.IncomingBytes,
		OutgoingBytes:   rr.result.OutgoingBytes,
		NumberOfObjects: rr.result.NumberOfObjects,
		Operations:      rr.result.Operations,
	})
	if err != nil {
		return nil, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}

	nameRaw, err := json.Marshal(rr.result.ResourceName)
	if err != nil {
		return nil, err
	}
	merged[resourceNameField(rr.family)] = nameRaw

	return json.Marshal(merged)
}

func resourceNameField(family Family) string {
	switch family {
	case metrics.FamilyBuckets:
		return "bucketName"
	case metrics.FamilyAccounts:
		return "accountId"
	default:
		return "serviceName"
	}
}

func renderResults(family Family, results []*metrics.Result) []resourceResponse {
	out := make([]resourceResponse, len(results))
	for i, r := range results {
		out[i] = newResourceResponse(family, r)
	}
	return out
}
