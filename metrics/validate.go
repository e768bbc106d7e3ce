package metrics

import "fmt"

// validateParams enforces the property-type checks each write algorithm
// depends on, before any store call is made. A violation is a precondition
// failure, not an internal error: the caller gave the client bad input.
func validateParams(eventKind EventKind, p Params) error {
	if p.Bucket == "" && p.AccountID == "" {
		return fmt.Errorf("%w: event carries no bucket or account identifier", ErrPrecondition)
	}

	switch eventKind {
	case EventUploadPart:
		if p.NewByteLength == nil {
			return fmt.Errorf("%w: %s requires newByteLength", ErrPrecondition, OperationName(eventKind))
		}
	case EventPutObject, EventCopyObject:
		if p.NewByteLength == nil {
			return fmt.Errorf("%w: %s requires newByteLength", ErrPrecondition, OperationName(eventKind))
		}
	case EventDeleteObject, EventMultiObjectDelete:
		if p.ByteLength == nil || p.NumberOfObjects == nil {
			return fmt.Errorf("%w: %s requires byteLength and numberOfObjects", ErrPrecondition, OperationName(eventKind))
		}
	}
	return nil
}
