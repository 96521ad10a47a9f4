// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeMalformedInput  Code = "MALFORMED_INPUT"
	CodeInvalidFilter   Code = "INVALID_FILTER"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// Tick navigation errors
	CodeTickUnreachable   Code = "TICK_UNREACHABLE"
	CodeTotalTicksUnknown Code = "TOTAL_TICKS_UNKNOWN"
	CodeNoRecordingLoaded Code = "NO_RECORDING_LOADED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Invariant violations surfaced at a process boundary
	CodeInternal Code = "INTERNAL"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeMalformedInput,
		CodeInvalidFilter,
		CodeInvalidArgument:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeTickUnreachable,
		CodeNoRecordingLoaded:
		return codes.FailedPrecondition

	// Unimplemented - the stream cannot answer
	case CodeTotalTicksUnknown:
		return codes.Unimplemented

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
