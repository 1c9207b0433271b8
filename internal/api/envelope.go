package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire format version clients negotiate against.
// Bump only when the envelope structure itself changes.
const EnvelopeVersion = 1

// APIEnvelope wraps every response in a versioned structure so clients can
// distinguish success payloads from errors without inspecting status codes.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope is the detailed error form, used when the error carries a
// machine-readable code and optional details.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps huma response bodies in the versioned envelope.
// Registered via huma config Transformers so every route gets it.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	// Errors surface as either the detailed or the simple envelope.
	if apiErr, ok := v.(*APIError); ok {
		if apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   apiErr.Message,
		}, nil
	}

	if err, ok := v.(error); ok {
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	if len(status) > 0 && status[0] != '2' {
		// Non-2xx with a non-error body still reads as a failure.
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Data:    v,
		}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
