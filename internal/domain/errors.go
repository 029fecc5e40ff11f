package domain

import (
	"fmt"
	"time"
)

// ServiceError is the standardized error payload surfaced to callers.
type ServiceError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for the failure scenarios in the prediction pipeline.
const (
	ErrInvalidPayload     = "INVALID_PAYLOAD"
	ErrPredictionNotFound = "NOT_FOUND"
	ErrModelBackend       = "MODEL_BACKEND_ERROR"
	ErrPipeline           = "PIPELINE_ERROR"
	ErrStatusStore        = "STATUS_STORE_ERROR"
	ErrRateLimit          = "RATE_LIMIT_EXCEEDED"
	ErrInternal           = "INTERNAL_SERVER_ERROR"
)

// NewServiceError creates a ServiceError stamped with the current time.
func NewServiceError(code, message, details, requestID string) *ServiceError {
	return &ServiceError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// BackendError wraps a per-disease backend failure. It is always recovered
// at the predictor layer and converted into an errored DiseaseRiskResult.
type BackendError struct {
	Disease DiseaseKey
	Backend BackendKind
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s for %s: %v", e.Backend, e.Disease, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
