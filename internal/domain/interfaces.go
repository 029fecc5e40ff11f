package domain

import (
	"context"
	"time"
)

// TensorModel is the handle to an in-process tensor model. Invocation is
// synchronous and non-blocking; the runtime itself lives outside this module.
type TensorModel interface {
	Invoke(vector []float64) (float64, error)
	Version() string
}

// ModelLoader loads in-process tensor models at registry startup.
type ModelLoader interface {
	LoadModel(disease DiseaseKey) (TensorModel, error)
}

// ExternalModelResponse is the JSON-shaped reply of an out-of-process
// model runtime.
type ExternalModelResponse struct {
	RiskScore    float64 `json:"risk_score"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
}

// ExternalModelClient invokes an out-of-process model runtime synchronously,
// bounded by the caller-provided timeout.
type ExternalModelClient interface {
	Invoke(ctx context.Context, disease DiseaseKey, features *NormalizedFeatureSet, timeout time.Duration) (*ExternalModelResponse, error)
	// Ping verifies that a runtime model is reachable for the disease.
	// Used by the registry during descriptor resolution.
	Ping(ctx context.Context, disease DiseaseKey) error
}

// StatusStore is the external TTL-bound key-value store for prediction
// status records. Each write is independent; no cross-key locking.
type StatusStore interface {
	Set(ctx context.Context, predictionID string, record *StatusRecord, ttl time.Duration) error
	Get(ctx context.Context, predictionID string) (*StatusRecord, error)
}

// AuditSink receives completed result bundles fire-and-forget. A sink
// failure never affects the request's terminal state.
type AuditSink interface {
	Store(ctx context.Context, predictionID string, bundle *ResultBundle) error
}
