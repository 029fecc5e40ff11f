// Package domain contains the core business entities and types for
// multi-disease health-risk inference: prediction requests, normalized
// feature sets, per-disease risk results, and their supporting enumerations.
package domain

import "errors"

// RequestStatus represents the lifecycle state of a prediction request.
// Terminal states (completed, failed) are never left once entered.
type RequestStatus string

const (
	StatusQueued     RequestStatus = "queued"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusFailed     RequestStatus = "failed"
)

// BackendKind identifies the execution strategy backing a disease model.
type BackendKind string

const (
	BackendNativeTensor    BackendKind = "native-tensor"
	BackendExternalProcess BackendKind = "external-process"
	BackendRuleBased       BackendKind = "rule-based"
)

// DiseaseKey identifies one of the supported risk models.
type DiseaseKey string

const (
	DiseaseCardiovascular DiseaseKey = "cardiovascular_disease"
	DiseaseDiabetesType2  DiseaseKey = "diabetes_type2"
	DiseaseChronicKidney  DiseaseKey = "chronic_kidney_disease"
	DiseaseStroke         DiseaseKey = "stroke"

	// DiseaseEnsemble is the synthetic descriptor key holding the
	// ensemble weight table; it is never dispatched to a backend.
	DiseaseEnsemble DiseaseKey = "ensemble"
)

// SupportedDiseases lists every dispatchable disease key in a fixed order.
// The ensemble key is deliberately excluded.
var SupportedDiseases = []DiseaseKey{
	DiseaseCardiovascular,
	DiseaseDiabetesType2,
	DiseaseChronicKidney,
	DiseaseStroke,
}

// RiskCategory buckets a risk score for human-facing explanations.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
	RiskVeryHigh RiskCategory = "very_high"
)

// RecommendationPriority orders recommendations for presentation.
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

// RecommendationCategory groups recommendations by the kind of action.
type RecommendationCategory string

const (
	CategoryMedical    RecommendationCategory = "medical"
	CategoryLifestyle  RecommendationCategory = "lifestyle"
	CategoryMonitoring RecommendationCategory = "monitoring"
)

// LifecycleEvent names the observable coordinator signals.
type LifecycleEvent string

const (
	EventQueued    LifecycleEvent = "queued"
	EventCompleted LifecycleEvent = "completed"
	EventFailed    LifecycleEvent = "failed"
)

// Validation errors for state and enumeration integrity.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidStatus      = errors.New("invalid request status")
	ErrInvalidBackendKind = errors.New("invalid backend kind")
	ErrInvalidDiseaseKey  = errors.New("invalid disease key")
	ErrRequestNotQueued   = errors.New("request is no longer queued")
)

// IsTerminal reports whether the status can never change again.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

func (s RequestStatus) String() string { return string(s) }

// IsValid reports whether the backend kind is a member of the closed set.
func (b BackendKind) IsValid() bool {
	switch b {
	case BackendNativeTensor, BackendExternalProcess, BackendRuleBased:
		return true
	default:
		return false
	}
}

func (b BackendKind) String() string { return string(b) }

// IsValid reports whether the key names a dispatchable disease model.
func (d DiseaseKey) IsValid() bool {
	for _, key := range SupportedDiseases {
		if d == key {
			return true
		}
	}
	return false
}

func (d DiseaseKey) String() string { return string(d) }

// CategorizeRisk maps a risk score onto the fixed category thresholds
// shared by every disease.
func CategorizeRisk(score float64) RiskCategory {
	switch {
	case score < 0.2:
		return RiskLow
	case score < 0.5:
		return RiskModerate
	case score < 0.8:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// Rank returns the sort weight of a priority; higher sorts first.
func (p RecommendationPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p RecommendationPriority) String() string { return string(p) }

func (c RecommendationCategory) String() string { return string(c) }

func (e LifecycleEvent) String() string { return string(e) }
