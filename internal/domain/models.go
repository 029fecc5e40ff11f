package domain

import (
	"time"
)

// PredictionRequest tracks one submitted prediction through its lifecycle.
// It is owned exclusively by the coordinator after submission and becomes
// immutable once it reaches a terminal status.
type PredictionRequest struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patient_id"`
	CreatedAt time.Time         `json:"created_at"`
	Payload   map[string]any    `json:"payload"`
	Options   PredictionOptions `json:"options"`

	Status RequestStatus `json:"status"`
	Result *ResultBundle `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// PredictionOptions carries caller-supplied knobs for one prediction.
type PredictionOptions struct {
	// Diseases restricts the prediction to a subset of the supported
	// disease keys. Empty means all supported diseases.
	Diseases []DiseaseKey `json:"diseases,omitempty"`
	// ExternalTimeout bounds each out-of-process model invocation.
	// Zero means the configured default.
	ExternalTimeout time.Duration `json:"external_timeout,omitempty"`
}

// ModelDescriptor describes the resolved model for one disease key.
// Descriptors are loaded once at startup and read-only thereafter.
type ModelDescriptor struct {
	Disease          DiseaseKey  `json:"disease"`
	Backend          BackendKind `json:"backend"`
	Version          string      `json:"version"`
	RequiredFeatures []string    `json:"required_features,omitempty"`
	OptionalFeatures []string    `json:"optional_features,omitempty"`
	DerivedFeatures  []string    `json:"derived_features,omitempty"`

	// EnsembleWeights is populated only on the synthetic ensemble
	// descriptor. Weights need not sum to 1; the aggregator renormalizes.
	EnsembleWeights map[DiseaseKey]float64 `json:"ensemble_weights,omitempty"`
}

// Demographics holds the patient's defaulted demographic fields.
type Demographics struct {
	Age    float64 `json:"age"`
	Gender string  `json:"gender"`
}

// Vitals holds latest-value vital signs. Array-valued inputs are reduced
// to their last element before landing here.
type Vitals struct {
	BloodPressureSystolic  float64 `json:"blood_pressure_systolic"`
	BloodPressureDiastolic float64 `json:"blood_pressure_diastolic"`
	HeartRate              float64 `json:"heart_rate"`
	WeightKg               float64 `json:"weight_kg"`
	HeightCm               float64 `json:"height_cm"`
}

// LabResults holds defaulted laboratory values.
type LabResults struct {
	GlucoseFasting   float64 `json:"glucose_fasting"`
	HbA1c            float64 `json:"hba1c"`
	CholesterolTotal float64 `json:"cholesterol_total"`
	CholesterolLDL   float64 `json:"cholesterol_ldl"`
	CholesterolHDL   float64 `json:"cholesterol_hdl"`
	Triglycerides    float64 `json:"triglycerides"`
	Creatinine       float64 `json:"creatinine"`
}

// Lifestyle holds defaulted lifestyle fields.
type Lifestyle struct {
	SmokingStatus         string  `json:"smoking_status"`
	AlcoholConsumption    string  `json:"alcohol_consumption"`
	ExerciseMinutesWeekly float64 `json:"exercise_minutes_weekly"`
}

// FamilyHistory holds per-disease family history flags.
type FamilyHistory struct {
	CardiovascularDisease bool `json:"cardiovascular_disease"`
	DiabetesType2         bool `json:"diabetes_type2"`
	ChronicKidneyDisease  bool `json:"chronic_kidney_disease"`
	Stroke                bool `json:"stroke"`
}

// Medications holds medication-category flags plus the raw count.
type Medications struct {
	Antihypertensives bool `json:"antihypertensives"`
	Statins           bool `json:"statins"`
	Antidiabetics     bool `json:"antidiabetics"`
	Anticoagulants    bool `json:"anticoagulants"`
	Count             int  `json:"count"`
}

// DerivedFeatures holds features computed from the extracted fields.
type DerivedFeatures struct {
	BMI                       float64 `json:"bmi"`
	BMICategory               string  `json:"bmi_category"`
	AgeGroup                  string  `json:"age_group"`
	CardiovascularRiskFactors int     `json:"cardiovascular_risk_factors"`
	DiabetesRiskFactors       int     `json:"diabetes_risk_factors"`
	PulsePressure             float64 `json:"pulse_pressure"`
	LDLHDLRatio               float64 `json:"ldl_hdl_ratio"`
}

// NormalizedFeatureSet is the fully defaulted, derived, and range-scaled
// representation of a patient payload. It is created fresh per request and
// never mutated by downstream stages.
type NormalizedFeatureSet struct {
	Demographics   Demographics    `json:"demographics"`
	Vitals         Vitals          `json:"vitals"`
	Labs           LabResults      `json:"lab_results"`
	Lifestyle      Lifestyle       `json:"lifestyle"`
	FamilyHistory  FamilyHistory   `json:"family_history"`
	Medications    Medications     `json:"medications"`
	GeneticMarkers map[string]bool `json:"genetic_markers"`
	Derived        DerivedFeatures `json:"derived"`

	// Normalized holds the fixed subset of numeric features min-max
	// scaled to [0,1].
	Normalized map[string]float64 `json:"normalized"`
}

// IsSmoker reports current or former tobacco use.
func (f *NormalizedFeatureSet) IsSmoker() bool {
	return f.Lifestyle.SmokingStatus == "current" || f.Lifestyle.SmokingStatus == "former"
}

// Value looks up a named numeric feature for model-vector construction.
// Boolean features map to 0/1. Unknown names report ok=false.
func (f *NormalizedFeatureSet) Value(name string) (float64, bool) {
	boolVal := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	switch name {
	case "age":
		return f.Demographics.Age, true
	case "blood_pressure_systolic":
		return f.Vitals.BloodPressureSystolic, true
	case "blood_pressure_diastolic":
		return f.Vitals.BloodPressureDiastolic, true
	case "heart_rate":
		return f.Vitals.HeartRate, true
	case "weight_kg":
		return f.Vitals.WeightKg, true
	case "height_cm":
		return f.Vitals.HeightCm, true
	case "glucose_fasting":
		return f.Labs.GlucoseFasting, true
	case "hba1c":
		return f.Labs.HbA1c, true
	case "cholesterol_total":
		return f.Labs.CholesterolTotal, true
	case "cholesterol_ldl":
		return f.Labs.CholesterolLDL, true
	case "cholesterol_hdl":
		return f.Labs.CholesterolHDL, true
	case "triglycerides":
		return f.Labs.Triglycerides, true
	case "creatinine":
		return f.Labs.Creatinine, true
	case "exercise_minutes_weekly":
		return f.Lifestyle.ExerciseMinutesWeekly, true
	case "bmi":
		return f.Derived.BMI, true
	case "pulse_pressure":
		return f.Derived.PulsePressure, true
	case "ldl_hdl_ratio":
		return f.Derived.LDLHDLRatio, true
	case "cardiovascular_risk_factors":
		return float64(f.Derived.CardiovascularRiskFactors), true
	case "diabetes_risk_factors":
		return float64(f.Derived.DiabetesRiskFactors), true
	case "medication_count":
		return float64(f.Medications.Count), true
	case "is_smoker":
		return boolVal(f.IsSmoker()), true
	case "family_history_cardiovascular":
		return boolVal(f.FamilyHistory.CardiovascularDisease), true
	case "family_history_diabetes":
		return boolVal(f.FamilyHistory.DiabetesType2), true
	case "family_history_kidney":
		return boolVal(f.FamilyHistory.ChronicKidneyDisease), true
	case "family_history_stroke":
		return boolVal(f.FamilyHistory.Stroke), true
	}
	if v, ok := f.Normalized[name]; ok {
		return v, true
	}
	return 0, false
}

// DiseaseRiskResult is the outcome of one disease model invocation.
// Either RiskScore/Confidence are populated or Error is set, never neither.
type DiseaseRiskResult struct {
	Disease      DiseaseKey `json:"disease"`
	RiskScore    float64    `json:"risk_score"`
	Confidence   float64    `json:"confidence"`
	ModelVersion string     `json:"model_version,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Errored reports whether the disease could not be assessed.
func (r *DiseaseRiskResult) Errored() bool { return r.Error != "" }

// EnsembleResult is the weighted combination of all per-disease results.
type EnsembleResult struct {
	OverallRisk       float64 `json:"overall_risk"`
	OverallConfidence float64 `json:"overall_confidence"`
}

// Explanation is the human-facing rationale for one disease result.
type Explanation struct {
	RiskCategory   RiskCategory `json:"risk_category"`
	KeyFactors     []string     `json:"key_factors"`
	Interpretation string       `json:"interpretation"`
}

// Recommendation is one prioritized action item.
type Recommendation struct {
	Text     string                 `json:"text"`
	Priority RecommendationPriority `json:"priority"`
	Category RecommendationCategory `json:"category"`
}

// ResultBundle is the full terminal payload of a completed prediction.
type ResultBundle struct {
	PredictionID    string                           `json:"prediction_id"`
	PatientID       string                           `json:"patient_id"`
	Diseases        map[DiseaseKey]DiseaseRiskResult `json:"diseases"`
	Ensemble        EnsembleResult                   `json:"ensemble"`
	Explanations    map[DiseaseKey]Explanation       `json:"explanations"`
	Recommendations []Recommendation                 `json:"recommendations"`
	ModelVersions   map[DiseaseKey]string            `json:"model_versions"`
	GeneratedAt     time.Time                        `json:"generated_at"`
}

// StatusRecord is the externally visible, TTL-bound progress record.
// Progress is monotonically non-decreasing until the terminal write.
type StatusRecord struct {
	Status    RequestStatus `json:"status"`
	Progress  float64       `json:"progress"`
	Timestamp time.Time     `json:"timestamp"`
	Result    *ResultBundle `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}
