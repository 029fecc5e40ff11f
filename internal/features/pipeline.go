// Package features turns raw patient payloads into normalized feature sets.
// Normalization is total: missing or malformed fields fall back to
// clinically neutral defaults, never errors.
package features

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
)

// Clinically neutral defaults applied when a payload field is absent.
const (
	defaultAge       = 0.0
	defaultGender    = "unknown"
	defaultSystolic  = 120.0
	defaultDiastolic = 80.0
	defaultHeartRate = 72.0
	defaultWeightKg  = 70.0
	defaultHeightCm  = 170.0

	defaultGlucoseFasting   = 90.0
	defaultHbA1c            = 5.5
	defaultCholesterolTotal = 180.0
	defaultCholesterolLDL   = 100.0
	defaultCholesterolHDL   = 50.0
	defaultTriglycerides    = 150.0
	defaultCreatinine       = 1.0

	defaultSmokingStatus = "never"
	defaultAlcohol       = "none"

	defaultBMI         = 25.0
	defaultLDLHDLRatio = 2.0
)

// normRange is a fixed min-max scaling range for one numeric feature.
type normRange struct {
	min, max float64
}

// Fixed per-feature scaling ranges. Values outside the range clamp to 0 or 1.
var normalizationRanges = map[string]normRange{
	"age":                      {0, 100},
	"bmi":                      {10, 50},
	"blood_pressure_systolic":  {80, 200},
	"blood_pressure_diastolic": {50, 130},
	"heart_rate":               {40, 180},
	"glucose_fasting":          {60, 300},
	"cholesterol_total":        {100, 350},
}

// Pipeline implements the feature normalization pipeline. It holds no
// per-request state; Normalize is a pure function of its input.
type Pipeline struct {
	logger *logrus.Logger
}

// NewPipeline creates a feature normalization pipeline.
func NewPipeline(logger *logrus.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Normalize converts a raw patient payload into a fully populated
// NormalizedFeatureSet. It never fails; every field has a documented
// default. Time-series vitals are reduced with latest-value semantics:
// arrays are assumed chronologically ordered with the most recent value
// last, which is an input precondition, not something validated here.
func (p *Pipeline) Normalize(payload map[string]any) *domain.NormalizedFeatureSet {
	if payload == nil {
		payload = map[string]any{}
	}

	fs := &domain.NormalizedFeatureSet{
		Demographics:   p.extractDemographics(payload),
		Vitals:         p.extractVitals(payload),
		Labs:           p.extractLabs(payload),
		Lifestyle:      p.extractLifestyle(payload),
		FamilyHistory:  p.extractFamilyHistory(payload),
		Medications:    p.extractMedications(payload),
		GeneticMarkers: p.extractGeneticMarkers(payload),
	}

	fs.Derived = p.deriveFeatures(fs)
	fs.Normalized = p.scaleFeatures(fs)

	return fs
}

func (p *Pipeline) extractDemographics(payload map[string]any) domain.Demographics {
	return domain.Demographics{
		Age:    numberField(payload, "age", defaultAge),
		Gender: stringField(payload, "gender", defaultGender),
	}
}

func (p *Pipeline) extractVitals(payload map[string]any) domain.Vitals {
	vitals := p.mapField(payload, "vitals")
	return domain.Vitals{
		BloodPressureSystolic:  latestNumber(vitals, "blood_pressure_systolic", defaultSystolic),
		BloodPressureDiastolic: latestNumber(vitals, "blood_pressure_diastolic", defaultDiastolic),
		HeartRate:              latestNumber(vitals, "heart_rate", defaultHeartRate),
		WeightKg:               latestNumber(vitals, "weight_kg", defaultWeightKg),
		HeightCm:               latestNumber(vitals, "height_cm", defaultHeightCm),
	}
}

func (p *Pipeline) extractLabs(payload map[string]any) domain.LabResults {
	labs := p.mapField(payload, "lab_results", "labResults")
	return domain.LabResults{
		GlucoseFasting:   numberField(labs, "glucose_fasting", defaultGlucoseFasting),
		HbA1c:            numberField(labs, "hba1c", defaultHbA1c),
		CholesterolTotal: numberField(labs, "cholesterol_total", defaultCholesterolTotal),
		CholesterolLDL:   numberField(labs, "cholesterol_ldl", defaultCholesterolLDL),
		CholesterolHDL:   numberField(labs, "cholesterol_hdl", defaultCholesterolHDL),
		Triglycerides:    numberField(labs, "triglycerides", defaultTriglycerides),
		Creatinine:       numberField(labs, "creatinine", defaultCreatinine),
	}
}

func (p *Pipeline) extractLifestyle(payload map[string]any) domain.Lifestyle {
	lifestyle := p.mapField(payload, "lifestyle")
	return domain.Lifestyle{
		SmokingStatus:         stringField(lifestyle, "smoking_status", defaultSmokingStatus),
		AlcoholConsumption:    stringField(lifestyle, "alcohol_consumption", defaultAlcohol),
		ExerciseMinutesWeekly: numberField(lifestyle, "exercise_minutes_weekly", 0),
	}
}

func (p *Pipeline) extractFamilyHistory(payload map[string]any) domain.FamilyHistory {
	history := p.mapField(payload, "family_history", "familyHistory")
	return domain.FamilyHistory{
		CardiovascularDisease: boolField(history, "cardiovascular_disease"),
		DiabetesType2:         boolField(history, "diabetes_type2"),
		ChronicKidneyDisease:  boolField(history, "chronic_kidney_disease"),
		Stroke:                boolField(history, "stroke"),
	}
}

// Medication category keywords. Matching is case-insensitive substring
// matching against each listed medication name.
var medicationCategories = map[string][]string{
	"antihypertensives": {"lisinopril", "losartan", "amlodipine", "metoprolol", "hydrochlorothiazide"},
	"statins":           {"atorvastatin", "simvastatin", "rosuvastatin", "pravastatin"},
	"antidiabetics":     {"metformin", "insulin", "glipizide", "sitagliptin", "empagliflozin"},
	"anticoagulants":    {"warfarin", "apixaban", "rivaroxaban", "clopidogrel", "aspirin"},
}

func (p *Pipeline) extractMedications(payload map[string]any) domain.Medications {
	meds := domain.Medications{}
	raw, ok := payload["medications"]
	if !ok {
		return meds
	}
	list, ok := raw.([]any)
	if !ok {
		p.logger.WithField("field", "medications").Debug("Malformed payload section ignored, applying defaults")
		return meds
	}

	for _, entry := range list {
		name, ok := entry.(string)
		if !ok {
			continue
		}
		meds.Count++
		lower := strings.ToLower(name)
		for category, keywords := range medicationCategories {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					switch category {
					case "antihypertensives":
						meds.Antihypertensives = true
					case "statins":
						meds.Statins = true
					case "antidiabetics":
						meds.Antidiabetics = true
					case "anticoagulants":
						meds.Anticoagulants = true
					}
				}
			}
		}
	}
	return meds
}

func (p *Pipeline) extractGeneticMarkers(payload map[string]any) map[string]bool {
	markers := map[string]bool{}
	raw := p.mapField(payload, "genetic_markers", "geneticMarkers")
	for name, value := range raw {
		if flag, ok := value.(bool); ok {
			markers[name] = flag
		}
	}
	return markers
}

func (p *Pipeline) deriveFeatures(fs *domain.NormalizedFeatureSet) domain.DerivedFeatures {
	derived := domain.DerivedFeatures{}

	heightM := fs.Vitals.HeightCm / 100.0
	if heightM <= 0 {
		derived.BMI = defaultBMI
	} else {
		derived.BMI = fs.Vitals.WeightKg / (heightM * heightM)
	}
	derived.BMICategory = bmiCategory(derived.BMI)
	derived.AgeGroup = ageGroup(fs.Demographics.Age)

	derived.PulsePressure = fs.Vitals.BloodPressureSystolic - fs.Vitals.BloodPressureDiastolic
	if fs.Labs.CholesterolHDL <= 0 {
		derived.LDLHDLRatio = defaultLDLHDLRatio
	} else {
		derived.LDLHDLRatio = fs.Labs.CholesterolLDL / fs.Labs.CholesterolHDL
	}

	derived.CardiovascularRiskFactors = countTrue(
		fs.Demographics.Age > 45,
		fs.IsSmoker(),
		fs.Vitals.BloodPressureSystolic >= 140,
		fs.Labs.CholesterolTotal > 240,
		derived.BMI >= 30,
		fs.FamilyHistory.CardiovascularDisease,
		fs.Labs.GlucoseFasting >= 126,
	)
	derived.DiabetesRiskFactors = countTrue(
		derived.BMI >= 30,
		fs.Labs.GlucoseFasting >= 100,
		fs.Labs.HbA1c >= 5.7,
		fs.FamilyHistory.DiabetesType2,
		fs.Demographics.Age > 45,
		fs.Lifestyle.ExerciseMinutesWeekly < 90,
	)

	return derived
}

func (p *Pipeline) scaleFeatures(fs *domain.NormalizedFeatureSet) map[string]float64 {
	values := map[string]float64{
		"age":                      fs.Demographics.Age,
		"bmi":                      fs.Derived.BMI,
		"blood_pressure_systolic":  fs.Vitals.BloodPressureSystolic,
		"blood_pressure_diastolic": fs.Vitals.BloodPressureDiastolic,
		"heart_rate":               fs.Vitals.HeartRate,
		"glucose_fasting":          fs.Labs.GlucoseFasting,
		"cholesterol_total":        fs.Labs.CholesterolTotal,
	}

	scaled := make(map[string]float64, len(values))
	for name, value := range values {
		r := normalizationRanges[name]
		scaled[name] = minMaxScale(value, r.min, r.max)
	}
	return scaled
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}

func ageGroup(age float64) string {
	switch {
	case age < 30:
		return "young"
	case age < 50:
		return "middle"
	case age < 65:
		return "older"
	default:
		return "elderly"
	}
}

func countTrue(predicates ...bool) int {
	count := 0
	for _, p := range predicates {
		if p {
			count++
		}
	}
	return count
}

func minMaxScale(value, min, max float64) float64 {
	if max <= min {
		return 0
	}
	scaled := (value - min) / (max - min)
	if scaled < 0 {
		return 0
	}
	if scaled > 1 {
		return 1
	}
	return scaled
}

// mapField returns the first present nested object among the given keys.
// A present key holding a non-object value falls back to empty.
func (p *Pipeline) mapField(payload map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if m, ok := raw.(map[string]any); ok {
			return m
		}
		p.logger.WithField("field", key).Debug("Malformed payload section ignored, applying defaults")
	}
	return map[string]any{}
}

// numberField extracts a numeric field, tolerating the types a decoded
// JSON payload can carry.
func numberField(m map[string]any, key string, def float64) float64 {
	raw, ok := m[key]
	if !ok {
		return def
	}
	if v, ok := asNumber(raw); ok {
		return v
	}
	return def
}

// latestNumber extracts a numeric field with latest-value semantics: when
// the field is an array, the last element wins.
func latestNumber(m map[string]any, key string, def float64) float64 {
	raw, ok := m[key]
	if !ok {
		return def
	}
	if series, ok := raw.([]any); ok {
		if len(series) == 0 {
			return def
		}
		raw = series[len(series)-1]
	}
	if v, ok := asNumber(raw); ok {
		return v
	}
	return def
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func stringField(m map[string]any, key, def string) string {
	if raw, ok := m[key]; ok {
		if s, ok := raw.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func boolField(m map[string]any, key string) bool {
	if raw, ok := m[key]; ok {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return false
}
