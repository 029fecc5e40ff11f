// Package registry resolves one model backend per disease at startup.
// Resolution walks a fixed fallback chain: native in-process tensor model,
// then external model runtime, then the built-in rule tables. A disease can
// never end up without coverage; the hardcoded minimal rule set is the
// floor of the chain.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
)

// Default ensemble weight table. Weights need not sum to 1; the
// aggregator renormalizes over whatever subset produced a result.
var defaultEnsembleWeights = map[domain.DiseaseKey]float64{
	domain.DiseaseCardiovascular: 0.30,
	domain.DiseaseDiabetesType2:  0.25,
	domain.DiseaseStroke:         0.25,
	domain.DiseaseChronicKidney:  0.20,
}

// nativeFeatureOrder fixes the input vector layout per disease for the
// native tensor backend. Order is part of the model contract.
var nativeFeatureOrder = map[domain.DiseaseKey][]string{
	domain.DiseaseCardiovascular: {
		"age", "bmi", "blood_pressure_systolic", "blood_pressure_diastolic",
		"cholesterol_total", "ldl_hdl_ratio", "is_smoker", "family_history_cardiovascular",
	},
	domain.DiseaseDiabetesType2: {
		"age", "bmi", "glucose_fasting", "hba1c",
		"exercise_minutes_weekly", "family_history_diabetes",
	},
	domain.DiseaseChronicKidney: {
		"age", "creatinine", "blood_pressure_systolic", "glucose_fasting",
		"medication_count", "family_history_kidney",
	},
	domain.DiseaseStroke: {
		"age", "blood_pressure_systolic", "pulse_pressure",
		"ldl_hdl_ratio", "is_smoker", "family_history_stroke",
	},
}

// optionalFeatures lists features a backend may consult beyond the
// required vector; informational on the descriptor.
var optionalFeatures = []string{"heart_rate", "triglycerides", "medication_count"}

// derivedFeatureNames lists the derived sub-record fields descriptors
// advertise as available.
var derivedFeatureNames = []string{
	"bmi", "pulse_pressure", "ldl_hdl_ratio",
	"cardiovascular_risk_factors", "diabetes_risk_factors",
}

// Resolution pairs a descriptor with the backend artifact it resolved to.
// Exactly one of Tensor or Rules is set for native and rule-based backends;
// external backends carry neither.
type Resolution struct {
	Descriptor *domain.ModelDescriptor
	Tensor     domain.TensorModel
	Rules      *domain.RuleSet
}

// Options configures registry loading.
type Options struct {
	// Loader provides native in-process models; nil disables the
	// native strategy entirely.
	Loader domain.ModelLoader
	// External is pinged during resolution; nil disables the
	// external strategy.
	External domain.ExternalModelClient
	// PingTimeout bounds each external reachability probe.
	PingTimeout time.Duration
	// EnsembleWeights overrides the default weight table when non-empty.
	EnsembleWeights map[domain.DiseaseKey]float64
	// Diseases restricts loading; empty loads every supported disease.
	Diseases []domain.DiseaseKey
}

// Registry holds the resolved model descriptors. Read-only after New.
type Registry struct {
	logger      *logrus.Logger
	resolutions map[domain.DiseaseKey]*Resolution
	ensemble    *domain.ModelDescriptor
}

// New loads the registry, walking the fallback chain per disease.
func New(logger *logrus.Logger, opts Options) (*Registry, error) {
	diseases := opts.Diseases
	if len(diseases) == 0 {
		diseases = domain.SupportedDiseases
	}
	for _, d := range diseases {
		if !d.IsValid() {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidDiseaseKey, d)
		}
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 2 * time.Second
	}

	r := &Registry{
		logger:      logger,
		resolutions: make(map[domain.DiseaseKey]*Resolution, len(diseases)),
	}

	ruleSets := defaultRuleSets()
	for _, disease := range diseases {
		r.resolutions[disease] = r.resolveDisease(disease, opts, ruleSets)
	}

	weights := opts.EnsembleWeights
	if len(weights) == 0 {
		weights = defaultEnsembleWeights
	}
	r.ensemble = &domain.ModelDescriptor{
		Disease:         domain.DiseaseEnsemble,
		Backend:         domain.BackendRuleBased,
		Version:         "ensemble-1.0.0",
		EnsembleWeights: weights,
	}

	logger.WithFields(logrus.Fields{
		"diseases": len(r.resolutions),
	}).Info("Model registry loaded")

	return r, nil
}

// resolveDisease walks native -> external -> rule-based. Load failures are
// logged and fall through; the chain cannot come up empty.
func (r *Registry) resolveDisease(disease domain.DiseaseKey, opts Options, ruleSets map[domain.DiseaseKey]*domain.RuleSet) *Resolution {
	if opts.Loader != nil {
		model, err := opts.Loader.LoadModel(disease)
		if err == nil {
			r.logger.WithFields(logrus.Fields{
				"disease": disease,
				"backend": domain.BackendNativeTensor,
				"version": model.Version(),
			}).Info("Resolved disease model")
			return &Resolution{
				Descriptor: r.buildDescriptor(disease, domain.BackendNativeTensor, model.Version()),
				Tensor:     model,
			}
		}
		r.logger.WithError(err).WithField("disease", disease).
			Warn("Native model load failed, trying external runtime")
	}

	if opts.External != nil {
		ctx, cancel := context.WithTimeout(context.Background(), opts.PingTimeout)
		err := opts.External.Ping(ctx, disease)
		cancel()
		if err == nil {
			r.logger.WithFields(logrus.Fields{
				"disease": disease,
				"backend": domain.BackendExternalProcess,
			}).Info("Resolved disease model")
			return &Resolution{
				Descriptor: r.buildDescriptor(disease, domain.BackendExternalProcess, "runtime"),
			}
		}
		r.logger.WithError(err).WithField("disease", disease).
			Warn("External runtime unreachable, falling back to rule-based model")
	}

	rules, ok := ruleSets[disease]
	if !ok {
		// Configuration hole; the minimal hardcoded set keeps coverage.
		r.logger.WithField("disease", disease).
			Warn("No rule table for disease, using minimal fallback rules")
		rules = minimalRuleSet(disease)
	}
	r.logger.WithFields(logrus.Fields{
		"disease": disease,
		"backend": domain.BackendRuleBased,
		"rules":   len(rules.Rules),
	}).Info("Resolved disease model")
	return &Resolution{
		Descriptor: r.buildDescriptor(disease, domain.BackendRuleBased, rules.Version),
		Rules:      rules,
	}
}

func (r *Registry) buildDescriptor(disease domain.DiseaseKey, backend domain.BackendKind, version string) *domain.ModelDescriptor {
	return &domain.ModelDescriptor{
		Disease:          disease,
		Backend:          backend,
		Version:          version,
		RequiredFeatures: nativeFeatureOrder[disease],
		OptionalFeatures: optionalFeatures,
		DerivedFeatures:  derivedFeatureNames,
	}
}

// Resolve returns the resolution for a disease key.
func (r *Registry) Resolve(disease domain.DiseaseKey) (*Resolution, error) {
	if disease == domain.DiseaseEnsemble {
		return &Resolution{Descriptor: r.ensemble}, nil
	}
	res, ok := r.resolutions[disease]
	if !ok {
		return nil, fmt.Errorf("%w: no model for disease %s", domain.ErrNotFound, disease)
	}
	return res, nil
}

// Diseases returns the loaded disease keys in the supported-set order.
func (r *Registry) Diseases() []domain.DiseaseKey {
	keys := make([]domain.DiseaseKey, 0, len(r.resolutions))
	for _, d := range domain.SupportedDiseases {
		if _, ok := r.resolutions[d]; ok {
			keys = append(keys, d)
		}
	}
	return keys
}

// EnsembleWeights returns the configured ensemble weight table.
func (r *Registry) EnsembleWeights() map[domain.DiseaseKey]float64 {
	return r.ensemble.EnsembleWeights
}
