// Package predictor dispatches one disease prediction to its resolved
// model backend. Backend failures are absorbed here: a failing disease
// yields an errored DiseaseRiskResult and never aborts the batch or any
// other disease's prediction.
package predictor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
	"github.com/health-risk-inference-server/internal/registry"
)

// maxNativeConfidence caps the boundary-distance confidence heuristic.
const maxNativeConfidence = 0.95

// Predictor runs per-disease risk predictions against the registry's
// resolved backends.
type Predictor struct {
	logger         *logrus.Logger
	registry       *registry.Registry
	external       domain.ExternalModelClient
	defaultTimeout time.Duration
}

// New creates a disease risk predictor.
func New(logger *logrus.Logger, reg *registry.Registry, external domain.ExternalModelClient, defaultTimeout time.Duration) *Predictor {
	if defaultTimeout <= 0 {
		defaultTimeout = 10 * time.Second
	}
	return &Predictor{
		logger:         logger,
		registry:       reg,
		external:       external,
		defaultTimeout: defaultTimeout,
	}
}

// Predict runs one disease model and always returns a result: either a
// score/confidence pair or an errored result with both zeroed.
func (p *Predictor) Predict(ctx context.Context, disease domain.DiseaseKey, features *domain.NormalizedFeatureSet, timeout time.Duration) (result domain.DiseaseRiskResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"disease": disease,
				"panic":   r,
			}).Error("Model backend panicked")
			result = erroredResult(disease, fmt.Errorf("backend panic: %v", r))
		}
	}()

	res, err := p.registry.Resolve(disease)
	if err != nil {
		return erroredResult(disease, err)
	}

	switch res.Descriptor.Backend {
	case domain.BackendNativeTensor:
		result = p.predictNative(res, disease, features)
	case domain.BackendExternalProcess:
		result = p.predictExternal(ctx, res, disease, features, timeout)
	case domain.BackendRuleBased:
		result = p.predictRuleBased(res, disease, features)
	default:
		result = erroredResult(disease, fmt.Errorf("%w: %s", domain.ErrInvalidBackendKind, res.Descriptor.Backend))
	}

	if result.Errored() {
		p.logger.WithFields(logrus.Fields{
			"disease": disease,
			"backend": res.Descriptor.Backend,
			"error":   result.Error,
		}).Warn("Disease prediction failed")
	} else {
		p.logger.WithFields(logrus.Fields{
			"disease":    disease,
			"backend":    res.Descriptor.Backend,
			"risk_score": result.RiskScore,
			"confidence": result.Confidence,
		}).Debug("Disease prediction completed")
	}
	return result
}

// predictNative builds the fixed-order vector from the descriptor's
// required features (missing names contribute 0) and invokes the
// in-process tensor model.
func (p *Predictor) predictNative(res *registry.Resolution, disease domain.DiseaseKey, features *domain.NormalizedFeatureSet) domain.DiseaseRiskResult {
	vector := make([]float64, len(res.Descriptor.RequiredFeatures))
	for i, name := range res.Descriptor.RequiredFeatures {
		if v, ok := features.Value(name); ok {
			vector[i] = v
		}
	}

	score, err := res.Tensor.Invoke(vector)
	if err != nil {
		return erroredResult(disease, &domain.BackendError{Disease: disease, Backend: domain.BackendNativeTensor, Err: err})
	}

	// Distance from the 0.5 decision boundary reads as confidence.
	confidence := math.Min(maxNativeConfidence, 0.5+math.Abs(score-0.5))

	return domain.DiseaseRiskResult{
		Disease:      disease,
		RiskScore:    score,
		Confidence:   confidence,
		ModelVersion: res.Tensor.Version(),
	}
}

// predictExternal invokes the out-of-process model runtime synchronously,
// bounded by the caller-provided timeout.
func (p *Predictor) predictExternal(ctx context.Context, res *registry.Resolution, disease domain.DiseaseKey, features *domain.NormalizedFeatureSet, timeout time.Duration) domain.DiseaseRiskResult {
	if p.external == nil {
		return erroredResult(disease, fmt.Errorf("no external model client configured"))
	}
	if timeout <= 0 {
		timeout = p.defaultTimeout
	}

	resp, err := p.external.Invoke(ctx, disease, features, timeout)
	if err != nil {
		return erroredResult(disease, &domain.BackendError{Disease: disease, Backend: domain.BackendExternalProcess, Err: err})
	}

	version := resp.ModelVersion
	if version == "" {
		version = res.Descriptor.Version
	}
	return domain.DiseaseRiskResult{
		Disease:      disease,
		RiskScore:    resp.RiskScore,
		Confidence:   resp.Confidence,
		ModelVersion: version,
	}
}

func (p *Predictor) predictRuleBased(res *registry.Resolution, disease domain.DiseaseKey, features *domain.NormalizedFeatureSet) domain.DiseaseRiskResult {
	risk, confidence, satisfied := res.Rules.Evaluate(features)

	p.logger.WithFields(logrus.Fields{
		"disease":         disease,
		"satisfied_rules": satisfied,
	}).Debug("Rule-based evaluation")

	return domain.DiseaseRiskResult{
		Disease:      disease,
		RiskScore:    risk,
		Confidence:   confidence,
		ModelVersion: res.Rules.Version,
	}
}

func erroredResult(disease domain.DiseaseKey, err error) domain.DiseaseRiskResult {
	return domain.DiseaseRiskResult{
		Disease: disease,
		Error:   err.Error(),
	}
}
