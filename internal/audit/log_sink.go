// Package audit provides the default audit-record sink. Audit persistence
// lives outside this service; this sink emits each completed result bundle
// as a structured log entry for the external pipeline to collect.
package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
)

// LogSink writes result bundles to the structured log, fire-and-forget.
type LogSink struct {
	logger *logrus.Logger
}

// NewLogSink creates a log-based audit sink.
func NewLogSink(logger *logrus.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Store emits one audit record. It never fails; the coordinator ignores
// sink errors either way.
func (s *LogSink) Store(_ context.Context, predictionID string, bundle *domain.ResultBundle) error {
	s.logger.WithFields(logrus.Fields{
		"audit":              true,
		"prediction_id":      predictionID,
		"patient_id":         bundle.PatientID,
		"overall_risk":       bundle.Ensemble.OverallRisk,
		"overall_confidence": bundle.Ensemble.OverallConfidence,
		"diseases":           len(bundle.Diseases),
		"recommendations":    len(bundle.Recommendations),
		"generated_at":       bundle.GeneratedAt,
	}).Info("Prediction audit record")
	return nil
}
