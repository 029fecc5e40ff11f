// Package backend provides the model backend adapters: an in-process
// linear tensor model loaded from weight files, and an HTTP client for
// the out-of-process model runtime.
package backend

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
)

// LinearTensorModel is the default in-process tensor model: a logistic
// unit over the descriptor's fixed-order feature vector. The weights are
// configuration data produced by an external training pipeline.
type LinearTensorModel struct {
	weights []float64
	bias    float64
	version string
}

// Invoke computes sigmoid(w·x + b) over the feature vector.
func (m *LinearTensorModel) Invoke(vector []float64) (float64, error) {
	if len(vector) != len(m.weights) {
		return 0, fmt.Errorf("feature vector length %d does not match model width %d", len(vector), len(m.weights))
	}
	z := m.bias
	for i, w := range m.weights {
		z += w * vector[i]
	}
	return 1.0 / (1.0 + math.Exp(-z)), nil
}

// Version returns the model's version string.
func (m *LinearTensorModel) Version() string {
	return m.version
}

// NewLinearTensorModel builds a model from explicit weights.
func NewLinearTensorModel(weights []float64, bias float64, version string) *LinearTensorModel {
	return &LinearTensorModel{weights: weights, bias: bias, version: version}
}

// weightFile is the on-disk shape of one native model.
type weightFile struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Version string    `json:"version"`
}

// FileModelLoader loads native models from per-disease weight files
// (<dir>/<disease>.json).
type FileModelLoader struct {
	logger *logrus.Logger
	dir    string
}

// NewFileModelLoader creates a loader rooted at the given directory.
func NewFileModelLoader(logger *logrus.Logger, dir string) *FileModelLoader {
	return &FileModelLoader{logger: logger, dir: dir}
}

// LoadModel reads and validates the weight file for one disease.
func (l *FileModelLoader) LoadModel(disease domain.DiseaseKey) (domain.TensorModel, error) {
	if l.dir == "" {
		return nil, fmt.Errorf("native model directory not configured")
	}

	path := filepath.Join(l.dir, disease.String()+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read weight file: %w", err)
	}

	var wf weightFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("malformed weight file %s: %w", path, err)
	}
	if len(wf.Weights) == 0 {
		return nil, fmt.Errorf("weight file %s has no weights", path)
	}
	if wf.Version == "" {
		wf.Version = "native-unversioned"
	}

	l.logger.WithFields(logrus.Fields{
		"disease": disease,
		"width":   len(wf.Weights),
		"version": wf.Version,
	}).Debug("Loaded native model weights")

	return NewLinearTensorModel(wf.Weights, wf.Bias, wf.Version), nil
}
