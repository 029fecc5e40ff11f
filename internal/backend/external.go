package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/health-risk-inference-server/internal/domain"
)

// RuntimeClientConfig configures the out-of-process model runtime client.
type RuntimeClientConfig struct {
	BaseURL        string
	DefaultTimeout time.Duration
	BreakerMaxReqs uint32
	BreakerTimeout time.Duration
}

// RuntimeClient invokes the external model runtime over HTTP. All calls
// run through a circuit breaker; an open breaker surfaces as an ordinary
// invocation error that the predictor converts into a per-disease failure.
type RuntimeClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// invokeRequest is the wire shape sent to the runtime.
type invokeRequest struct {
	Disease  domain.DiseaseKey            `json:"disease"`
	Features *domain.NormalizedFeatureSet `json:"features"`
}

// NewRuntimeClient creates a model runtime client.
func NewRuntimeClient(logger *logrus.Logger, config RuntimeClientConfig) *RuntimeClient {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 10 * time.Second
	}
	if config.BreakerMaxReqs == 0 {
		config.BreakerMaxReqs = 3
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "model-runtime",
		MaxRequests: config.BreakerMaxReqs,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Model runtime circuit breaker state changed")
		},
	}

	return &RuntimeClient{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.DefaultTimeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// Invoke serializes the features and disease key, posts them to the
// runtime, and parses the JSON response. Bounded by the given timeout.
func (c *RuntimeClient) Invoke(ctx context.Context, disease domain.DiseaseKey, features *domain.NormalizedFeatureSet, timeout time.Duration) (*domain.ExternalModelResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("model runtime base URL not configured")
	}

	body, err := json.Marshal(invokeRequest{Disease: disease, Features: features})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize invoke request: %w", err)
	}

	invokeCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doInvoke(invokeCtx, disease, body)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.ExternalModelResponse), nil
}

func (c *RuntimeClient) doInvoke(ctx context.Context, disease domain.DiseaseKey, body []byte) (*domain.ExternalModelResponse, error) {
	url := fmt.Sprintf("%s/models/%s/invoke", c.baseURL, disease)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model runtime request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model runtime returned %d: %s", resp.StatusCode, payload)
	}

	modelResp := &domain.ExternalModelResponse{}
	if err := json.NewDecoder(resp.Body).Decode(modelResp); err != nil {
		return nil, fmt.Errorf("malformed model runtime response: %w", err)
	}
	return modelResp, nil
}

// Ping probes the runtime's health endpoint for one disease model.
func (c *RuntimeClient) Ping(ctx context.Context, disease domain.DiseaseKey) error {
	if c.baseURL == "" {
		return fmt.Errorf("model runtime base URL not configured")
	}

	url := fmt.Sprintf("%s/models/%s/health", c.baseURL, disease)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model runtime health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model runtime health returned %d", resp.StatusCode)
	}
	return nil
}
