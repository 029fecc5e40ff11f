package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-risk-inference-server/internal/domain"
)

func TestRuntimeClient_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/stroke/invoke", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req invokeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.DiseaseStroke, req.Disease)
		assert.Equal(t, 66.0, req.Features.Demographics.Age)

		json.NewEncoder(w).Encode(domain.ExternalModelResponse{
			RiskScore:    0.44,
			Confidence:   0.81,
			ModelVersion: "runtime-2.3.1",
		})
	}))
	defer server.Close()

	client := NewRuntimeClient(testLogger(), RuntimeClientConfig{BaseURL: server.URL})
	fs := &domain.NormalizedFeatureSet{Demographics: domain.Demographics{Age: 66}}

	resp, err := client.Invoke(context.Background(), domain.DiseaseStroke, fs, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 0.44, resp.RiskScore)
	assert.Equal(t, 0.81, resp.Confidence)
	assert.Equal(t, "runtime-2.3.1", resp.ModelVersion)
}

func TestRuntimeClient_InvokeNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewRuntimeClient(testLogger(), RuntimeClientConfig{BaseURL: server.URL})

	_, err := client.Invoke(context.Background(), domain.DiseaseStroke, &domain.NormalizedFeatureSet{}, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestRuntimeClient_InvokeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRuntimeClient(testLogger(), RuntimeClientConfig{BaseURL: server.URL})

	_, err := client.Invoke(context.Background(), domain.DiseaseStroke, &domain.NormalizedFeatureSet{}, 20*time.Millisecond)
	assert.Error(t, err)
}

func TestRuntimeClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRuntimeClient(testLogger(), RuntimeClientConfig{BaseURL: server.URL})

	for i := 0; i < 5; i++ {
		_, err := client.Invoke(context.Background(), domain.DiseaseStroke, &domain.NormalizedFeatureSet{}, time.Second)
		require.Error(t, err)
	}
	seen := requests

	// Breaker is open now: the next call fails without reaching the server.
	_, err := client.Invoke(context.Background(), domain.DiseaseStroke, &domain.NormalizedFeatureSet{}, time.Second)
	require.Error(t, err)
	assert.Equal(t, seen, requests)
}

func TestRuntimeClient_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/stroke/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewRuntimeClient(testLogger(), RuntimeClientConfig{BaseURL: server.URL})

	assert.NoError(t, client.Ping(context.Background(), domain.DiseaseStroke))
	assert.Error(t, client.Ping(context.Background(), domain.DiseaseCardiovascular))
}

func TestRuntimeClient_NoBaseURL(t *testing.T) {
	client := NewRuntimeClient(testLogger(), RuntimeClientConfig{})

	_, err := client.Invoke(context.Background(), domain.DiseaseStroke, &domain.NormalizedFeatureSet{}, time.Second)
	assert.Error(t, err)
	assert.Error(t, client.Ping(context.Background(), domain.DiseaseStroke))
}
