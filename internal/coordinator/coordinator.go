// Package coordinator orchestrates prediction requests end to end: it
// owns the request queue, runs the fixed-interval batch scheduler, drives
// the pipeline stages per request, persists progressive status, and emits
// lifecycle signals to subscribers.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/domain"
	"github.com/health-risk-inference-server/internal/ensemble"
	"github.com/health-risk-inference-server/internal/explain"
	"github.com/health-risk-inference-server/internal/features"
	"github.com/health-risk-inference-server/internal/predictor"
	"github.com/health-risk-inference-server/internal/recommend"
	"github.com/health-risk-inference-server/internal/registry"
	"github.com/health-risk-inference-server/internal/status"
)

// Progress checkpoints written to the status store during processing.
// Within one request they are strictly ordered and never regress.
const (
	progressDequeued   = 0.1
	progressNormalized = 0.3
	progressPredicted  = 0.7
	progressExplained  = 0.9
	progressDone       = 1.0
)

// statusWriteTimeout bounds each best-effort status store write.
const statusWriteTimeout = 5 * time.Second

// Config controls the batch scheduler and status TTLs.
type Config struct {
	TickInterval           time.Duration
	BatchSize              int
	TTL                    status.TTLPolicy
	DefaultExternalTimeout time.Duration
	// EventBuffer sizes each subscriber channel; a full channel drops
	// the event rather than blocking the coordinator.
	EventBuffer int
}

// Event is one lifecycle signal. Fields are copied from the request at
// publish time so subscribers never observe the coordinator's later
// writes to the request in flight.
type Event struct {
	Type         domain.LifecycleEvent
	PredictionID string
	PatientID    string
	Status       domain.RequestStatus
	Error        string
	// Result is set on completed events only and is immutable once
	// published.
	Result *domain.ResultBundle
}

// lifecycleEvent snapshots a request into an Event. The caller must be
// the goroutine currently driving the request.
func lifecycleEvent(typ domain.LifecycleEvent, req *domain.PredictionRequest) Event {
	return Event{
		Type:         typ,
		PredictionID: req.ID,
		PatientID:    req.PatientID,
		Status:       req.Status,
		Error:        req.Error,
		Result:       req.Result,
	}
}

// Deps bundles the pipeline components the coordinator drives.
type Deps struct {
	Features    *features.Pipeline
	Predictor   *predictor.Predictor
	Aggregator  *ensemble.Aggregator
	Explainer   *explain.Engine
	Recommender *recommend.Engine
	Registry    *registry.Registry
	StatusStore domain.StatusStore
	AuditSink   domain.AuditSink
}

// Coordinator is the top-level prediction orchestrator. Create with New,
// then Start; Stop drains nothing, queued requests simply wait for the
// next Start.
type Coordinator struct {
	logger *logrus.Logger
	config Config
	deps   Deps

	queue    *requestQueue
	mu       sync.RWMutex
	requests map[string]*domain.PredictionRequest

	batchInFlight atomic.Bool

	subMu       sync.RWMutex
	subscribers map[int]chan Event
	nextSubID   int

	stopCh  chan struct{}
	doneCh  chan struct{}
	started atomic.Bool
}

// New creates a prediction coordinator.
func New(logger *logrus.Logger, config Config, deps Deps) *Coordinator {
	if config.TickInterval <= 0 {
		config.TickInterval = 100 * time.Millisecond
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}
	if config.TTL == (status.TTLPolicy{}) {
		config.TTL = status.DefaultTTLPolicy()
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 16
	}

	return &Coordinator{
		logger:      logger,
		config:      config,
		deps:        deps,
		queue:       newRequestQueue(),
		requests:    make(map[string]*domain.PredictionRequest),
		subscribers: make(map[int]chan Event),
	}
}

// Submit enqueues a prediction request and returns its id immediately.
// The request is in queued state at return time.
func (c *Coordinator) Submit(ctx context.Context, patientID string, payload map[string]any, opts domain.PredictionOptions) (string, error) {
	for _, d := range opts.Diseases {
		if !d.IsValid() {
			return "", fmt.Errorf("%w: %s", domain.ErrInvalidDiseaseKey, d)
		}
	}

	req := &domain.PredictionRequest{
		ID:        uuid.NewString(),
		PatientID: patientID,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
		Options:   opts,
		Status:    domain.StatusQueued,
	}

	c.mu.Lock()
	c.requests[req.ID] = req
	c.mu.Unlock()
	c.queue.Push(req)

	c.writeStatus(ctx, req.ID, &domain.StatusRecord{
		Status:    domain.StatusQueued,
		Progress:  0,
		Timestamp: time.Now().UTC(),
	})
	c.publish(lifecycleEvent(domain.EventQueued, req))

	c.logger.WithFields(logrus.Fields{
		"prediction_id": req.ID,
		"patient_id":    patientID,
		"queue_depth":   c.queue.Len(),
	}).Info("Prediction request queued")

	return req.ID, nil
}

// Cancel removes a still-queued request. Once a request has been
// dequeued into processing it runs to completion or failure.
func (c *Coordinator) Cancel(id string) error {
	if !c.queue.Remove(id) {
		c.mu.RLock()
		_, known := c.requests[id]
		c.mu.RUnlock()
		if !known {
			return domain.ErrNotFound
		}
		return domain.ErrRequestNotQueued
	}

	c.mu.Lock()
	delete(c.requests, id)
	c.mu.Unlock()

	c.logger.WithField("prediction_id", id).Info("Queued prediction cancelled")
	return nil
}

// GetStatus reads the externally visible status record.
func (c *Coordinator) GetStatus(ctx context.Context, id string) (*domain.StatusRecord, error) {
	return c.deps.StatusStore.Get(ctx, id)
}

// Subscribe registers a lifecycle event subscriber. Delivery is
// fire-and-forget: events to a full channel are dropped. The returned
// function unsubscribes and closes the channel.
func (c *Coordinator) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, c.config.EventBuffer)

	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = ch
	c.subMu.Unlock()

	unsubscribe := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Start launches the batch scheduler loop. It is a no-op if already
// started.
func (c *Coordinator) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	go c.run(ctx)

	c.logger.WithFields(logrus.Fields{
		"tick_interval": c.config.TickInterval,
		"batch_size":    c.config.BatchSize,
	}).Info("Prediction coordinator started")
}

// Stop halts the scheduler after any in-flight batch finishes.
func (c *Coordinator) Stop() {
	if !c.started.CompareAndSwap(true, false) {
		return
	}
	close(c.stopCh)
	<-c.doneCh
	c.logger.Info("Prediction coordinator stopped")
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs one scheduler cycle: if no batch is in flight and the queue
// is non-empty, dequeue up to the batch size and process the batch with
// unbounded fan-out, waiting for every member before returning. Exported
// so tests can drive the scheduler deterministically.
func (c *Coordinator) Tick(ctx context.Context) {
	if !c.batchInFlight.CompareAndSwap(false, true) {
		return
	}
	defer c.batchInFlight.Store(false)

	batch := c.queue.PopN(c.config.BatchSize)
	if len(batch) == 0 {
		return
	}

	c.logger.WithField("batch_size", len(batch)).Debug("Processing prediction batch")

	var wg sync.WaitGroup
	for _, req := range batch {
		wg.Add(1)
		go func(req *domain.PredictionRequest) {
			defer wg.Done()
			c.process(ctx, req)
		}(req)
	}
	wg.Wait()
}

// process drives one request through the pipeline. Per-disease failures
// are absorbed by the predictor; any other failure fails the request.
func (c *Coordinator) process(ctx context.Context, req *domain.PredictionRequest) {
	defer func() {
		if r := recover(); r != nil {
			c.fail(ctx, req, fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	started := time.Now()
	req.Status = domain.StatusProcessing
	c.checkpoint(ctx, req, progressDequeued)

	featureSet := c.deps.Features.Normalize(req.Payload)
	c.checkpoint(ctx, req, progressNormalized)

	results := c.predictAll(ctx, req, featureSet)
	c.checkpoint(ctx, req, progressPredicted)

	ensembleResult := c.deps.Aggregator.Aggregate(results, c.deps.Registry.EnsembleWeights())
	explanations := c.deps.Explainer.Explain(featureSet, results)
	c.checkpoint(ctx, req, progressExplained)

	recommendations := c.deps.Recommender.Recommend(results, featureSet)

	versions := make(map[domain.DiseaseKey]string, len(results))
	for disease, result := range results {
		if result.ModelVersion != "" {
			versions[disease] = result.ModelVersion
		}
	}

	bundle := &domain.ResultBundle{
		PredictionID:    req.ID,
		PatientID:       req.PatientID,
		Diseases:        results,
		Ensemble:        ensembleResult,
		Explanations:    explanations,
		Recommendations: recommendations,
		ModelVersions:   versions,
		GeneratedAt:     time.Now().UTC(),
	}

	req.Result = bundle
	req.Status = domain.StatusCompleted
	c.writeStatus(ctx, req.ID, &domain.StatusRecord{
		Status:    domain.StatusCompleted,
		Progress:  progressDone,
		Timestamp: time.Now().UTC(),
		Result:    bundle,
	})
	c.publish(lifecycleEvent(domain.EventCompleted, req))

	// Fire-and-forget: audit failure never affects the terminal state.
	go func() {
		auditCtx, cancel := context.WithTimeout(context.Background(), statusWriteTimeout)
		defer cancel()
		if err := c.deps.AuditSink.Store(auditCtx, req.ID, bundle); err != nil {
			c.logger.WithError(err).WithField("prediction_id", req.ID).
				Warn("Audit sink write failed")
		}
	}()

	c.logger.WithFields(logrus.Fields{
		"prediction_id":   req.ID,
		"overall_risk":    ensembleResult.OverallRisk,
		"processing_time": time.Since(started),
	}).Info("Prediction completed")
}

// predictAll fans out per-disease predictions concurrently; diseases are
// independent and failure-isolated.
func (c *Coordinator) predictAll(ctx context.Context, req *domain.PredictionRequest, featureSet *domain.NormalizedFeatureSet) map[domain.DiseaseKey]domain.DiseaseRiskResult {
	diseases := req.Options.Diseases
	if len(diseases) == 0 {
		diseases = c.deps.Registry.Diseases()
	}

	results := make(map[domain.DiseaseKey]domain.DiseaseRiskResult, len(diseases))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, disease := range diseases {
		wg.Add(1)
		go func(disease domain.DiseaseKey) {
			defer wg.Done()
			result := c.deps.Predictor.Predict(ctx, disease, featureSet, req.Options.ExternalTimeout)
			mu.Lock()
			results[disease] = result
			mu.Unlock()
		}(disease)
	}
	wg.Wait()
	return results
}

// fail transitions a request to its failed terminal state.
func (c *Coordinator) fail(ctx context.Context, req *domain.PredictionRequest, err error) {
	if req.Status.IsTerminal() {
		return
	}
	req.Status = domain.StatusFailed
	req.Error = err.Error()

	c.writeStatus(ctx, req.ID, &domain.StatusRecord{
		Status:    domain.StatusFailed,
		Progress:  progressDone,
		Timestamp: time.Now().UTC(),
		Error:     req.Error,
	})
	c.publish(lifecycleEvent(domain.EventFailed, req))

	c.logger.WithError(err).WithField("prediction_id", req.ID).
		Error("Prediction failed")
}

// checkpoint writes a progress milestone for a request in flight.
func (c *Coordinator) checkpoint(ctx context.Context, req *domain.PredictionRequest, progress float64) {
	c.writeStatus(ctx, req.ID, &domain.StatusRecord{
		Status:    domain.StatusProcessing,
		Progress:  progress,
		Timestamp: time.Now().UTC(),
	})
}

// writeStatus writes one record best-effort. A status store outage never
// rolls back an otherwise-successful prediction.
func (c *Coordinator) writeStatus(ctx context.Context, id string, record *domain.StatusRecord) {
	writeCtx, cancel := context.WithTimeout(contextOrBackground(ctx), statusWriteTimeout)
	defer cancel()

	ttl := c.config.TTL.For(record.Status)
	if err := c.deps.StatusStore.Set(writeCtx, id, record, ttl); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"prediction_id": id,
			"status":        record.Status,
		}).Warn("Status store write failed")
	}
}

// publish delivers an event to every subscriber without blocking.
func (c *Coordinator) publish(event Event) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- event:
		default:
			c.logger.WithField("event", event.Type).Debug("Dropped lifecycle event for slow subscriber")
		}
	}
}

// QueueLen reports the current queue depth.
func (c *Coordinator) QueueLen() int {
	return c.queue.Len()
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx != nil && ctx.Err() == nil {
		return ctx
	}
	return context.Background()
}
