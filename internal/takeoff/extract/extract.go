// Package extract implements C6: the four domain extractors, fanned out
// concurrently under the global agent semaphore with a one-retry policy.
package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/concurrency"
	"github.com/abudker/takeoff24/internal/takeoff/model"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
	"github.com/abudker/takeoff24/internal/takeoff/obs/metrics"
)

// Domain is one of the four concurrently-extracted data domains.
type Domain string

const (
	DomainZones   Domain = "zones"
	DomainWindows Domain = "windows"
	DomainHVAC    Domain = "hvac"
	DomainDHW     Domain = "dhw"
)

var allDomains = []Domain{DomainZones, DomainWindows, DomainHVAC, DomainDHW}

// retryDelay is the fixed sleep before the single retry attempt, per
// §4.6's extract_with_retry contract.
var retryDelay = 2 * time.Second

// Request bundles everything one domain extractor needs: its prompt and,
// for zones/windows only, the resolved front-orientation context.
type Request struct {
	Domain Domain
	Prompt string
}

// Runner drives the four domain extractors concurrently under a shared
// semaphore.
type Runner struct {
	Executor  agent.Executor
	Semaphore *concurrency.Semaphore
}

// RunAll launches every request concurrently and returns one ExtractionStatus
// plus raw JSON payload per domain, keyed by domain name. A domain whose
// payload is nil failed both attempts; the merge stage treats that as
// "contributes nothing," not as a fatal error for the run.
func (r *Runner) RunAll(ctx context.Context, requests []Request) map[Domain]DomainResult {
	results := make(chan DomainResult, len(requests))

	for _, req := range requests {
		go func(req Request) {
			results <- r.extractWithRetry(ctx, req)
		}(req)
	}

	out := make(map[Domain]DomainResult, len(requests))
	for range requests {
		res := <-results
		out[res.Domain] = res
	}
	return out
}

// DomainResult is one domain's extraction outcome.
type DomainResult struct {
	Domain  Domain
	Status  model.ExtractionStatus
	Payload json.RawMessage // nil on failure
}

// extractWithRetry makes one attempt, and on failure sleeps retryDelay and
// retries exactly once, per §4.6.
func (r *Runner) extractWithRetry(ctx context.Context, req Request) DomainResult {
	logger := log.Named("extract").With("domain", req.Domain)

	payload, err := r.attempt(ctx, req)
	if err == nil {
		return DomainResult{
			Domain:  req.Domain,
			Status:  model.ExtractionStatus{Status: model.ExtractionSuccess, RetryCount: 0, ItemCount: itemCount(payload)},
			Payload: payload,
		}
	}

	logger.Warnw("domain extraction failed, retrying once", "error", err)
	metrics.DomainRetries.WithLabelValues(string(req.Domain)).Inc()
	time.Sleep(retryDelay)

	payload, err = r.attempt(ctx, req)
	if err == nil {
		return DomainResult{
			Domain:  req.Domain,
			Status:  model.ExtractionStatus{Status: model.ExtractionSuccess, RetryCount: 1, ItemCount: itemCount(payload)},
			Payload: payload,
		}
	}

	logger.Errorw("domain extraction failed after retry", "error", err)
	return DomainResult{
		Domain:  req.Domain,
		Status:  model.ExtractionStatus{Status: model.ExtractionFailed, RetryCount: 1, Error: err.Error()},
		Payload: nil,
	}
}

func (r *Runner) attempt(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := r.Semaphore.Acquire(ctx); err != nil {
		return nil, err
	}
	defer r.Semaphore.Release()

	start := time.Now()
	reply, err := r.Executor.Invoke(ctx, "extract_"+string(req.Domain), req.Prompt)
	metrics.AgentLatency.WithLabelValues(string(req.Domain)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentInvocations.WithLabelValues(string(req.Domain), "error").Inc()
		return nil, err
	}

	var raw json.RawMessage
	if err := agent.ExtractJSON(reply, &raw); err != nil {
		metrics.AgentInvocations.WithLabelValues(string(req.Domain), "error").Inc()
		return nil, err
	}
	metrics.AgentInvocations.WithLabelValues(string(req.Domain), "success").Inc()
	return raw, nil
}

func itemCount(payload json.RawMessage) int {
	var asList []json.RawMessage
	if err := json.Unmarshal(payload, &asList); err == nil {
		return len(asList)
	}
	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(payload, &asObject); err == nil {
		return len(asObject)
	}
	return 0
}

// AllDomains returns the four domains in a fixed order, useful for
// building requests.
func AllDomains() []Domain {
	out := make([]Domain, len(allDomains))
	copy(out, allDomains)
	return out
}
