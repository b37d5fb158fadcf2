package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/concurrency"
	"github.com/abudker/takeoff24/internal/takeoff/model"
)

func TestRunAll_SuccessOnFirstAttempt(t *testing.T) {
	fake := agent.NewFakeExecutor()
	fake.QueueReply("extract_zones", `[{"name": "Zone A"}]`)

	r := &Runner{Executor: fake, Semaphore: concurrency.NewSemaphore(2)}
	results := r.RunAll(context.Background(), []Request{{Domain: DomainZones, Prompt: "p"}})

	res := results[DomainZones]
	assert.Equal(t, model.ExtractionSuccess, res.Status.Status)
	assert.Equal(t, 0, res.Status.RetryCount)
	assert.Equal(t, 1, res.Status.ItemCount)
}

func TestRunAll_RetriesOnceThenSucceeds(t *testing.T) {
	retryDelay = time.Millisecond // keep the test fast
	fake := agent.NewFakeExecutor()
	fake.QueueError("extract_hvac", errors.New("boom"))
	fake.QueueReply("extract_hvac", `[{"name": "AC-1"}]`)

	r := &Runner{Executor: fake, Semaphore: concurrency.NewSemaphore(2)}
	results := r.RunAll(context.Background(), []Request{{Domain: DomainHVAC, Prompt: "p"}})

	res := results[DomainHVAC]
	require.Equal(t, model.ExtractionSuccess, res.Status.Status)
	assert.Equal(t, 1, res.Status.RetryCount)
}

func TestRunAll_FailsAfterBothAttempts(t *testing.T) {
	retryDelay = time.Millisecond
	fake := agent.NewFakeExecutor()
	fake.QueueError("extract_dhw", errors.New("first failure"))
	fake.QueueError("extract_dhw", errors.New("second failure"))

	r := &Runner{Executor: fake, Semaphore: concurrency.NewSemaphore(2)}
	results := r.RunAll(context.Background(), []Request{{Domain: DomainDHW, Prompt: "p"}})

	res := results[DomainDHW]
	assert.Equal(t, model.ExtractionFailed, res.Status.Status)
	assert.Equal(t, 1, res.Status.RetryCount)
	assert.Nil(t, res.Payload)
}

func TestRunAll_FourDomainsConcurrently(t *testing.T) {
	fake := agent.NewFakeExecutor()
	for _, d := range AllDomains() {
		fake.QueueReply("extract_"+string(d), `[]`)
	}

	r := &Runner{Executor: fake, Semaphore: concurrency.NewSemaphore(3)}
	var requests []Request
	for _, d := range AllDomains() {
		requests = append(requests, Request{Domain: d, Prompt: "p"})
	}

	results := r.RunAll(context.Background(), requests)
	assert.Len(t, results, 4)
	for _, d := range AllDomains() {
		assert.Equal(t, model.ExtractionSuccess, results[d].Status.Status)
	}
}
