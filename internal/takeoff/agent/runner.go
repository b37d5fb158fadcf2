// Package agent invokes the external LLM-agent executor and extracts the
// first well-formed JSON object from its free-form reply. The executor
// itself is an opaque collaborator: a separate process that reads a
// prompt and writes a reply to stdout.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"golang.org/x/time/rate"

	"github.com/abudker/takeoff24/internal/takeoff/obs/errs"
	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
)

// Executor sends a prompt to a named external agent and returns its raw
// reply text. Implementations own process spawning, capture, and timeout.
type Executor interface {
	Invoke(ctx context.Context, agentName, prompt string) (string, error)
}

// ProcessExecutor spawns the agent as a subprocess: the prompt goes in on
// stdin, the reply comes back on stdout, and the only deadline is the one
// carried by the context passed in; the executor adds none of its own.
type ProcessExecutor struct {
	// BinaryPath is the executable invoked for every agent call, e.g. a
	// wrapper script that dispatches to the configured model provider.
	BinaryPath string
	// limiter paces calls so a caller hammering `extract all` across many
	// evaluations doesn't saturate the executor faster than the counting
	// semaphore alone would allow.
	limiter *rate.Limiter
}

// NewProcessExecutor builds an executor rate-limited to ratePerSecond
// sustained calls with a burst of burst.
func NewProcessExecutor(binaryPath string, ratePerSecond float64, burst int) *ProcessExecutor {
	return &ProcessExecutor{
		BinaryPath: binaryPath,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (e *ProcessExecutor) Invoke(ctx context.Context, agentName, prompt string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", errs.Wrap(errs.FatalToEvaluation, "agent", err).
			WithDetails(map[string]any{"agent": agentName})
	}

	cmd := exec.CommandContext(ctx, e.BinaryPath, "--agent", agentName)
	cmd.Stdin = bytes.NewBufferString(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	log.Named("agent").Debugw("agent invocation", "agent", agentName, "elapsed", time.Since(start))

	if ctx.Err() == context.DeadlineExceeded {
		return "", errs.New(errs.FatalToEvaluation, "agent", "agent call timed out").
			WithDetails(map[string]any{"agent": agentName})
	}
	if err != nil {
		return "", errs.Wrap(errs.FatalToEvaluation, "agent", fmt.Errorf("%w: %s", err, stderr.String())).
			WithDetails(map[string]any{"agent": agentName})
	}
	return stdout.String(), nil
}
