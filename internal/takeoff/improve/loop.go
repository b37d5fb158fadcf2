package improve

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/obs/log"
	"github.com/abudker/takeoff24/internal/takeoff/store"
)

// Decision is the outcome of presenting a proposal to a reviewer.
type Decision string

const (
	Accept Decision = "accept"
	Edit   Decision = "edit"
	Reject Decision = "reject"
	Skip   Decision = "skip"
)

// Reviewer presents a proposal and returns a decision; the scripted
// non-interactive path and the bubbletea TUI both implement it.
type Reviewer interface {
	Review(proposal InstructionProposal) (Decision, InstructionProposal, error)
}

// AutoAccept always accepts without prompting, used for `improve one --auto`.
type AutoAccept struct{}

func (AutoAccept) Review(proposal InstructionProposal) (Decision, InstructionProposal, error) {
	return Accept, proposal, nil
}

// AutoReject rejects every proposal without prompting, so nothing is
// applied.
type AutoReject struct{}

func (AutoReject) Review(proposal InstructionProposal) (Decision, InstructionProposal, error) {
	return Reject, proposal, nil
}

// Reextractor re-runs extraction and verification across every affected
// evaluation after a proposal is applied, returning the new metrics.
// Its implementation composes the orchestrator and verify packages;
// kept as an interface here so the improvement loop has no direct
// dependency on orchestration internals.
type Reextractor interface {
	ReextractAndVerify(ctx context.Context, evalIDs []string) (map[string]store.IterationMetrics, error)
}

// Loop runs one improvement iteration end to end.
type Loop struct {
	Store           *store.EvalStore
	Critic          *Critic
	Reviewer        Reviewer
	Reextract       Reextractor
	ProjectRoot     string
	SkipExtraction  bool
	EnableGitCommit bool
}

// Result summarizes one completed iteration.
type Result struct {
	Proposal      InstructionProposal
	Decision      Decision
	OldVersion    string
	NewVersion    string
	BeforeMetrics FailureAnalysis
	AfterMetrics  map[string]store.IterationMetrics
	Committed     bool
}

// Run executes one improvement iteration against evalIDs: load latest
// results, aggregate failures, invoke the critic, review the proposal,
// apply on accept, optionally re-extract/re-verify, and optionally
// commit. When the proposal is rejected or skipped, nothing is applied and
// the Result carries only the proposal, decision and before-metrics.
func (l *Loop) Run(ctx context.Context, evalIDs []string, focusAgent, focusReason string) (*Result, error) {
	logger := log.Named("improve")

	var latest []store.EvalResults
	for _, evalID := range evalIDs {
		iter, ok, err := l.Store.GetLatestIteration(evalID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results, err := l.Store.LoadIteration(evalID, iter)
		if err != nil {
			return nil, err
		}
		if results != nil {
			results.EvalID = evalID
			latest = append(latest, *results)
		}
	}

	analysis := AggregateFailures(latest)
	logger.Infow("failure analysis aggregated", "num_evals", analysis.NumEvals, "aggregate_f1", analysis.AggregateF1)

	proposal, err := l.Critic.Propose(ctx, analysis, focusAgent, focusReason)
	if err != nil {
		return nil, err
	}

	decision, proposal, err := l.Reviewer.Review(proposal)
	if err != nil {
		return nil, err
	}
	if decision == Reject || decision == Skip {
		return &Result{Proposal: proposal, Decision: decision, BeforeMetrics: analysis}, nil
	}

	next, err := l.Store.GetNextIteration(evalIDs[0])
	if err != nil {
		return nil, err
	}
	var iterationDirs []string
	for _, evalID := range evalIDs {
		iterationDirs = append(iterationDirs, l.Store.IterationDir(evalID, next))
	}

	oldVersion, newVersion, err := ApplyProposal(proposal, l.ProjectRoot, iterationDirs)
	if err != nil {
		return nil, err
	}
	logger.Infow("proposal applied", "target_file", proposal.TargetFile, "old_version", oldVersion, "new_version", newVersion)

	result := &Result{
		Proposal:      proposal,
		Decision:      decision,
		OldVersion:    oldVersion,
		NewVersion:    newVersion,
		BeforeMetrics: analysis,
	}

	if !l.SkipExtraction && l.Reextract != nil {
		after, err := l.Reextract.ReextractAndVerify(ctx, evalIDs)
		if err != nil {
			return result, err
		}
		result.AfterMetrics = after
	}

	if l.EnableGitCommit {
		committed := l.gitCommit(proposal, result)
		result.Committed = committed
		if !committed {
			logger.Infow("git commit skipped or failed", "target_file", proposal.TargetFile)
		}
	}

	return result, nil
}

// gitCommit stages and commits the target instruction file with a
// message carrying the hypothesis and post-iteration metrics, best-effort: any
// failure (no git on PATH, not a repo, nothing to commit) is swallowed.
func (l *Loop) gitCommit(proposal InstructionProposal, result *Result) bool {
	if _, err := exec.LookPath("git"); err != nil {
		return false
	}

	msg := l.commitMessage(proposal, result)

	add := exec.Command("git", "add", proposal.TargetFile)
	add.Dir = l.ProjectRoot
	if err := add.Run(); err != nil {
		return false
	}

	commit := exec.Command("git", "commit", "-m", msg)
	commit.Dir = l.ProjectRoot
	return commit.Run() == nil
}

func (l *Loop) commitMessage(proposal InstructionProposal, result *Result) string {
	agentName := agentNameFromPath(proposal.TargetFile)
	hypothesis := proposal.Hypothesis
	if i := strings.Index(hypothesis, "."); i >= 0 {
		hypothesis = hypothesis[:i]
	}
	if hypothesis == "" {
		hypothesis = "Improve extraction accuracy"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "feat(instructions): improve %s %s -> %s\n\n", agentName, proposal.CurrentVersion, proposal.ProposedVersion)
	fmt.Fprintf(&b, "%s\n", hypothesis)

	if len(result.AfterMetrics) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Metrics after iteration:\n")
		for evalID, m := range result.AfterMetrics {
			fmt.Fprintf(&b, "- %s: F1=%.3f precision=%.3f recall=%.3f\n", evalID, m.F1, m.Precision, m.Recall)
		}
	}
	return b.String()
}

func agentNameFromPath(targetFile string) string {
	parts := strings.Split(strings.ReplaceAll(targetFile, "\\", "/"), "/")
	if len(parts) < 2 {
		return targetFile
	}
	return parts[len(parts)-2]
}
