package improve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/agent"
	"github.com/abudker/takeoff24/internal/takeoff/obs/errs"
)

const criticAgentName = "critic"

// InstructionProposal is one proposed change to an instruction file,
// parsed from the critic agent's reply.
type InstructionProposal struct {
	TargetFile         string   `json:"target_file"`
	CurrentVersion     string   `json:"current_version"`
	ProposedVersion    string   `json:"proposed_version"`
	ChangeType         string   `json:"change_type"` // add_section|modify_section|clarify_rule|add_example|fix_typo|restructure
	FailurePattern     string   `json:"failure_pattern"`
	Hypothesis         string   `json:"hypothesis"`
	ProposedChange     string   `json:"proposed_change"`
	ExpectedImpact     string   `json:"expected_impact"`
	AffectedErrorTypes []string `json:"affected_error_types"`
	AffectedDomains    []string `json:"affected_domains"`
	EstimatedF1Delta   *float64 `json:"estimated_f1_delta,omitempty"`
}

// Critic invokes the critic agent with an aggregated failure analysis
// and returns its parsed InstructionProposal.
type Critic struct {
	Executor         agent.Executor
	InstructionsDir  string
	ProjectRoot      string
}

// Propose builds the critic prompt from analysis (optionally scoped to
// one focus agent's instruction files per §4.12 step 3), invokes the
// agent, and parses its reply using the same precedence chain as every
// other agent reply: the whole reply, then a fenced JSON block, then
// brace-substring, then the manual field-by-field repair parser.
func (c *Critic) Propose(ctx context.Context, analysis FailureAnalysis, focusAgent, focusReason string) (InstructionProposal, error) {
	files, err := c.listInstructionFiles(focusAgent)
	if err != nil {
		return InstructionProposal{}, errs.Wrap(errs.FatalToEvaluation, "improve", err)
	}

	prompt := c.buildPrompt(analysis, files, focusAgent, focusReason)

	reply, err := c.Executor.Invoke(ctx, criticAgentName, prompt)
	if err != nil {
		return InstructionProposal{}, errs.Wrap(errs.FatalToEvaluation, "improve", err)
	}

	var proposal InstructionProposal
	if err := agent.ExtractJSON(reply, &proposal); err != nil {
		return InstructionProposal{}, errs.Wrap(errs.Parse, "improve", err)
	}
	if proposal.CurrentVersion == "" {
		proposal.CurrentVersion = "1.0.0"
	}
	if proposal.ChangeType == "" {
		proposal.ChangeType = "add_section"
	}
	return proposal, nil
}

func (c *Critic) listInstructionFiles(focusAgent string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.InstructionsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		if focusAgent != "" && !strings.Contains(path, focusAgent) {
			return nil
		}
		rel, relErr := filepath.Rel(c.ProjectRoot, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, rel)
		return nil
	})
	if os.IsNotExist(err) {
		return files, nil
	}
	return files, err
}

func (c *Critic) buildPrompt(analysis FailureAnalysis, files []string, focusAgent, focusReason string) string {
	var b strings.Builder
	b.WriteString("Analyze the following extraction failure patterns and propose ONE instruction file improvement.\n\n")
	b.WriteString("## Failure Analysis\n\n")
	b.WriteString(FormatAnalysisForCritic(analysis))

	if focusAgent != "" {
		fmt.Fprintf(&b, "\n## IMPORTANT: Focus Area\n\nYou MUST propose changes to the **%s** instructions only.\n", focusAgent)
		if focusReason != "" {
			fmt.Fprintf(&b, "Reason: %s\n", focusReason)
		}
		fmt.Fprintf(&b, "\nDo NOT propose changes to other extractors. The %s is the priority for this improvement cycle.\n", focusAgent)
	}

	b.WriteString("\n## Available Instruction Files\n\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	b.WriteString("\n## Your Task\n\nBased on the failure patterns above, generate a proposal to improve ONE instruction file.\n")
	b.WriteString("Output your proposal as JSON following the schema in .claude/instructions/critic/proposal-format.md\n")
	return b.String()
}
