// Package tui implements the interactive instruction-proposal review
// screen, the Go/bubbletea counterpart of
// original_source/src/improvement/review.py's rich-based
// present_proposal/edit_proposal/show_metrics_comparison menu.
package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abudker/takeoff24/internal/takeoff/improve"
	"github.com/abudker/takeoff24/internal/takeoff/store"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	improveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	regressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Reviewer drives an interactive bubbletea session that presents one
// InstructionProposal and returns the operator's decision, implementing
// improve.Reviewer.
type Reviewer struct{}

// NewReviewer builds the interactive reviewer.
func NewReviewer() *Reviewer {
	return &Reviewer{}
}

// Review presents proposal interactively and blocks until the operator
// accepts, edits, rejects, or skips it.
func (Reviewer) Review(proposal improve.InstructionProposal) (improve.Decision, improve.InstructionProposal, error) {
	model := reviewModel{proposal: proposal}
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return improve.Skip, proposal, err
	}
	result := final.(reviewModel)
	if result.decision == "" {
		return improve.Skip, proposal, nil
	}
	if result.decision == improve.Edit {
		edited, editErr := EditViaExternalEditor(result.proposal)
		if editErr != nil || edited == nil {
			return improve.Skip, proposal, editErr
		}
		return improve.Accept, *edited, nil
	}
	return result.decision, result.proposal, nil
}

type reviewModel struct {
	proposal improve.InstructionProposal
	decision improve.Decision
}

func (m reviewModel) Init() tea.Cmd { return nil }

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "a", "y":
		m.decision = improve.Accept
		return m, tea.Quit
	case "e":
		m.decision = improve.Edit
		return m, tea.Quit
	case "r", "n":
		m.decision = improve.Reject
		return m, tea.Quit
	case "s", "esc", "q", "ctrl+c":
		m.decision = improve.Skip
		return m, tea.Quit
	}
	return m, nil
}

func (m reviewModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Instruction Improvement Proposal") + "\n\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Target:"), m.proposal.TargetFile)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Change type:"), m.proposal.ChangeType)
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Failure pattern:"), m.proposal.FailurePattern)
	b.WriteString(labelStyle.Render("Hypothesis:") + "\n")
	b.WriteString(bodyStyle.Render(m.proposal.Hypothesis) + "\n\n")
	b.WriteString(labelStyle.Render("Proposed change:") + "\n")
	b.WriteString(bodyStyle.Render(m.proposal.ProposedChange) + "\n\n")
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("Expected impact:"), m.proposal.ExpectedImpact)
	b.WriteString(footerStyle.Render("[a]ccept  [e]dit  [r]eject  [s]kip"))
	return b.String()
}

// EditViaExternalEditor opens $EDITOR (falling back to $VISUAL, then vim)
// on a scratch file seeded with proposal.ProposedChange, and returns a
// copy of proposal with the edited text applied. Returns (nil, nil) if
// the operator clears the file to signal cancellation.
func EditViaExternalEditor(proposal improve.InstructionProposal) (*improve.InstructionProposal, error) {
	tmp, err := os.CreateTemp("", "takeoff-proposal-*.md")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	header := fmt.Sprintf("# Edit Proposed Change\n# Target: %s\n# Save and close to apply, or delete all content to cancel\n\n", proposal.TargetFile)
	if _, err := tmp.WriteString(header + proposal.ProposedChange); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vim"
	}

	cmd := exec.Command(editor, tmpPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, err
	}

	var kept []string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	edited := strings.TrimSpace(strings.Join(kept, "\n"))
	if edited == "" {
		return nil, nil
	}

	updated := proposal
	updated.ProposedChange = edited
	return &updated, nil
}

// RenderMetricsComparison formats a before/after metrics table, the Go
// counterpart of show_metrics_comparison.
func RenderMetricsComparison(before map[string]store.IterationMetrics, after map[string]store.IterationMetrics) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Metrics Comparison") + "\n\n")
	for evalID, beforeMetrics := range before {
		afterMetrics, ok := after[evalID]
		if !ok {
			continue
		}
		delta := afterMetrics.F1 - beforeMetrics.F1
		style := regressStyle
		if delta >= 0 {
			style = improveStyle
		}
		fmt.Fprintf(&b, "%s  F1 %.3f -> %.3f (%s)\n", evalID, beforeMetrics.F1, afterMetrics.F1, style.Render(fmt.Sprintf("%+.3f", delta)))
	}
	return b.String()
}
