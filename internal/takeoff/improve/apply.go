package improve

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/abudker/takeoff24/internal/takeoff/obs/errs"
)

var (
	versionHeaderPattern = regexp.MustCompile(`[Vv](\d+\.\d+\.\d+)`)
	versionAnyPattern    = regexp.MustCompile(`[Vv]\d+\.\d+\.\d+`)
)

// changeTypeBump maps a proposal's change_type to the semver component
// it bumps, per spec §4.12 step 6.
var changeTypeBump = map[string]string{
	"add_section":    "minor",
	"modify_section": "minor",
	"clarify_rule":   "patch",
	"fix_typo":       "patch",
	"restructure":    "major",
}

func bumpTypeFor(changeType string) string {
	if bump, ok := changeTypeBump[changeType]; ok {
		return bump
	}
	return "patch"
}

// ParseInstructionVersion reads the semantic version from the first 10
// lines of an instruction file's header (e.g. "# Verifier Instructions
// v1.2.3"), defaulting to "1.0.0" when no version header is found.
func ParseInstructionVersion(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	header := strings.Join(lines, "\n")
	if m := versionHeaderPattern.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	return "1.0.0"
}

// BumpVersion increments current's major/minor/patch component per
// bumpType, resetting lower components to zero.
func BumpVersion(current, bumpType string) (string, error) {
	parts := strings.Split(current, ".")
	major, minor, patch := 1, 0, 0
	if len(parts) > 0 {
		major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		patch, _ = strconv.Atoi(parts[2])
	}

	switch bumpType {
	case "major":
		return fmt.Sprintf("%d.0.0", major+1), nil
	case "minor":
		return fmt.Sprintf("%d.%d.0", major, minor+1), nil
	case "patch":
		return fmt.Sprintf("%d.%d.%d", major, minor, patch+1), nil
	default:
		return "", fmt.Errorf("invalid bump type %q", bumpType)
	}
}

// ApplyVersionToContent replaces the first vX.Y.Z occurrence in content
// with newVersion, or appends "vX.Y.Z" to the first "# " heading if no
// version marker exists yet.
func ApplyVersionToContent(content, newVersion string) string {
	if versionAnyPattern.MatchString(content) {
		replaced := false
		return versionAnyPattern.ReplaceAllStringFunc(content, func(match string) string {
			if replaced {
				return match
			}
			replaced = true
			return match[:1] + newVersion
		})
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			lines[i] = fmt.Sprintf("%s v%s", line, newVersion)
			break
		}
	}
	return strings.Join(lines, "\n")
}

// SaveInstructionSnapshot copies targetPath into
// iterationDir/instruction-changes/<agent>-<file>-v<version>.md, where
// <agent> is the instruction file's parent directory name.
func SaveInstructionSnapshot(targetPath, iterationDir, version string) (string, error) {
	changesDir := filepath.Join(iterationDir, "instruction-changes")
	if err := os.MkdirAll(changesDir, 0o755); err != nil {
		return "", err
	}

	agentName := filepath.Base(filepath.Dir(targetPath))
	stem := strings.TrimSuffix(filepath.Base(targetPath), filepath.Ext(targetPath))
	snapshotPath := filepath.Join(changesDir, fmt.Sprintf("%s-%s-v%s.md", agentName, stem, version))

	if err := copyFile(targetPath, snapshotPath); err != nil {
		return "", err
	}
	return snapshotPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// ApplyProposal applies proposal to its target instruction file under
// projectRoot: snapshots the current content into every iterationDir
// first, appends the proposed change, bumps the version header, and
// writes the result back. Returns the (old, new) version pair.
func ApplyProposal(proposal InstructionProposal, projectRoot string, iterationDirs []string) (string, string, error) {
	targetPath := filepath.Join(projectRoot, proposal.TargetFile)

	content, err := os.ReadFile(targetPath)
	if err != nil {
		return "", "", errs.Wrap(errs.FatalToEvaluation, "improve", fmt.Errorf("target file not found: %w", err))
	}
	currentContent := string(content)
	currentVersion := ParseInstructionVersion(currentContent)

	for _, dir := range iterationDirs {
		if _, err := SaveInstructionSnapshot(targetPath, dir, currentVersion); err != nil {
			return "", "", err
		}
	}

	// All change types append today; a real section-replace editor
	// needs section markers the instruction files don't carry yet.
	newContent := strings.TrimRight(currentContent, "\n\r\t ") + "\n\n" + proposal.ProposedChange + "\n"

	bumpType := bumpTypeFor(proposal.ChangeType)
	newVersion, err := BumpVersion(currentVersion, bumpType)
	if err != nil {
		return "", "", err
	}
	newContent = ApplyVersionToContent(newContent, newVersion)

	if err := os.WriteFile(targetPath, []byte(newContent), 0o644); err != nil {
		return "", "", err
	}
	return currentVersion, newVersion, nil
}

// RollbackInstruction restores targetPath from the snapshot saved in
// iterationDir/instruction-changes/, returning false if no matching
// snapshot exists.
func RollbackInstruction(targetPath, iterationDir string) (bool, error) {
	changesDir := filepath.Join(iterationDir, "instruction-changes")
	entries, err := os.ReadDir(changesDir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	agentName := filepath.Base(filepath.Dir(targetPath))
	stem := strings.TrimSuffix(filepath.Base(targetPath), filepath.Ext(targetPath))
	prefix := fmt.Sprintf("%s-%s-v", agentName, stem)

	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			return true, copyFile(filepath.Join(changesDir, e.Name()), targetPath)
		}
	}
	return false, nil
}

// RollbackIteration restores every instruction file snapshotted under
// iterationDir/instruction-changes/ back to its home under
// instructionsDir, matching each snapshot's "<agent>-<file>-v<ver>.md"
// name against instructionsDir's immediate subdirectories to recover
// the agent name unambiguously (a plain prefix split would break on
// agent names containing hyphens).
func RollbackIteration(instructionsDir, iterationDir string) ([]string, error) {
	changesDir := filepath.Join(iterationDir, "instruction-changes")
	snapshots, err := os.ReadDir(changesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	agentDirs, err := os.ReadDir(instructionsDir)
	if err != nil {
		return nil, err
	}

	var restored []string
	for _, snapshot := range snapshots {
		name := snapshot.Name()
		for _, agentDir := range agentDirs {
			if !agentDir.IsDir() {
				continue
			}
			prefix := agentDir.Name() + "-"
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			rest := strings.TrimSuffix(name[len(prefix):], ".md")
			if idx := strings.LastIndex(rest, "-v"); idx >= 0 {
				stem := rest[:idx]
				targetPath := filepath.Join(instructionsDir, agentDir.Name(), stem+".md")
				if err := copyFile(filepath.Join(changesDir, name), targetPath); err != nil {
					return restored, err
				}
				restored = append(restored, targetPath)
				break
			}
		}
	}
	return restored, nil
}
