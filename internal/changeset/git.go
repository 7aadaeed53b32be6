// Package changeset finds the rule-set directories a sync run should visit.
package changeset

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes git with args inside dir and returns its stdout.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// ExecRunner runs the git binary found in PATH.
func ExecRunner(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return out, nil
}

// GitStatus derives changed rule sets from `git status`. RepoDir must be the
// top of the work tree because porcelain paths are relative to it.
type GitStatus struct {
	RepoDir string
	Root    string
	Filter  Filter
	Run     Runner
}

// ChangedDirs returns the rule-set directories that contain modified,
// added, renamed or untracked paths.
func (g *GitStatus) ChangedDirs(ctx context.Context) ([]string, error) {
	run := g.Run
	if run == nil {
		run = ExecRunner
	}
	repoDir := g.RepoDir
	if repoDir == "" {
		repoDir = "."
	}
	root := filepath.ToSlash(filepath.Clean(g.Root))

	out, err := run(ctx, repoDir, "status", "--porcelain", "-z", "--untracked-files=all", "--", root)
	if err != nil {
		return nil, err
	}

	var dirs []string
	seen := make(map[string]bool)
	for _, p := range ParsePorcelain(out) {
		name, ok := ruleSetName(root, p)
		if !ok || seen[name] || !g.Filter.Allow(name) {
			continue
		}
		seen[name] = true

		dir := filepath.Join(repoDir, filepath.FromSlash(root), name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			// deleted rule sets and loose files in the root
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// ParsePorcelain extracts paths from `git status --porcelain -z` output.
// Rename and copy records contribute their new path; the origin path that
// follows them is skipped.
func ParsePorcelain(out []byte) []string {
	fields := strings.Split(string(out), "\x00")

	var paths []string
	for i := 0; i < len(fields); i++ {
		record := fields[i]
		if len(record) < 4 {
			continue
		}
		status, p := record[:2], record[3:]
		paths = append(paths, p)

		if status[0] == 'R' || status[0] == 'C' || status[1] == 'R' || status[1] == 'C' {
			i++
		}
	}
	return paths
}
