// Package changeset finds the rule-set directories a sync run should visit.
package changeset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// ErrInvalidPattern indicates a malformed exclude pattern.
var ErrInvalidPattern = errors.New("invalid exclude pattern")

// Provider yields candidate rule-set directories.
type Provider interface {
	ChangedDirs(ctx context.Context) ([]string, error)
}

// Filter decides which directory names under the rule-set root are rule sets.
type Filter struct {
	// TemplateDir is the reserved template directory name, never synced.
	TemplateDir string
	// Exclude holds doublestar patterns matched against the directory name.
	Exclude []string
}

// Validate checks every exclude pattern.
func (f Filter) Validate() error {
	for _, pattern := range f.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}
	return nil
}

// Allow reports whether the directory name should be synced.
func (f Filter) Allow(name string) bool {
	if name == "" || name == "." || name == ".." || name == ".git" {
		return false
	}
	if f.TemplateDir != "" && name == f.TemplateDir {
		return false
	}
	for _, pattern := range f.Exclude {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return false
		}
	}
	return true
}

// DirScan lists every rule-set directory under Root.
type DirScan struct {
	Root   string
	Filter Filter
}

// ChangedDirs returns all immediate subdirectories of Root accepted by the filter.
func (d *DirScan) ChangedDirs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule-set root: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || !d.Filter.Allow(entry.Name()) {
			continue
		}
		dirs = append(dirs, filepath.Join(d.Root, entry.Name()))
	}
	return dirs, nil
}

// Static is a fixed list of directories, used when they are named on the command line.
type Static []string

// ChangedDirs returns the list itself.
func (s Static) ChangedDirs(context.Context) ([]string, error) {
	return []string(s), nil
}

// Discover asks p for directories. A failing provider is logged and treated
// as "nothing changed" so the run still completes. The result is sorted and
// de-duplicated.
func Discover(ctx context.Context, p Provider, logger zerolog.Logger) []string {
	dirs, err := p.ChangedDirs(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("change detection failed, assuming no changes")
		return nil
	}
	return uniqueSorted(dirs)
}

func uniqueSorted(dirs []string) []string {
	if len(dirs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// ruleSetName maps a slash-separated repository path to its first path
// component below root. ok is false for paths outside root.
func ruleSetName(root, p string) (name string, ok bool) {
	p = path.Clean(p)
	root = path.Clean(root)

	rel := p
	if root != "." {
		if !strings.HasPrefix(p, root+"/") {
			return "", false
		}
		rel = strings.TrimPrefix(p, root+"/")
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}

	name, _, _ = strings.Cut(rel, "/")
	return name, true
}
