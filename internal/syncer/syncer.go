// Package syncer applies the rule-set header rewrite to directories on disk.
package syncer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/xxxbrian/ruleset-meta/internal/fsutil"
	"github.com/xxxbrian/ruleset-meta/internal/ruleset"
)

const (
	DefaultListExt    = ".list"
	DefaultReadmeName = "README.md"
)

// Status is the outcome of syncing one directory.
type Status int

const (
	StatusUnchanged Status = iota
	StatusUpdated
)

func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Result describes what happened to a single rule-set directory.
type Result struct {
	Dir           string
	ListFile      string
	ReadmeFile    string
	Summary       ruleset.Summary
	ListChanged   bool
	ReadmeChanged bool
	Status        Status
	// ListDiff and ReadmeDiff are only filled in dry-run mode.
	ListDiff   string
	ReadmeDiff string
}

// WriteFunc persists a rewritten artifact.
type WriteFunc func(path string, data []byte, perm fs.FileMode) error

// Options configures a Syncer.
type Options struct {
	ListExt    string
	ReadmeName string
	DryRun     bool
	Readme     ruleset.ReadmeRewriter
	Write      WriteFunc
}

// Syncer rewrites list headers and README summaries, one directory at a time.
type Syncer struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a Syncer, filling in defaults for empty options.
func New(opts Options, logger zerolog.Logger) *Syncer {
	if opts.ListExt == "" {
		opts.ListExt = DefaultListExt
	}
	if opts.ReadmeName == "" {
		opts.ReadmeName = DefaultReadmeName
	}
	if opts.Write == nil {
		opts.Write = fsutil.WriteFileAtomic
	}
	return &Syncer{
		opts:   opts,
		logger: logger.With().Str("component", "syncer").Logger(),
	}
}

// SyncAll syncs dirs sequentially in sorted order and stops at the first error.
func (s *Syncer) SyncAll(ctx context.Context, dirs []string, updatedAt string) ([]Result, error) {
	sorted := append([]string(nil), dirs...)
	sort.Strings(sorted)

	results := make([]Result, 0, len(sorted))
	seen := make(map[string]bool, len(sorted))
	for _, dir := range sorted {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		res, err := s.SyncDir(dir, updatedAt)
		if err != nil {
			return results, fmt.Errorf("sync %s: %w", dir, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// SyncDir recounts the directory's list file and rewrites its header and
// README. A directory without a list file is reported unchanged.
func (s *Syncer) SyncDir(dir, updatedAt string) (Result, error) {
	res := Result{Dir: dir}

	listFile, err := s.findListFile(dir)
	if err != nil {
		return res, err
	}
	if listFile == "" {
		s.logger.Debug().Str("dir", dir).Msg("no list file, skipping")
		return res, nil
	}
	res.ListFile = listFile

	raw, err := os.ReadFile(listFile)
	if err != nil {
		return res, fmt.Errorf("failed to read list: %w", err)
	}
	content := string(raw)

	res.Summary = ruleset.Count(content)
	sum := res.Summary
	rewritten := ruleset.RewriteListHeader(content, updatedAt, sum.Domain(), sum.DomainSuffix(), sum.Total)

	res.ListChanged, res.ListDiff, err = s.apply(listFile, content, rewritten)
	if err != nil {
		return res, err
	}

	readmeFile := filepath.Join(dir, s.opts.ReadmeName)
	ok, err := fsutil.Exists(readmeFile)
	if err != nil {
		return res, fmt.Errorf("failed to stat readme: %w", err)
	}
	if ok {
		res.ReadmeFile = readmeFile
		raw, err := os.ReadFile(readmeFile)
		if err != nil {
			return res, fmt.Errorf("failed to read readme: %w", err)
		}
		readme := string(raw)
		updated := s.opts.Readme.Rewrite(readme, updatedAt, sum.Domain(), sum.DomainSuffix(), sum.Total, filepath.Base(dir))

		res.ReadmeChanged, res.ReadmeDiff, err = s.apply(readmeFile, readme, updated)
		if err != nil {
			return res, err
		}
	}

	if res.ListChanged || res.ReadmeChanged {
		res.Status = StatusUpdated
	}

	s.logger.Debug().
		Str("dir", dir).
		Int("domain", sum.Domain()).
		Int("domain_suffix", sum.DomainSuffix()).
		Int("total", sum.Total).
		Stringer("status", res.Status).
		Msg("rule set processed")

	return res, nil
}

// apply writes updated to path when it differs from original. In dry-run
// mode it returns a diff instead of writing.
func (s *Syncer) apply(path, original, updated string) (changed bool, diff string, err error) {
	if original == updated {
		return false, "", nil
	}
	if s.opts.DryRun {
		return true, LineDiff(original, updated), nil
	}
	if err := s.opts.Write(path, []byte(updated), fsutil.FileMode(path, 0o644)); err != nil {
		return false, "", fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return true, "", nil
}

// findListFile returns the first list file in dir in lexical order, or "".
func (s *Syncer) findListFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var lists []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if filepath.Ext(entry.Name()) == s.opts.ListExt {
			lists = append(lists, entry.Name())
		}
	}
	if len(lists) == 0 {
		return "", nil
	}
	if len(lists) > 1 {
		s.logger.Warn().
			Str("dir", dir).
			Str("using", lists[0]).
			Strs("ignored", lists[1:]).
			Msg("multiple list files found")
	}
	return filepath.Join(dir, lists[0]), nil
}
