package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xxxbrian/ruleset-meta/internal/changeset"
	"github.com/xxxbrian/ruleset-meta/internal/config"
	"github.com/xxxbrian/ruleset-meta/internal/logger"
	"github.com/xxxbrian/ruleset-meta/internal/ruleset"
	"github.com/xxxbrian/ruleset-meta/internal/syncer"
)

type syncFlags struct {
	configPath string
	logLevel   string
	root       string
	all        bool
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	flags := &syncFlags{}

	root := &cobra.Command{
		Use:   "ruleset-meta [dir...]",
		Short: "Recount rule lists and refresh their headers and README tables.",
		Long: `ruleset-meta recounts the DOMAIN / DOMAIN-SUFFIX entries of every changed
rule set, stamps the update time and rewrites the list header and README summary.
Without arguments the changed rule sets are taken from git status.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, flags, args)
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to the YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides config)")

	syncCmd := &cobra.Command{
		Use:   "sync [dir...]",
		Short: "Sync changed (or the given) rule-set directories.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, flags, args)
		},
	}
	for _, c := range []*cobra.Command{root, syncCmd} {
		c.Flags().StringVar(&flags.root, "root", "", "rule-set root directory (overrides config)")
		c.Flags().BoolVar(&flags.all, "all", false, "sync every rule set under the root instead of only changed ones")
		c.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "print the changes without writing files")
	}

	root.AddCommand(syncCmd, newCountCmd())
	return root
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <file.list>...",
		Short: "Print per-category entry counts of rule lists.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				summary := ruleset.Count(string(data))

				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s\n", path)
				for _, c := range summary.SortedCategories() {
					fmt.Fprintf(out, "  %-16s %d\n", c.Category, c.Count)
				}
				fmt.Fprintf(out, "  %-16s %d\n", string(ruleset.TagTotal), summary.Total)
			}
			return nil
		},
	}
}

func runSync(cmd *cobra.Command, flags *syncFlags, args []string) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.root != "" {
		cfg.Root = flags.root
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log, closer, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	filter := changeset.Filter{TemplateDir: cfg.TemplateDir, Exclude: cfg.Exclude}
	if err := filter.Validate(); err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	updatedAt := time.Now().In(loc).Format(ruleset.TimestampLayout)

	ctx := cmd.Context()
	dirs := changeset.Discover(ctx, newProvider(cfg, flags, filter, args), log)
	if len(dirs) == 0 {
		log.Info().Msg("no rule-set changes detected")
		return nil
	}
	log.Info().Int("count", len(dirs)).Str("updated_at", updatedAt).Msg("syncing rule sets")

	s := syncer.New(syncer.Options{
		ListExt:    cfg.ListExt,
		ReadmeName: cfg.ReadmeName,
		DryRun:     flags.dryRun,
		Readme:     cfg.ReadmeRewriter(),
	}, log)

	results, err := s.SyncAll(ctx, dirs, updatedAt)
	report(cmd, log, results, flags.dryRun)
	if err != nil {
		log.Error().Err(err).Msg("sync aborted")
		return err
	}
	return nil
}

func newProvider(cfg *config.Config, flags *syncFlags, filter changeset.Filter, args []string) changeset.Provider {
	switch {
	case len(args) > 0:
		return changeset.Static(args)
	case flags.all:
		return &changeset.DirScan{Root: filepath.Join(cfg.RepoDir, cfg.Root), Filter: filter}
	default:
		return &changeset.GitStatus{RepoDir: cfg.RepoDir, Root: cfg.Root, Filter: filter}
	}
}

func report(cmd *cobra.Command, log zerolog.Logger, results []syncer.Result, dryRun bool) {
	updated := 0
	for _, res := range results {
		if res.Status == syncer.StatusUpdated {
			updated++
		}
		log.Info().
			Str("dir", res.Dir).
			Stringer("status", res.Status).
			Int("domain", res.Summary.Domain()).
			Int("domain_suffix", res.Summary.DomainSuffix()).
			Int("total", res.Summary.Total).
			Msg("rule set")

		if dryRun {
			out := cmd.OutOrStdout()
			if res.ListDiff != "" {
				fmt.Fprintf(out, "--- %s\n%s", res.ListFile, res.ListDiff)
			}
			if res.ReadmeDiff != "" {
				fmt.Fprintf(out, "--- %s\n%s", res.ReadmeFile, res.ReadmeDiff)
			}
		}
	}
	log.Info().Int("updated", updated).Int("unchanged", len(results)-updated).Bool("dry_run", dryRun).Msg("done")
}
