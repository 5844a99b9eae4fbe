package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cmsapi/internal/clock"
	"cmsapi/internal/config"
	"cmsapi/internal/database"
	"cmsapi/internal/database/migration"
	"cmsapi/internal/delivery"
	"cmsapi/internal/logging"
	"cmsapi/internal/reminder"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the records table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logging.SetLocation(cfg.Location())
			if !cfg.Database.Enabled() {
				return fmt.Errorf("DB_HOST is not set")
			}
			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			return migration.EnsureMigrated(cmd.Context(), db, cfg.Database.Host)
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial accounts and settings",
		Long: `Create the accounts and settings listed in a YAML seed file, or the
demo accounts when no file is given. Accounts whose email already exists are
skipped, so running it twice is harmless.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if file == "" {
				file = cfg.SeedFile
			}
			cfg.SeedFile = file
			a, err := bootstrap(cmd.Context(), cfg, clock.System)
			if err != nil {
				return err
			}
			defer a.close()
			if a.db == nil {
				// bootstrap already seeded the in-memory store.
				return nil
			}
			res, err := a.seed(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users created: %d, settings created: %t\n", res.UsersCreated, res.SettingsCreated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (defaults to SEED_FILE, then the demo accounts)")
	return cmd
}

func evaluateCmd() *cobra.Command {
	var (
		at      string
		commit  bool
		deliver bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one reminder evaluation and exit",
		Long: `Run a single reminder tick against the store, as the serve command does
every REMINDER_INTERVAL_SEC. --deliver also drains the pending notification
queue.

--at evaluates as of another instant and only prints the reminders that date
would raise. Thresholds fire once per document, so persisting a hypothetical
run would suppress the real reminders; pass --commit to write it anyway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c clock.Clock = clock.System
			dryRun := false
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				c = clock.NewManual(t.UTC())
				dryRun = !commit
			}
			if dryRun && deliver {
				return fmt.Errorf("--deliver needs --commit when --at is set")
			}

			a, err := bootstrap(cmd.Context(), config.Load(), c)
			if err != nil {
				return err
			}
			defer a.close()

			ev := reminder.NewEvaluator(a.deps.Store, a.deps.Trail, a.svcs.Settings, c, a.metrics)
			out := cmd.OutOrStdout()
			if dryRun {
				notes, sum, err := ev.Preview(cmd.Context(), c.Now())
				if err != nil {
					return err
				}
				for _, n := range notes {
					fmt.Fprintf(out, "%s\t%s\n", n.SourceDocumentID, n.Title)
				}
				fmt.Fprintf(out, "would generate %d reminders for %d documents (dry run, nothing written)\n", sum.Generated, sum.Documents)
				return nil
			}

			sum, err := ev.Tick(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "generated %d reminders for %d documents\n", sum.Generated, sum.Documents)

			if !deliver {
				return nil
			}
			q := delivery.NewQueue(a.deps.Store, a.deps.Trail, c, a.metrics)
			sent := 0
			for {
				n, err := q.Tick(cmd.Context())
				if err != nil {
					return err
				}
				if n == nil {
					break
				}
				sent++
			}
			fmt.Fprintf(out, "delivered %d notifications\n", sent)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "preview as of this RFC3339 instant instead of now")
	cmd.Flags().BoolVar(&commit, "commit", false, "persist the --at evaluation")
	cmd.Flags().BoolVar(&deliver, "deliver", false, "deliver every pending notification afterwards")
	return cmd
}
