package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ringside/internal/adapters/storage"
	outboxStore "ringside/internal/adapters/storage/outbox"
	"ringside/internal/config"
	domain "ringside/internal/domain/outbox"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			printf(cmd, "%s: schema version %d\n", cfg.DBPath, v)
			return nil
		},
	}
}

func newSessionsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List the tryout session catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(cfg.ScheduleFile)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCOHORT\tACTIVITY\tLABEL")
			for _, e := range catalog.Entries() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Cohort, e.Activity, e.Display())
			}
			return w.Flush()
		},
	}
}

func newOutboxCmd(cfg *config.Config) *cobra.Command {
	var (
		limit   int
		pending bool
	)
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Show notifications that failed delivery",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			store := outboxStore.NewSQLiteStore(db)
			var entries []domain.Entry
			if pending {
				entries, err = store.ListPending(cmd.Context(), limit)
			} else {
				entries, err = store.ListFailed(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printf(cmd, "outbox is clear\n")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACTION\tREGISTRATION\tATTEMPTS\tCREATED\tERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					e.ID, e.ActionType, e.RegistrationID, e.Attempts, e.MaxAttempts,
					storage.FormatTime(e.CreatedAt), e.ErrorMessage)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	cmd.Flags().BoolVar(&pending, "pending", false, "show entries still awaiting retry instead of failed ones")
	return cmd
}
