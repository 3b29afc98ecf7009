package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"leasekeeper/internal/app"
	"leasekeeper/internal/platform/config"
	"leasekeeper/internal/platform/logger"
	id "leasekeeper/pkg/domain"
)

type appOpener func(cmd *cobra.Command) (*app.App, error)

func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg := config.FromEnv()
	return app.New(cfg, logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level))
}

func newRootCmd(open appOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "leasectl",
		Short:         "Operator commands for leasekeeper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		migrateCmd(open),
		sweepCmd(open),
		notifyCmd(open),
	)
	return root
}

func migrateCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // process is exiting

			applied, err := a.Migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
			}
			return nil
		},
	}
}

func sweepCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Recompute lease statuses against today's date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // process is exiting

			result, err := a.Leases.SweepStatuses(cmd.Context())
			if result != nil {
				if werr := writeJSON(cmd.OutOrStdout(), result); werr != nil {
					return werr
				}
			}
			return err
		},
	}
}

func notifyCmd(open appOpener) *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Generate and deliver expiration notifications now",
		Long:  "Runs the daily notification job for one account (--account) or every active account and prints the per-account report.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var scope *id.AccountID
			if account != "" {
				accountID, err := id.ParseAccountID(account)
				if err != nil {
					return err
				}
				scope = &accountID
			}

			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // process is exiting

			report, err := a.NotificationJob.TriggerManually(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if failed := report.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d accounts failed", failed, len(report.Scopes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "run a single account by ID")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
