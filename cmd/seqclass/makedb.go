package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newMakeDBCmd(a *app) *cobra.Command {
	var (
		names []string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "makedb",
		Short: "Build missing database indexes from their FASTA files",
		Long: `makedb makes sure every configured database has a searchable index.
Existing indexes are reused unless --force is given; rebuilding a database
drops its cached hits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load("cli"); err != nil {
				return err
			}
			defer a.sync()

			dbs, err := a.cfg.SelectDatabases(names)
			if err != nil {
				return err //nolint:wrapcheck // carries database name
			}
			if len(dbs) == 0 {
				return errors.New("no databases configured")
			}

			svc, err := a.wire(cmd.Context(), wireOptions{cache: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			prepared, err := svc.provision.Prepare(cmd.Context(), dbs, force)
			if err != nil {
				return fmt.Errorf("prepare databases: %w", err)
			}
			printPrepared(cmd.OutOrStdout(), prepared)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&names, "db", "d", nil, "database names (default: all configured)")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild indexes even if they exist")
	return cmd
}
