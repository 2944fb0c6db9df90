package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/report"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and compare recorded evaluation runs",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a), newRunsCompareCmd(a), newRunsDeleteCmd(a))
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openRuns(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			defer a.sync()

			list, err := svc.evaluate.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err //nolint:wrapcheck // already wrapped
			}
			return printRuns(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run with its metrics and predictions as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openRuns(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			defer a.sync()

			run, err := svc.evaluate.GetRun(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrRunNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return err //nolint:wrapcheck // already wrapped
			}
			return report.WriteEvaluationJSON(cmd.OutOrStdout(), run) //nolint:wrapcheck // already wrapped
		},
	}
}

func newRunsCompareCmd(a *app) *cobra.Command {
	var (
		by    string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Group runs by a parameter and compare their accuracy",
		Long: `compare groups recorded runs by one parameter (evalue, identity, databases,
word_size, or all of them) and reports mean and best accuracy per setting,
best setting first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openRuns(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			defer a.sync()

			effects, err := svc.evaluate.Compare(cmd.Context(), evaluation.Dimension(by), limit)
			if err != nil {
				return err //nolint:wrapcheck // domain error
			}
			return printEffects(cmd.OutOrStdout(), effects)
		},
	}
	cmd.Flags().StringVar(&by, "by", string(evaluation.ByAll), "grouping: all, evalue, identity, databases, word_size")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "only consider the most recent runs (0: store default)")
	return cmd
}

func newRunsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>...",
		Short: "Delete recorded runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.openRuns(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()
			defer a.sync()

			for _, id := range args {
				if err := svc.evaluate.DeleteRun(cmd.Context(), id); err != nil {
					return err //nolint:wrapcheck // already wrapped
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	}
}

// openRuns loads config and opens only the run store.
func (a *app) openRuns(cmd *cobra.Command) (*services, error) {
	if err := a.load("cli"); err != nil {
		return nil, err
	}
	return a.wire(cmd.Context(), wireOptions{runs: true})
}
