package main

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/report"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		truthPath string
		outDir    string
		params    evaluation.Params
	)
	cmd := &cobra.Command{
		Use:   "evaluate <predictions.tsv>",
		Short: "Score a predictions file against ground truth and record the run",
		Long: `evaluate compares a predictions TSV (query_id<TAB>label) with ground truth.
Queries missing from the predictions count as Unclassified. The run is stored
so that runs made with different thresholds can be compared later.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load("cli"); err != nil {
				return err
			}
			defer a.sync()

			pred, err := report.ReadPredictionsTSV(args[0])
			if err != nil {
				return err //nolint:wrapcheck // carries path
			}
			truth, err := report.ReadTruthTSV(truthPath)
			if err != nil {
				return err //nolint:wrapcheck // carries path
			}

			svc, err := a.wire(cmd.Context(), wireOptions{runs: true})
			if err != nil {
				return err
			}
			defer svc.Close()

			if !cmd.Flags().Changed("evalue") {
				params.EValueThreshold = a.cfg.Thresholds().EValue
			}
			if !cmd.Flags().Changed("identity") {
				params.IdentityThreshold = a.cfg.Thresholds().Identity
			}
			if params.Program == "" {
				params.Program = a.cfg.Blast.Program
			}
			run, err := svc.evaluate.Evaluate(cmd.Context(), params, pred, truth)
			if err != nil {
				return err //nolint:wrapcheck // domain error
			}

			w := cmd.OutOrStdout()
			printEvaluation(w, run)
			if outDir != "" {
				path := filepath.Join(outDir, report.EvaluationFile)
				if err := report.WriteFile(path, func(w io.Writer) error {
					return report.WriteEvaluationJSON(w, run)
				}); err != nil {
					return err //nolint:wrapcheck // carries path
				}
				printFiles(w, path)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&truthPath, "truth", "t", "", "ground truth TSV (query_id<TAB>label)")
	_ = cmd.MarkFlagRequired("truth")
	f.StringVarP(&outDir, "out", "o", "", "write evaluation.json to this directory")
	f.Float64Var(&params.EValueThreshold, "evalue", 0, "e-value threshold the predictions were made with")
	f.Float64Var(&params.IdentityThreshold, "identity", 0, "identity threshold the predictions were made with")
	f.StringSliceVar(&params.Databases, "db", nil, "databases the predictions were made with")
	f.IntVar(&params.WordSize, "word-size", 0, "search word size the predictions were made with")
	return cmd
}
