package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/fasta"
	"github.com/kailas-cloud/seqclass/internal/report"
)

type classifyOptions struct {
	databases   []string
	outDir      string
	truth       string
	evalue      float64
	identity    float64
	rebuild     bool
	skipPrepare bool
	noCache     bool
}

func newClassifyCmd(a *app) *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify <queries.fasta>",
		Short: "Search queries against the configured databases and label each one",
		Long: `classify searches every query in the FASTA file against the configured
databases, builds missing database indexes first, and writes predictions and
ranked hits to the output directory. With --truth the predictions are also
evaluated and the run is recorded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load("cli"); err != nil {
				return err
			}
			defer a.sync()
			return runClassify(cmd, a, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.databases, "db", "d", nil, "database names to search (default: all configured)")
	f.StringVarP(&opts.outDir, "out", "o", "", "output directory (default: output.dir from config)")
	f.StringVar(&opts.truth, "truth", "", "ground truth TSV (query_id<TAB>label) to evaluate against")
	f.Float64Var(&opts.evalue, "evalue", classification.DefaultEValueThreshold, "maximum accepted e-value")
	f.Float64Var(&opts.identity, "identity", classification.DefaultIdentityThreshold, "minimum accepted percent identity")
	f.BoolVar(&opts.rebuild, "rebuild", false, "rebuild database indexes from FASTA even if they exist")
	f.BoolVar(&opts.skipPrepare, "skip-prepare", false, "search existing indexes without checking or building them")
	f.BoolVar(&opts.noCache, "no-cache", false, "bypass the hit cache")
	return cmd
}

func runClassify(cmd *cobra.Command, a *app, opts *classifyOptions, queriesPath string) error {
	ctx := cmd.Context()
	cfg := a.cfg

	th := thresholdsFromFlags(cmd, cfg.Thresholds(), opts.evalue, opts.identity)
	if err := th.Validate(); err != nil {
		return err //nolint:wrapcheck // domain error
	}

	queries, err := fasta.ReadFile(queriesPath)
	if err != nil {
		return err //nolint:wrapcheck // carries path
	}
	dbs, err := cfg.SelectDatabases(opts.databases)
	if err != nil {
		return err //nolint:wrapcheck // carries database name
	}
	if len(dbs) == 0 {
		return errors.New("no databases configured")
	}

	svc, err := a.wire(ctx, wireOptions{cache: !opts.noCache, runs: opts.truth != ""})
	if err != nil {
		return err
	}
	defer svc.Close()

	if !opts.skipPrepare {
		prepared, err := svc.provision.Prepare(ctx, dbs, opts.rebuild)
		if err != nil {
			return fmt.Errorf("prepare databases: %w", err)
		}
		printPrepared(cmd.ErrOrStderr(), prepared)
	}

	set, err := svc.classify.Search(ctx, queries, dbs)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	out, err := svc.classify.ClassifyResults(ctx, set, th)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	predPath := filepath.Join(outDir, report.PredictionsFile)
	if err := report.WriteFile(predPath, func(w io.Writer) error {
		return report.WritePredictionsTSV(w, out.Predictions)
	}); err != nil {
		return err //nolint:wrapcheck // carries path
	}
	rankedPath := filepath.Join(outDir, report.RankedFile)
	if err := report.WriteFile(rankedPath, func(w io.Writer) error {
		return report.WriteRankedTSV(w, set, th)
	}); err != nil {
		return err //nolint:wrapcheck // carries path
	}

	w := cmd.OutOrStdout()
	printClassification(w, out)
	printFiles(w, predPath, rankedPath)

	if opts.truth == "" {
		return nil
	}
	truth, err := report.ReadTruthTSV(opts.truth)
	if err != nil {
		return err //nolint:wrapcheck // carries path
	}
	run, err := svc.evaluate.Evaluate(ctx, evaluation.Params{
		EValueThreshold:   th.EValue,
		IdentityThreshold: th.Identity,
		Databases:         database.Names(dbs),
		Program:           cfg.Blast.Program,
		SearchEValue:      cfg.Blast.EValue,
		WordSize:          cfg.Blast.WordSize,
	}, out.Predictions, truth)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	evalPath := filepath.Join(outDir, report.EvaluationFile)
	if err := report.WriteFile(evalPath, func(w io.Writer) error {
		return report.WriteEvaluationJSON(w, run)
	}); err != nil {
		return err //nolint:wrapcheck // carries path
	}
	a.logger.Info("Run recorded", zap.String("run_id", run.ID))

	printEvaluation(w, run)
	printFiles(w, evalPath)
	return nil
}

// thresholdsFromFlags overrides configured thresholds with flags the user set.
func thresholdsFromFlags(cmd *cobra.Command, base classification.Thresholds, evalue, identity float64) classification.Thresholds {
	if cmd.Flags().Changed("evalue") {
		base.EValue = evalue
	}
	if cmd.Flags().Changed("identity") {
		base.Identity = identity
	}
	return base
}
