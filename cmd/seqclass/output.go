package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	provisionuc "github.com/kailas-cloud/seqclass/internal/usecase/provision"
)

var (
	headerColor = color.New(color.Bold)
	goodColor   = color.New(color.FgGreen, color.Bold)
	warnColor   = color.New(color.FgYellow)
	dimColor    = color.New(color.Faint)
)

// maxLabelRows bounds the per-label table printed after a classification.
const maxLabelRows = 10

func printPrepared(w io.Writer, prepared []provisionuc.Prepared) {
	for _, p := range prepared {
		c := dimColor
		if p.Action == provisionuc.Built {
			c = goodColor
		}
		_, _ = c.Fprintf(w, "%-8s", p.Action)
		_, _ = fmt.Fprintf(w, " %s (%s)\n", p.Name, p.Path)
	}
}

func printClassification(w io.Writer, out classification.Outcome) {
	total := len(out.Predictions)
	unclassified := out.Unclassified()

	_, _ = headerColor.Fprintln(w, "Classification")
	_, _ = fmt.Fprintf(w, "  queries:       %d\n", total)
	_, _ = fmt.Fprint(w, "  classified:    ")
	_, _ = goodColor.Fprintf(w, "%d\n", total-unclassified)
	_, _ = fmt.Fprint(w, "  unclassified:  ")
	_, _ = warnColor.Fprintf(w, "%d\n", unclassified)

	counts := make(map[string]int)
	for _, label := range out.Predictions {
		if label != classification.Unclassified {
			counts[label]++
		}
	}
	if len(counts) == 0 {
		return
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	_, _ = headerColor.Fprintln(w, "Top labels")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, l := range labels {
		if i == maxLabelRows {
			_, _ = fmt.Fprintf(tw, "  ...\t%d more\n", len(labels)-maxLabelRows)
			break
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%d\n", l, counts[l])
	}
	_ = tw.Flush()
}

func printEvaluation(w io.Writer, run *evaluation.Run) {
	m := run.Metrics
	_, _ = headerColor.Fprintln(w, "Evaluation")
	_, _ = fmt.Fprintf(w, "  run:           %s\n", run.ID)
	_, _ = fmt.Fprint(w, "  accuracy:      ")
	_, _ = goodColor.Fprintf(w, "%.2f%%", m.Accuracy*100)
	_, _ = fmt.Fprintf(w, " (%d/%d)\n", m.Correct, m.Total)
	_, _ = fmt.Fprintf(w, "  unclassified:  %d\n", m.Unclassified)
	if m.Missing > 0 {
		_, _ = fmt.Fprint(w, "  missing:       ")
		_, _ = warnColor.Fprintf(w, "%d\n", m.Missing)
	}
}

func printFiles(w io.Writer, paths ...string) {
	for _, p := range paths {
		_, _ = dimColor.Fprintf(w, "wrote %s\n", p)
	}
}

func printRuns(w io.Writer, runs []evaluation.RunSummary) error {
	if len(runs) == 0 {
		_, _ = dimColor.Fprintln(w, "no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = headerColor.Fprintln(tw, "ID\tCREATED\tACCURACY\tCORRECT\tEVALUE\tIDENTITY\tDATABASES")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%.4f\t%d/%d\t%g\t%g\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Accuracy,
			r.Correct, r.Total,
			r.Params.EValueThreshold,
			r.Params.IdentityThreshold,
			strings.Join(r.Params.Databases, ","),
		)
	}
	return tw.Flush() //nolint:wrapcheck // terminal output
}

func printEffects(w io.Writer, effects []evaluation.Effect) error {
	if len(effects) == 0 {
		_, _ = dimColor.Fprintln(w, "no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = headerColor.Fprintln(tw, "SETTING\tRUNS\tMEAN\tBEST\tDELTA")
	for i, e := range effects {
		line := fmt.Sprintf("%s\t%d\t%.4f\t%.4f\t%+.4f\n",
			e.Setting, e.Runs, e.MeanAccuracy, e.BestAccuracy, e.DeltaFromBest)
		if i == 0 {
			_, _ = goodColor.Fprint(tw, line)
			continue
		}
		_, _ = fmt.Fprint(tw, line)
	}
	return tw.Flush() //nolint:wrapcheck // terminal output
}
