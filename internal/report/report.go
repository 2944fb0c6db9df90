// Package report writes and reads run artifacts: prediction and ranked-hit
// tables, evaluation summaries and ground truth files.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
)

// File names written into an output directory.
const (
	PredictionsFile = "predictions.tsv"
	RankedFile      = "ranked_hits.tsv"
	EvaluationFile  = "evaluation.json"
)

// WritePredictionsTSV writes one "query_id<TAB>label" row per query, sorted by id.
func WritePredictionsTSV(w io.Writer, predictions map[string]string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "query_id\tlabel")
	for _, q := range sortedKeys(predictions) {
		fmt.Fprintf(bw, "%s\t%s\n", q, predictions[q])
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	return nil
}

// WriteRankedTSV writes every hit of every query in rank order. Hits are
// ranked with normalization over all of the query's hits and the accepted
// column reports whether th lets the hit through.
func WriteRankedTSV(w io.Writer, set hit.ResultSet, th classification.Thresholds) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "query_id\trank\tdatabase\tsubject_id\tbit_score\tnormalized\tevalue\tidentity\tlabel\taccepted")

	for _, q := range classification.QueryIDs(set) {
		ranked, err := classification.Rank(set[q])
		if err != nil {
			return fmt.Errorf("rank %q: %w", q, err)
		}
		for _, s := range ranked {
			fmt.Fprintf(bw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
				q, s.Rank, s.Database(), s.SubjectID(),
				formatFloat(s.BitScore()), formatFloat(s.Normalized),
				optional(s.EValue()), optional(s.Identity()),
				s.Label(), th.Accepts(s.Hit),
			)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write ranked hits: %w", err)
	}
	return nil
}

// WriteEvaluationJSON writes run as indented JSON.
func WriteEvaluationJSON(w io.Writer, run *evaluation.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("write evaluation: %w", err)
	}
	return nil
}

// WriteFile creates path (and its directory) and passes it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func optional(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return formatFloat(v)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
