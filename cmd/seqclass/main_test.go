package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "seqclass dev") {
		t.Errorf("output = %q", out)
	}
}

func TestThresholdsFromFlags(t *testing.T) {
	cmd := newClassifyCmd(&app{})
	base := classification.Thresholds{EValue: 1e-3, Identity: 80}

	if got := thresholdsFromFlags(cmd, base, 1, 1); got != base {
		t.Errorf("unset flags must keep config values, got %+v", got)
	}

	if err := cmd.Flags().Set("identity", "95"); err != nil {
		t.Fatal(err)
	}
	got := thresholdsFromFlags(cmd, base, 1e-3, 95)
	if got.Identity != 95 || got.EValue != 1e-3 {
		t.Errorf("got %+v", got)
	}
}

func TestEvaluateAndRuns(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "seqclass.yaml", "storage:\n  runs_db: "+filepath.Join(dir, "runs.db")+"\n")
	pred := writeFile(t, dir, "pred.tsv", "query_id\tlabel\nq1\tInfluenza A virus\nq2\tUnclassified\n")
	truth := writeFile(t, dir, "truth.tsv", "q1\tInfluenza A virus\nq2\tEscherichia coli\nq3\tEscherichia coli\n")

	out, err := execute(t, "--config", cfgPath, "evaluate", pred, "--truth", truth, "--evalue", "1e-10", "--out", dir)
	if err != nil {
		t.Fatalf("evaluate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "33.33%") || !strings.Contains(out, "(1/3)") {
		t.Errorf("evaluate output = %q", out)
	}
	if !strings.Contains(out, "missing:       1") {
		t.Errorf("missing count not shown: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "evaluation.json")); err != nil {
		t.Errorf("evaluation.json not written: %v", err)
	}

	if _, err := execute(t, "--config", cfgPath, "evaluate", pred, "--truth", truth); err != nil {
		t.Fatalf("second evaluate: %v", err)
	}

	out, err = execute(t, "--config", cfgPath, "runs", "list")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Errorf("expected header + 2 runs, got %q", out)
	}

	out, err = execute(t, "--config", cfgPath, "runs", "compare", "--by", "evalue")
	if err != nil {
		t.Fatalf("runs compare: %v", err)
	}
	if !strings.Contains(out, "evalue=1e-10") || !strings.Contains(out, "evalue=1e-05") {
		t.Errorf("compare output = %q", out)
	}

	if _, err := execute(t, "--config", cfgPath, "runs", "compare", "--by", "colour"); err == nil {
		t.Error("expected error for unknown dimension")
	}
	if _, err := execute(t, "--config", cfgPath, "runs", "show", "no-such-run"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestEvaluate_IgnoreCaseFromConfig(t *testing.T) {
	dir := t.TempDir()
	pred := writeFile(t, dir, "pred.tsv", "q1\tinfluenza a virus\n")
	truth := writeFile(t, dir, "truth.tsv", "q1\tInfluenza A virus\n")

	for _, tt := range []struct {
		name string
		yaml string
		want string
	}{
		{"exact by default", "", "(0/1)"},
		{"ignore case", "evaluation:\n  ignore_case: true\n", "(1/1)"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := writeFile(t, t.TempDir(), "seqclass.yaml",
				tt.yaml+"storage:\n  runs_db: "+filepath.Join(t.TempDir(), "runs.db")+"\n")
			out, err := execute(t, "--config", cfgPath, "evaluate", pred, "--truth", truth)
			if err != nil {
				t.Fatalf("evaluate: %v\n%s", err, out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestPrintClassification(t *testing.T) {
	var buf bytes.Buffer
	printClassification(&buf, classification.Outcome{Predictions: classification.Predictions{
		"a": "X", "b": "X", "c": "Y", "d": classification.Unclassified,
	}})
	out := buf.String()
	for _, want := range []string{"queries:       4", "classified:    3", "unclassified:  1", "Top labels"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
	if strings.Index(out, "X") > strings.Index(out, "Y") {
		t.Errorf("labels not ordered by count: %q", out)
	}
}

func TestPrintEffects_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printEffects(&buf, []evaluation.Effect{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "no runs recorded") {
		t.Errorf("output = %q", buf.String())
	}
}
