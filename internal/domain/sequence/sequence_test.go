package sequence

import (
	"strings"
	"testing"
)

func TestFASTA(t *testing.T) {
	r := Record{ID: "q1", Description: "test read", Seq: []byte("ACGT")}
	want := ">q1 test read\nACGT\n"
	if got := r.FASTA(); got != want {
		t.Errorf("FASTA() = %q, want %q", got, want)
	}
}

func TestFASTA_Wraps(t *testing.T) {
	r := Record{ID: "long", Seq: []byte(strings.Repeat("A", 130))}
	lines := strings.Split(strings.TrimSuffix(r.FASTA(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 lines, got %d", len(lines))
	}
	if lines[0] != ">long" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines[1]) != 60 || len(lines[2]) != 60 || len(lines[3]) != 10 {
		t.Errorf("line lengths = %d/%d/%d", len(lines[1]), len(lines[2]), len(lines[3]))
	}
	if r.Len() != 130 {
		t.Errorf("Len() = %d", r.Len())
	}
}
