package fasta

import (
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/seqclass/internal/domain"
)

func TestRead(t *testing.T) {
	in := ">q1 Influenza segment 4\nacgt\nAC GT\n\n>q2\r\nTTTT\r\n"
	recs, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "q1" || recs[0].Description != "Influenza segment 4" {
		t.Errorf("header = %q / %q", recs[0].ID, recs[0].Description)
	}
	if string(recs[0].Seq) != "ACGTACGT" {
		t.Errorf("seq = %q", recs[0].Seq)
	}
	if recs[1].ID != "q2" || string(recs[1].Seq) != "TTTT" || recs[1].Description != "" {
		t.Errorf("second record = %+v", recs[1])
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"duplicate id", ">a\nAC\n>a\nGT\n", ErrDuplicateID},
		{"data before header", "ACGT\n>a\nAC\n", domain.ErrInvalidInput},
		{"empty header", ">\nACGT\n", domain.ErrInvalidInput},
		{"record without sequence", ">a\n>b\nACGT\n", domain.ErrInvalidInput},
		{"last record without sequence", ">a\nACGT\n>b\n\n", domain.ErrInvalidInput},
		{"whitespace-only sequence", ">a\n  \t \n", domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRead_EmptyRecordNamesHeaderLine(t *testing.T) {
	_, err := Read(strings.NewReader(">q1\nACGT\n>q2 no residues\n>q3\nGG\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "line 3") || !strings.Contains(err.Error(), `"q2"`) {
		t.Errorf("error = %v", err)
	}
}

func TestRead_Empty(t *testing.T) {
	recs, err := Read(strings.NewReader(""))
	if err != nil || len(recs) != 0 {
		t.Errorf("got %v, %v", recs, err)
	}
}

func TestReadFile_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reads.fa.gz")
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(fh)
	if _, err := gw.Write([]byte(">r1\nacgt\n")); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := fh.Close(); err != nil {
		t.Fatal(err)
	}

	recs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || string(recs[0].Seq) != "ACGT" {
		t.Errorf("records = %+v", recs)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.fa")); err == nil {
		t.Error("expected error for missing file")
	}
}
