// Package fasta reads query and reference sequences from FASTA files.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
)

// ErrDuplicateID is returned when two records share an identifier.
var ErrDuplicateID = errors.New("duplicate sequence id")

// maxLine bounds a single FASTA line; genomic references can be long.
const maxLine = 64 << 20

// ReadFile reads every record from path. "-" reads stdin and a ".gz"
// suffix is decompressed on the fly.
func ReadFile(path string) ([]sequence.Record, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	recs, err := Read(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return recs, nil
}

// Read parses FASTA text. Residues are upper-cased and whitespace inside
// sequence lines is dropped. Text before the first header and a header
// without sequence lines are errors.
func Read(r io.Reader) ([]sequence.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var (
		recs       []sequence.Record
		cur        *sequence.Record
		seen       = make(map[string]struct{})
		line       int
		headerLine int
	)

	for sc.Scan() {
		line++
		text := bytes.TrimRight(sc.Bytes(), "\r")
		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}
		if text[0] == '>' {
			if err := checkSequence(cur, headerLine); err != nil {
				return nil, err
			}
			rec, err := parseHeader(string(text[1:]), line)
			if err != nil {
				return nil, err
			}
			headerLine = line
			if _, dup := seen[rec.ID]; dup {
				return nil, fmt.Errorf("line %d: %w: %q", line, ErrDuplicateID, rec.ID)
			}
			seen[rec.ID] = struct{}{}
			recs = append(recs, rec)
			cur = &recs[len(recs)-1]
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("line %d: sequence data before first header: %w", line, domain.ErrInvalidInput)
		}
		for _, f := range bytes.Fields(text) {
			cur.Seq = append(cur.Seq, bytes.ToUpper(f)...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan fasta: %w", err)
	}
	if err := checkSequence(cur, headerLine); err != nil {
		return nil, err
	}
	return recs, nil
}

func checkSequence(rec *sequence.Record, line int) error {
	if rec != nil && rec.Len() == 0 {
		return fmt.Errorf("line %d: record %q has no sequence: %w", line, rec.ID, domain.ErrInvalidInput)
	}
	return nil
}

func parseHeader(h string, line int) (sequence.Record, error) {
	fields := strings.Fields(h)
	if len(fields) == 0 {
		return sequence.Record{}, fmt.Errorf("line %d: empty header: %w", line, domain.ErrInvalidInput)
	}
	rec := sequence.Record{ID: fields[0]}
	if rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), fields[0])); rest != "" {
		rec.Description = rest
	}
	return rec, nil
}

// Open returns a reader for path, handling "-" and gzip.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	}
	return fh, nil
}
