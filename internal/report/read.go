package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kailas-cloud/seqclass/internal/domain"
)

// ReadLabelsTSV reads "query_id<TAB>label" rows. Lines starting with '#' are
// comments and a first row whose id column is "query_id" is treated as a header.
// Duplicate ids are an error.
func ReadLabelsTSV(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	out := make(map[string]string)
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read labels: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "query_id") {
				continue
			}
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected query_id and label: %w", line, domain.ErrInvalidInput)
		}
		id := strings.TrimSpace(rec[0])
		if id == "" {
			return nil, fmt.Errorf("line %d: empty query_id: %w", line, domain.ErrInvalidInput)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("line %d: duplicate query_id %q: %w", line, id, domain.ErrInvalidInput)
		}
		out[id] = strings.TrimSpace(rec[1])
	}
	return out, nil
}

// ReadTruthTSV reads a ground truth file.
func ReadTruthTSV(path string) (map[string]string, error) {
	return readLabelsFile(path)
}

// ReadPredictionsTSV reads a predictions file as written by WritePredictionsTSV.
func ReadPredictionsTSV(path string) (map[string]string, error) {
	return readLabelsFile(path)
}

func readLabelsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	labels, err := ReadLabelsTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return labels, nil
}
