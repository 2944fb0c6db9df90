package blast

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
)

// OutFormat is the tabular layout requested from the search tools.
const OutFormat = "6 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore stitle"

const (
	colSubject  = 1
	colIdentity = 2
	colEValue   = 10
	colBitScore = 11
	colTitle    = 12
	minColumns  = 12
	numColumns  = 13
)

// ParseTabular converts tabular search output into hits tagged with database.
// Blank lines and '#' comments are skipped. Rows keep the tool's order.
func ParseTabular(r io.Reader, database string) ([]hit.Hit, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var hits []hit.Hit
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		h, err := parseRow(text, database)
		if err != nil {
			return nil, fmt.Errorf("%s output line %d: %w: %w", database, line, err, domain.ErrSearchFailed)
		}
		hits = append(hits, h)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s output: %w: %w", database, err, domain.ErrSearchFailed)
	}
	return hits, nil
}

func parseRow(text, database string) (hit.Hit, error) {
	cols := strings.SplitN(text, "\t", numColumns)
	if len(cols) < minColumns {
		return hit.Hit{}, fmt.Errorf("expected %d columns, got %d", minColumns, len(cols))
	}

	subject := strings.TrimSpace(cols[colSubject])
	bitScore, err := parseFloat(cols[colBitScore], "bitscore")
	if err != nil {
		return hit.Hit{}, err
	}
	h := hit.New(database, subject, bitScore)

	if s := strings.TrimSpace(cols[colEValue]); s != "" && s != "N/A" {
		v, err := parseFloat(s, "evalue")
		if err != nil {
			return hit.Hit{}, err
		}
		h = h.WithEValue(v)
	}
	if s := strings.TrimSpace(cols[colIdentity]); s != "" && s != "N/A" {
		v, err := parseFloat(s, "pident")
		if err != nil {
			return hit.Hit{}, err
		}
		h = h.WithIdentity(v)
	}
	if len(cols) > colTitle {
		if label := TitleLabel(subject, cols[colTitle]); label != "" {
			h = h.WithLabel(label)
		}
	}
	return h, nil
}

func parseFloat(s, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return v, nil
}

// TitleLabel derives a taxonomic label from a subject title. A leading copy of
// the subject id (or one of its '|' separated parts) is dropped. "N/A" and
// blank titles yield "".
func TitleLabel(subject, title string) string {
	title = strings.TrimSpace(title)
	if title == "" || title == "N/A" {
		return ""
	}
	first, rest, _ := strings.Cut(title, " ")
	if matchesSubject(subject, first) {
		return strings.TrimSpace(rest)
	}
	return title
}

func matchesSubject(subject, token string) bool {
	if token == "" {
		return false
	}
	if token == subject {
		return true
	}
	for _, part := range strings.Split(subject, "|") {
		if part != "" && part == token {
			return true
		}
	}
	for _, part := range strings.Split(token, "|") {
		if part != "" && part == subject {
			return true
		}
	}
	return false
}
