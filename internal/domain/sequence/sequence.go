package sequence

import "strings"

// fastaLineWidth is the residue count per line when rendering FASTA.
const fastaLineWidth = 60

// Record is one query or reference sequence.
type Record struct {
	ID          string
	Description string
	Seq         []byte
}

// Len returns the sequence length in residues.
func (r Record) Len() int { return len(r.Seq) }

// FASTA renders the record as FASTA text with 60-residue lines.
func (r Record) FASTA() string {
	var b strings.Builder
	b.WriteByte('>')
	b.WriteString(r.ID)
	if r.Description != "" {
		b.WriteByte(' ')
		b.WriteString(r.Description)
	}
	b.WriteByte('\n')
	for i := 0; i < len(r.Seq); i += fastaLineWidth {
		end := min(i+fastaLineWidth, len(r.Seq))
		b.Write(r.Seq[i:end])
		b.WriteByte('\n')
	}
	return b.String()
}
