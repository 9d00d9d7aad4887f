package codoncounts

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/dms/dna"
)

// NumAminoAcids is the number of amino acid columns, including stop.
const NumAminoAcids = len(dna.AminoAcids)

// AARow is the amino acid count vector of one site, indexed like
// dna.AminoAcids.
type AARow [NumAminoAcids]int

// AATable holds per-site amino acid counts.
type AATable struct {
	Sites    []string
	Wildtype []byte
	Counts   []AARow
}

// ToAACounts sums the codon counts of t by the amino acid they encode.
func ToAACounts(t *Table) *AATable {
	aa := &AATable{
		Sites:    append([]string(nil), t.Sites...),
		Wildtype: make([]byte, t.Len()),
		Counts:   make([]AARow, t.Len()),
	}
	for i := range t.Sites {
		aa.Wildtype[i] = dna.Translate(t.Wildtype[i])
		for c, n := range t.Counts[i] {
			aa.Counts[i][dna.AminoAcidIndex(dna.Translate(dna.Codons[c]))] += n
		}
	}
	return aa
}

// Write writes t as a TSV table with columns site, wildtype, and one column
// per amino acid.
func (t *AATable) Write(w io.Writer) error {
	tw := tsv.NewWriter(w)
	tw.WriteString(siteColumn)
	tw.WriteString(wildtypeColumn)
	for i := 0; i < NumAminoAcids; i++ {
		tw.WriteByte(dna.AminoAcids[i])
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, site := range t.Sites {
		tw.WriteString(site)
		tw.WriteByte(t.Wildtype[i])
		for _, n := range t.Counts[i] {
			tw.WriteInt64(int64(n))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteFile writes t to path.
func (t *AATable) WriteFile(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = t.Write(out.Writer(ctx)); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}
