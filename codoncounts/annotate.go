package codoncounts

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/dms/dna"
)

// NtChanges names the 12 single-nucleotide substitutions, "AtoC" through
// "TtoG", in the column order of annotated tables.
var NtChanges [12]string

// ntChangeIndex[from][to] is the position of the substitution in NtChanges.
var ntChangeIndex [4][4]int

func init() {
	k := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				ntChangeIndex[i][j] = -1
				continue
			}
			NtChanges[k] = fmt.Sprintf("%cto%c", dna.Nucleotides[i], dna.Nucleotides[j])
			ntChangeIndex[i][j] = k
			k++
		}
	}
}

// SiteAnnotation summarizes the mutations observed at one site.
type SiteAnnotation struct {
	// NCounts is the total number of counts at the site.
	NCounts int
	// MutFreq is the fraction of non-wildtype counts, or 0 if NCounts is 0.
	MutFreq float64
	// NStop, NSyn and NNonsyn split the mutant counts into stop,
	// synonymous and nonsynonymous codons.
	NStop, NSyn, NNonsyn int
	// NNt[k] counts mutant codons with k+1 nucleotide changes.
	NNt [3]int
	// NtChange counts single-nucleotide mutant codons by substitution,
	// indexed like NtChanges.
	NtChange [12]int
	// MutFreqNt[k] is NNt[k] / NCounts, or 0 if NCounts is 0.
	MutFreqNt [3]float64
}

// AnnotateRow summarizes the counts of one site with wildtype codon wt.
func AnnotateRow(wt string, counts *Row) SiteAnnotation {
	a := SiteAnnotation{NCounts: counts.Total()}
	wtAA := dna.Translate(wt)
	for c, n := range counts {
		codon := dna.Codons[c]
		if codon == wt || n == 0 {
			continue
		}
		switch aa := dna.Translate(codon); {
		case aa == dna.Stop:
			a.NStop += n
		case aa == wtAA:
			a.NSyn += n
		default:
			a.NNonsyn += n
		}
		d, err := matchr.Hamming(wt, codon)
		if err != nil {
			panic(err)
		}
		a.NNt[d-1] += n
		if d != 1 {
			continue
		}
		for i := 0; i < 3; i++ {
			if wt[i] != codon[i] {
				a.NtChange[ntChangeIndex[strings.IndexByte(dna.Nucleotides, wt[i])][strings.IndexByte(dna.Nucleotides, codon[i])]] += n
			}
		}
	}
	if a.NCounts > 0 {
		total := float64(a.NCounts)
		a.MutFreq = float64(a.NCounts-counts[dna.CodonIndex(wt)]) / total
		for k := range a.NNt {
			a.MutFreqNt[k] = float64(a.NNt[k]) / total
		}
	}
	return a
}

// Annotate summarizes every site of t.
func Annotate(t *Table) []SiteAnnotation {
	out := make([]SiteAnnotation, t.Len())
	for i := range t.Sites {
		out[i] = AnnotateRow(t.Wildtype[i], &t.Counts[i])
	}
	return out
}

// WriteAnnotated writes t followed by the annotation columns ncounts,
// mutfreq, nstop, nsyn, nnonsyn, n1nt, n2nt, n3nt, the 12 NtChanges, and
// mutfreq1nt, mutfreq2nt, mutfreq3nt.
func WriteAnnotated(w io.Writer, t *Table) error {
	tw := tsv.NewWriter(w)
	tw.WriteString(siteColumn)
	tw.WriteString(wildtypeColumn)
	for _, c := range dna.Codons {
		tw.WriteString(c)
	}
	for _, col := range []string{"ncounts", "mutfreq", "nstop", "nsyn", "nnonsyn", "n1nt", "n2nt", "n3nt"} {
		tw.WriteString(col)
	}
	for _, col := range NtChanges {
		tw.WriteString(col)
	}
	for k := 1; k <= 3; k++ {
		tw.WriteString(fmt.Sprintf("mutfreq%dnt", k))
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, a := range Annotate(t) {
		tw.WriteString(t.Sites[i])
		tw.WriteString(t.Wildtype[i])
		for _, n := range t.Counts[i] {
			tw.WriteInt64(int64(n))
		}
		tw.WriteInt64(int64(a.NCounts))
		tw.WriteFloat64(a.MutFreq, 'g', -1)
		tw.WriteInt64(int64(a.NStop))
		tw.WriteInt64(int64(a.NSyn))
		tw.WriteInt64(int64(a.NNonsyn))
		for _, n := range a.NNt {
			tw.WriteInt64(int64(n))
		}
		for _, n := range a.NtChange {
			tw.WriteInt64(int64(n))
		}
		for _, f := range a.MutFreqNt {
			tw.WriteFloat64(f, 'g', -1)
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteAnnotatedFile writes the annotated form of t to path.
func WriteAnnotatedFile(ctx context.Context, path string, t *Table) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = WriteAnnotated(out.Writer(ctx), t); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}
