package bcsubamp

import (
	"testing"

	"github.com/grailbio/dms/codoncounts"
	"github.com/grailbio/dms/dna"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestAlignSubamplicon(t *testing.T) {
	const refseq = "ATGGGGAAA"
	tests := []struct {
		r1, r2           string
		refStart, refEnd int
		maxMuts, maxN    int
		want             string
		wantOK           bool
	}{
		{"GGGGAA", "TTTCCC", 3, 9, 1, 1, "GGGGAAA", true},
		{"GGGGAA", "TTTCCC", 1, 9, 1, 1, "", false},
		{"GGGGAT", "TTTCCC", 3, 9, 1, 0, "", false},
		{"GGGGAT", "TTTCCC", 3, 9, 1, 1, "GGGGANA", true},
		{"GGGGAT", "TATCCC", 3, 9, 1, 0, "GGGGATA", true},
		{"GGGGAT", "TATCCC", 3, 9, 0, 0, "", false},
		{"GGGNAA", "TTTCCC", 3, 9, 0, 0, "GGGGAAA", true},
		{"GGGNAA", "TTNCCC", 3, 9, 0, 0, "GGGGAAA", true},
		{"GTTTAA", "TTTAAA", 3, 9, 1, 0, "GTTTAAA", true},
		{"GGGGTA", "TTACCC", 3, 9, 1, 0, "GGGGTAA", true},
		{"GGGCTA", "TTAGCC", 3, 9, 1, 0, "", false},
		// Gap between the reads is N.
		{"ATG", "TTT", 1, 9, 0, 3, "ATGNNNAAA", true},
		{"ATG", "TTT", 1, 9, 0, 2, "", false},
		// Partial codons at the window edges are not checked.
		{"GCGGGAAA", "TTTCCCGC", 2, 9, 0, 0, "GCGGGAAA", true},
		{"TGGGGAAA", "TTTCCCCA", 2, 9, 0, 0, "TGGGGAAA", true},
	}
	for _, test := range tests {
		got, ok := AlignSubamplicon(refseq, test.r1, test.r2, test.refStart, test.refEnd, test.maxMuts, test.maxN)
		expect.EQ(t, ok, test.wantOK, "%+v", test)
		if test.wantOK {
			expect.EQ(t, got, test.want, "%+v", test)
		}
	}
}

func TestAlignSubampliconConflictingOverlap(t *testing.T) {
	const refseq = "ATGAAACCC"
	r1 := refseq
	// Every overlap position disagrees with r1.
	r2 := dna.ReverseComp("TACTTTGGG")
	for maxN := 0; maxN < len(refseq); maxN++ {
		_, ok := AlignSubamplicon(refseq, r1, r2, 1, 9, 3, maxN)
		expect.False(t, ok, "maxN %d", maxN)
	}
	// With a budget covering every position the merge is all N, which has
	// no mutated codons.
	sub, ok := AlignSubamplicon(refseq, r1, r2, 1, 9, 0, 9)
	expect.True(t, ok)
	expect.EQ(t, sub, "NNNNNNNNN")
}

func TestAlignerFirstSuccess(t *testing.T) {
	const refseq = "ATGAAACCCGGG"
	specs, err := ParseAlignSpecs([]string{"1,9,1,4 4,12,4,1"}, len(refseq), 1)
	assert.NoError(t, err)

	// Reads matching both windows: the first spec wins.
	r1 := "ATGAAACCCGGG"
	r2 := dna.ReverseComp(r1)
	a := &Aligner{RefSeq: refseq, Specs: specs, MaxMuts: 0}
	aln := a.Align(r1, r2)
	assert.True(t, aln.OK)
	expect.EQ(t, aln.Spec, specs[0])
	expect.EQ(t, aln.Subamplicon, "ATGAAACCC")

	// The first codon is mutated, so only the second window fits.
	aln = a.Align("TTTAAACCCGGG", dna.ReverseComp("TTTAAACCCGGG"))
	assert.True(t, aln.OK)
	expect.EQ(t, aln.Spec, specs[1])
	expect.EQ(t, aln.Subamplicon, "AAACCCGGG")

	table, err := codoncounts.New(refseq)
	assert.NoError(t, err)
	aln = a.Align(r1, r2)
	Accumulate(table, aln.Spec.RefStart, aln.Subamplicon)
	expect.EQ(t, table.Count("1", "ATG"), 1)
	expect.EQ(t, table.Counts[3].Total(), 0)

	// Nothing fits.
	aln = a.Align("TTTTTTTTT", "TTTTTTTTT")
	expect.EQ(t, aln, Alignment{})
}

func TestAlignerOffsets(t *testing.T) {
	const refseq = "ATGAAACCC"
	specs, err := ParseAlignSpecs([]string{"1,9,3,2"}, len(refseq), 1)
	assert.NoError(t, err)
	a := &Aligner{RefSeq: refseq, Specs: specs}
	// Two extra bases before R1START and one before R2START, and trailing
	// bases past the window on both reads.
	aln := a.Align("CC"+refseq+"TTTT", "G"+dna.ReverseComp(refseq)+"AA")
	assert.True(t, aln.OK)
	expect.EQ(t, aln.Subamplicon, refseq)
	// Reads shorter than their offset cover nothing.
	aln = a.Align("CC", "G")
	expect.False(t, aln.OK)
}

func TestAccumulate(t *testing.T) {
	refseq := "ATGGACTTTCCCGGGAAATTTCCCGGGAAA"
	table, err := codoncounts.New(refseq)
	assert.NoError(t, err)
	Accumulate(table, 1, "ATGGACTTTC")
	Accumulate(table, 3, "GGTCTTTCCCGGN")
	expect.EQ(t, table.Counts[0][dna.CodonIndex("ATG")], 1)
	expect.EQ(t, table.Counts[1][dna.CodonIndex("GAC")], 1)
	expect.EQ(t, table.Counts[1][dna.CodonIndex("GTC")], 1)
	expect.EQ(t, table.Counts[2][dna.CodonIndex("TTT")], 2)
	expect.EQ(t, table.Counts[3][dna.CodonIndex("CCC")], 1)
	total := 0
	for i := range table.Counts {
		total += table.Counts[i].Total()
	}
	expect.EQ(t, total, 6)

	// A start at the second base of a codon skips to the next codon.
	Accumulate(table, 2, "TGGAC")
	expect.EQ(t, table.Counts[1][dna.CodonIndex("GAC")], 2)
	Accumulate(table, 2, "TGGACT")
	expect.EQ(t, table.Counts[1][dna.CodonIndex("GAC")], 3)
	expect.EQ(t, table.Counts[0].Total(), 1)
}
