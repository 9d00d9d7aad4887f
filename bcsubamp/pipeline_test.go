package bcsubamp

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/dms/codoncounts"
	"github.com/grailbio/dms/dna"
	"github.com/grailbio/dms/encoding/fastq"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

const testRef = "ATGAAACCC"

// writeFASTQ writes pairs to <dir>/<prefix>_R1.fastq and _R2.fastq and
// returns the R1 path.
func writeFASTQ(t *testing.T, dir, prefix string, pairs []fastq.ReadPair) string {
	var b1, b2 bytes.Buffer
	w := fastq.NewPairWriter(&b1, &b2)
	for i := range pairs {
		assert.NoError(t, w.Write(&pairs[i]))
	}
	r1 := filepath.Join(dir, prefix+"_R1.fastq")
	assert.NoError(t, ioutil.WriteFile(r1, b1.Bytes(), 0600))
	assert.NoError(t, ioutil.WriteFile(filepath.Join(dir, prefix+"_R2.fastq"), b2.Bytes(), 0600))
	return r1
}

// readsFor returns n read pairs with barcode halves bc1 and bc2 whose
// inserts are r1 and r2.
func readsFor(bc1, bc2, r1, r2 string, n int) []fastq.ReadPair {
	var pairs []fastq.ReadPair
	for i := 0; i < n; i++ {
		pairs = append(pairs, pair(fmt.Sprintf("%s%s:%d", bc1, bc2, i), bc1+r1, bc2+r2))
	}
	return pairs
}

func setup(t *testing.T, dir string, pairs []fastq.ReadPair) Opts {
	ref := filepath.Join(dir, "ref.fasta")
	assert.NoError(t, ioutil.WriteFile(ref, []byte(">wt\n"+testRef+"\n"), 0600))
	opts := DefaultOpts
	opts.Name = "sample"
	opts.OutDir = filepath.Join(dir, "out")
	opts.RefSeq = ref
	opts.R1 = []string{writeFASTQ(t, dir, "sample", pairs)}
	opts.AlignSpecs = []string{"1,9,1,1"}
	opts.BCLen = 4
	opts.MaxMuts = 0
	return opts
}

func readFile(t *testing.T, path string) string {
	data, err := ioutil.ReadFile(path)
	assert.NoError(t, err)
	return string(data)
}

func TestRun(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	wt1, wt2 := testRef, dna.ReverseComp(testRef)
	var pairs []fastq.ReadPair
	for _, bc := range []string{"AAAA", "CCCC", "GGGG"} {
		pairs = append(pairs, readsFor(bc, "TTTT", wt1, wt2, 3)...)
	}
	pairs = append(pairs, readsFor("ACGT", "ACGT", wt1, wt2, 1)...)
	// R2 disagrees with R1 at every position.
	pairs = append(pairs, readsFor("TGCA", "TGCA", wt1, dna.ReverseComp("TACTTTGGG"), 2)...)
	lowQ := pair("lowq", "AAAA"+wt1, "TTTT"+wt2)
	lowQ.Q1 = "II#I" + strings.Repeat("I", len(wt1))
	failed := pair("failed", "AAAA"+wt1, "TTTT"+wt2)
	failed.Filter = fastq.FilterFail
	pairs = append(pairs, lowQ, failed)

	opts := setup(t, dir, pairs)
	opts.BCInfo = true
	res := Run(context.Background(), opts)
	assert.NoError(t, res.Err)
	expect.EQ(t, res.ReadStats, ReadStats{Total: 14, FailFilter: 1, LowQBarcode: 1})
	expect.EQ(t, res.BarcodeStats, BarcodeStats{Total: 5, TooFewReads: 1, NotAlignable: 1, Aligned: 3})
	expect.EQ(t, len(res.Outputs), 5)

	table, err := codoncounts.ReadFile(context.Background(), opts.OutputPath(CodonCountsSuffix))
	assert.NoError(t, err)
	expect.EQ(t, table.Sites, []string{"1", "2", "3"})
	expect.EQ(t, table.Wildtype, []string{"ATG", "AAA", "CCC"})
	for i, wt := range table.Wildtype {
		expect.EQ(t, table.Count(table.Sites[i], wt), 3)
		expect.EQ(t, table.Counts[i].Total(), 3)
	}

	expect.EQ(t, readFile(t, opts.OutputPath(ReadStatsSuffix)),
		"category\tnumber_of_reads\ntotal\t14\nfail filter\t1\nlow Q barcode\t1\n")
	expect.EQ(t, readFile(t, opts.OutputPath(BarcodeStatsSuffix)),
		"category\tnumber_of_barcodes\ntotal\t5\ntoo few reads\t1\nnot alignable\t1\naligned\t3\n")
	expect.EQ(t, readFile(t, opts.OutputPath(ReadsPerBCSuffix)),
		"number_of_reads\tnumber_of_barcodes\n1\t1\n2\t1\n3\t3\n")

	f, err := os.Open(opts.OutputPath(BCInfoSuffix))
	assert.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	assert.NoError(t, err)
	data, err := ioutil.ReadAll(gz)
	assert.NoError(t, err)
	info := string(data)
	expect.EQ(t, strings.Count(info, "BARCODE "), 5)
	expect.HasSubstr(t, info, "BARCODE AAAATTTT\nRETAINED true\nDESCRIPTION aligned with alignspec 1,9,1,1\nSUBAMPLICON ATGAAACCC\nR1 READS:\n\tATGAAACCC\n")
	expect.HasSubstr(t, info, "BARCODE ACGTACGT\nRETAINED false\nDESCRIPTION too few reads\nSUBAMPLICON None\n")
	expect.HasSubstr(t, info, "DESCRIPTION not alignable\n")
}

func TestRunSingleBarcode(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := setup(t, dir, readsFor("AAAA", "TTTT", testRef, dna.ReverseComp(testRef), 3))
	res := Run(context.Background(), opts)
	assert.NoError(t, res.Err)
	expect.EQ(t, res.BarcodeStats, BarcodeStats{Total: 1, Aligned: 1})
	table, err := codoncounts.ReadFile(context.Background(), opts.OutputPath(CodonCountsSuffix))
	assert.NoError(t, err)
	for i, wt := range table.Wildtype {
		expect.EQ(t, table.Count(table.Sites[i], wt), 1)
	}
	_, err = os.Stat(opts.OutputPath(BCInfoSuffix))
	expect.True(t, os.IsNotExist(err))
}

func TestRunSiteMaskAndPurge(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	var pairs []fastq.ReadPair
	for i := 0; i < 64; i++ {
		bc := dna.Codons[i] + "A"
		pairs = append(pairs, readsFor(bc, "TTTT", testRef, dna.ReverseComp(testRef), 2)...)
	}
	opts := setup(t, dir, pairs)
	mask := filepath.Join(dir, "mask.tsv")
	assert.NoError(t, ioutil.WriteFile(mask, []byte("site\n1\n3\n"), 0600))
	opts.SiteMask = mask
	opts.PurgeBC = 0.5

	res := Run(context.Background(), opts)
	assert.NoError(t, res.Err)
	s := res.BarcodeStats
	expect.EQ(t, s.Total, 64)
	expect.True(t, s.Subsampled > 10 && s.Subsampled < 54, "subsampled %d", s.Subsampled)
	expect.EQ(t, s.Aligned, 64-s.Subsampled)

	table, err := codoncounts.ReadFile(context.Background(), opts.OutputPath(CodonCountsSuffix))
	assert.NoError(t, err)
	expect.EQ(t, table.Sites, []string{"1", "3"})
	expect.EQ(t, table.Count("1", "ATG"), s.Aligned)
	expect.EQ(t, table.Count("3", "CCC"), s.Aligned)
	expect.HasSubstr(t, readFile(t, opts.OutputPath(BarcodeStatsSuffix)), fmt.Sprintf("subsampled\t%d\n", s.Subsampled))
	expect.False(t, strings.Contains(readFile(t, opts.OutputPath(ReadStatsSuffix)), "subsampled"))

	// The same seed gives the same result.
	res2 := Run(context.Background(), opts)
	assert.NoError(t, res2.Err)
	expect.EQ(t, res2.BarcodeStats, res.BarcodeStats)
}

func TestRunInputErrors(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	good := setup(t, dir, readsFor("AAAA", "TTTT", testRef, dna.ReverseComp(testRef), 3))
	tests := []struct {
		name   string
		modify func(*Opts)
	}{
		{"invalid options", func(o *Opts) { o.MinConcur = 2 }},
		{"missing reference", func(o *Opts) { o.RefSeq = filepath.Join(dir, "missing.fasta") }},
		{"alignspec past reference", func(o *Opts) { o.AlignSpecs = []string{"1,12,1,1"} }},
		{"missing R1", func(o *Opts) { o.R1 = []string{filepath.Join(dir, "other_R1.fastq")} }},
		{"no glob match", func(o *Opts) { o.R1 = []string{filepath.Join(dir, "x*_R1.fastq")} }},
		{"missing R2", func(o *Opts) { o.R2 = []string{filepath.Join(dir, "other_R2.fastq")} }},
		{"missing site mask", func(o *Opts) { o.SiteMask = filepath.Join(dir, "missing.tsv") }},
	}
	for _, test := range tests {
		opts := good
		test.modify(&opts)
		res := Run(context.Background(), opts)
		expect.NotNil(t, res.Err, test.name)
		_, err := os.Stat(opts.OutDir)
		expect.True(t, os.IsNotExist(err), test.name)
	}
}

func TestRunGlobAndFastqDir(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := setup(t, dir, readsFor("AAAA", "TTTT", testRef, dna.ReverseComp(testRef), 3))
	writeFASTQ(t, dir, "sample2", readsFor("CCCC", "TTTT", testRef, dna.ReverseComp(testRef), 3))
	opts.FastqDir = dir
	opts.R1 = []string{"sample*_R1.fastq"}
	res := Run(context.Background(), opts)
	assert.NoError(t, res.Err)
	expect.EQ(t, res.ReadStats.Total, 6)
	expect.EQ(t, res.BarcodeStats.Aligned, 2)
}

func TestRunRemovesOutputsOnFailure(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := setup(t, dir, readsFor("AAAA", "TTTT", testRef, dna.ReverseComp(testRef), 3))
	// A directory in place of the barcode stats file makes the run fail
	// after the codon counts are written.
	assert.NoError(t, os.MkdirAll(filepath.Join(opts.OutputPath(BarcodeStatsSuffix), "x"), 0700))
	res := Run(context.Background(), opts)
	expect.NotNil(t, res.Err)
	expect.EQ(t, len(res.Outputs), 0)
	for _, suffix := range []string{CodonCountsSuffix, ReadStatsSuffix, ReadsPerBCSuffix} {
		_, err := os.Stat(opts.OutputPath(suffix))
		expect.True(t, os.IsNotExist(err), suffix)
	}
}

func TestRunDiscordantInput(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := setup(t, dir, readsFor("AAAA", "TTTT", testRef, dna.ReverseComp(testRef), 3))
	r2 := filepath.Join(dir, "sample_R2.fastq")
	data := readFile(t, r2)
	lines := strings.SplitAfter(data, "\n")
	assert.NoError(t, ioutil.WriteFile(r2, []byte(strings.Join(lines[:8], "")), 0600))
	opts.BCInfo = true
	res := Run(context.Background(), opts)
	expect.NotNil(t, res.Err)
	expect.HasSubstr(t, res.Err.Error(), fastq.ErrDiscordant.Error())
	for _, suffix := range []string{CodonCountsSuffix, BCInfoSuffix} {
		_, err := os.Stat(opts.OutputPath(suffix))
		expect.True(t, os.IsNotExist(err), suffix)
	}
}
