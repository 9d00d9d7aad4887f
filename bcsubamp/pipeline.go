// Package bcsubamp counts codon identities in barcoded-subamplicon deep
// mutational scanning data.
//
// Each read pair starts with a random barcode on both reads. Read pairs are
// grouped by barcode, each group is collapsed into one consensus per read
// direction, and the consensus pair is aligned to the reference under the
// first of several candidate windows that accepts it. Every aligned barcode
// adds one count per fully covered codon.
package bcsubamp

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/dms/codoncounts"
	"github.com/grailbio/dms/encoding/fasta"
	"github.com/grailbio/dms/encoding/fastq"
)

// logInterval is the number of read pairs between progress messages.
const logInterval = 1000000

// Result describes a finished run. If Err is non-nil, the run failed and
// none of its output files exist.
type Result struct {
	Name         string
	Outputs      []string
	ReadStats    ReadStats
	BarcodeStats BarcodeStats
	Err          error
}

// input holds everything a run needs before it touches any reads.
type input struct {
	refseq  string
	specs   []AlignSpec
	files   []fastq.FilePair
	mask    codoncounts.SiteMask
	hasMask bool
}

// Run counts codons for one sample. Configuration and input errors are
// reported before any output is created. If the run fails after that, all
// outputs it created are removed. Errors are logged.
func Run(ctx context.Context, opts Opts) (res Result) {
	res.Name = opts.Name
	defer func() {
		if res.Err != nil {
			log.Error.Printf("%s: %v", opts.Name, res.Err)
		}
	}()
	if err := opts.Validate(); err != nil {
		res.Err = errors.E(errors.Invalid, err)
		return res
	}
	in, err := prepare(ctx, &opts)
	if err != nil {
		res.Err = err
		return res
	}
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0777); err != nil {
			res.Err = errors.E(err, "create output directory", opts.OutDir)
			return res
		}
	}
	out := &outputSet{ctx: ctx}
	res.Err = run(ctx, &opts, in, out, &res)
	if res.Err != nil {
		out.removeAll()
		return res
	}
	res.Outputs = out.paths
	return res
}

// prepare reads the reference, the site mask and the alignspecs, and
// resolves the FASTQ files.
func prepare(ctx context.Context, opts *Opts) (*input, error) {
	in := &input{}
	var err error
	if in.refseq, err = fasta.ReadCodingSequence(ctx, opts.RefSeq); err != nil {
		return nil, errors.E(errors.Invalid, err)
	}
	log.Printf("%s: read %d-nucleotide reference from %s", opts.Name, len(in.refseq), opts.RefSeq)
	if in.specs, err = ParseAlignSpecs(opts.AlignSpecs, len(in.refseq), opts.MinFracCall); err != nil {
		return nil, err
	}
	if in.files, err = resolveFASTQ(ctx, opts); err != nil {
		return nil, err
	}
	if opts.SiteMask != "" {
		if in.mask, err = codoncounts.ReadSiteMask(ctx, opts.SiteMask); err != nil {
			return nil, err
		}
		in.hasMask = true
	}
	return in, nil
}

// expand resolves one R1 or R2 entry into file names.
func expand(dir, pattern string) ([]string, error) {
	if dir != "" && !filepath.IsAbs(pattern) {
		pattern = filepath.Join(dir, pattern)
	}
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "bad pattern", pattern)
	}
	if len(paths) == 0 {
		return nil, errors.E(errors.NotExist, "no files match", pattern)
	}
	return paths, nil
}

// resolveFASTQ expands the R1 and R2 entries of opts into file pairs and
// checks that every file exists.
func resolveFASTQ(ctx context.Context, opts *Opts) ([]fastq.FilePair, error) {
	var r1, r2 []string
	for i, entry := range opts.R1 {
		paths, err := expand(opts.FastqDir, entry)
		if err != nil {
			return nil, err
		}
		r1 = append(r1, paths...)
		if len(opts.R2) == 0 {
			continue
		}
		mates, err := expand(opts.FastqDir, opts.R2[i])
		if err != nil {
			return nil, err
		}
		if len(mates) != len(paths) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("%s matches %d files but %s matches %d",
				entry, len(paths), opts.R2[i], len(mates)))
		}
		r2 = append(r2, mates...)
	}
	if len(opts.R2) == 0 {
		for _, path := range r1 {
			mate, err := fastq.MateR2Path(path)
			if err != nil {
				return nil, errors.E(errors.Invalid, err)
			}
			r2 = append(r2, mate)
		}
	}
	seen := map[string]bool{}
	pairs := make([]fastq.FilePair, len(r1))
	for i := range r1 {
		if seen[r1[i]] {
			return nil, errors.E(errors.Invalid, "duplicate R1 file", r1[i])
		}
		seen[r1[i]] = true
		for _, path := range []string{r1[i], r2[i]} {
			if _, err := file.Stat(ctx, path); err != nil {
				return nil, errors.E(err, "FASTQ file", path)
			}
		}
		pairs[i] = fastq.FilePair{R1: r1[i], R2: r2[i]}
	}
	return pairs, nil
}

func run(ctx context.Context, opts *Opts, in *input, out *outputSet, res *Result) (err error) {
	table, err := codoncounts.New(in.refseq)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	grouper := NewGrouper(opts, rng)

	reader := fastq.NewPairReader(ctx, in.files, fastq.PairReaderOpts{R1Trim: opts.R1Trim, R2Trim: opts.R2Trim})
	var rp fastq.ReadPair
	for reader.Scan(&rp) {
		grouper.Add(&rp)
		if n := grouper.ReadStats().Total; n%logInterval == 0 {
			log.Printf("%s: read %d pairs", opts.Name, n)
		}
	}
	if err = reader.Err(); err != nil {
		_ = reader.Close()
		return err
	}
	if err = reader.Close(); err != nil {
		return err
	}
	res.ReadStats = grouper.ReadStats()
	log.Printf("%s: read %d pairs, %d failed the filter, %d had a low quality barcode; %d barcodes",
		opts.Name, res.ReadStats.Total, res.ReadStats.FailFilter, res.ReadStats.LowQBarcode, grouper.Len())

	var bcInfo *bcInfoWriter
	if opts.BCInfo {
		var f file.File
		if f, err = out.create(opts.OutputPath(BCInfoSuffix)); err != nil {
			return err
		}
		defer file.CloseAndReport(ctx, f, &err)
		bcInfo = newBCInfoWriter(f.Writer(ctx))
	}

	aligner := &Aligner{RefSeq: in.refseq, Specs: in.specs, MaxMuts: opts.MaxMuts}
	for _, bc := range grouper.Barcodes() {
		grp := grouper.Group(bc)
		outcome, aln := classify(opts, rng, aligner, grp)
		res.BarcodeStats.Add(outcome)
		if outcome == Aligned {
			Accumulate(table, aln.Spec.RefStart, aln.Subamplicon)
		}
		if bcInfo == nil {
			continue
		}
		desc := outcome.String()
		if outcome == Aligned {
			desc = "aligned with alignspec " + aln.Spec.String()
		}
		if err = bcInfo.write(bc, outcome == Aligned, desc, aln.Subamplicon, grp); err != nil {
			return errors.E(err, "write", opts.OutputPath(BCInfoSuffix))
		}
	}
	if bcInfo != nil {
		if err = bcInfo.close(); err != nil {
			return errors.E(err, "write", opts.OutputPath(BCInfoSuffix))
		}
	}
	s := res.BarcodeStats
	log.Printf("%s: %d barcodes: %d too few reads, %d not alignable, %d aligned, %d subsampled",
		opts.Name, s.Total, s.TooFewReads, s.NotAlignable, s.Aligned, s.Subsampled)

	if in.hasMask {
		table = table.Mask(in.mask)
	}
	if err = out.writeFile(opts.OutputPath(CodonCountsSuffix), table.Write); err != nil {
		return err
	}
	if err = out.writeFile(opts.OutputPath(ReadStatsSuffix), func(w io.Writer) error {
		return WriteReadStats(w, res.ReadStats, opts.PurgeRead > 0)
	}); err != nil {
		return err
	}
	if err = out.writeFile(opts.OutputPath(BarcodeStatsSuffix), func(w io.Writer) error {
		return WriteBarcodeStats(w, res.BarcodeStats, opts.PurgeBC > 0)
	}); err != nil {
		return err
	}
	return out.writeFile(opts.OutputPath(ReadsPerBCSuffix), func(w io.Writer) error {
		return WriteReadsPerBarcode(w, grouper.ReadsPerBarcode())
	})
}

// classify decides the outcome of one barcode. The returned alignment is
// set only for Aligned.
func classify(opts *Opts, rng *rand.Rand, aligner *Aligner, grp *ReadGroup) (Outcome, Alignment) {
	if opts.PurgeBC > 0 && rng.Float64() < opts.PurgeBC {
		return Subsampled, Alignment{}
	}
	if grp.Len() < opts.MinReads {
		return TooFewReads, Alignment{}
	}
	r1 := BuildConsensus(grp.R1, opts.MinReads, opts.MinConcur)
	r2 := BuildConsensus(grp.R2, opts.MinReads, opts.MinConcur)
	aln := aligner.Align(r1, r2)
	if !aln.OK {
		return NotAlignable, aln
	}
	return Aligned, aln
}
