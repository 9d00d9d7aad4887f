package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/dms/bcsubamp"
	"v.io/x/lib/cmdline"
)

type bcsubampFlags struct {
	r1, r2, alignspecs string
	batch              string
	parallelism        int
}

func newCmdBCSubamp() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "bcsubamp",
		Short: "Count codons in barcoded-subamplicon sequencing reads",
		Long: `
Reads are grouped by the barcode formed from the first -bclen bases of R1 and
R2. Each group with at least -minreads read pairs is collapsed into a
consensus, which is aligned to the reference under the first of the
-alignspecs that accepts it. Every aligned barcode adds one count per fully
covered codon.

Outputs go to <outdir>/<name>_codoncounts.tsv, _readstats.tsv, _bcstats.tsv,
_readsperbc.tsv and, with -bcinfo, _bcinfo.txt.gz. The log is copied to
<outdir>/<name>.log. If a run fails, its outputs other than the log are
removed.

With -batch, samples are read from a TSV file with the columns name and R1,
and optionally R2; multiple files in one cell are separated by ';'. All other
flags apply to every sample.`,
	}
	opts := bcsubamp.DefaultOpts
	var flags bcsubampFlags
	cmd.Flags.StringVar(&opts.Name, "name", "", "Sample name, used as the output file prefix")
	cmd.Flags.StringVar(&opts.OutDir, "outdir", "", "Output directory (default: current directory)")
	cmd.Flags.StringVar(&opts.RefSeq, "refseq", "", "FASTA file with the reference coding sequence")
	cmd.Flags.StringVar(&flags.alignspecs, "alignspecs", "",
		`Space-separated list of REFSEQSTART,REFSEQEND,R1START,R2START tuples. All positions are 1-based;
R1START and R2START count from the first base after the barcode.`)
	cmd.Flags.StringVar(&flags.r1, "R1", "", "Comma-separated R1 FASTQ files or glob patterns; .gz files are decompressed")
	cmd.Flags.StringVar(&flags.r2, "R2", "", "Comma-separated R2 FASTQ files, matching -R1. By default each R1 name with _R1 replaced by _R2")
	cmd.Flags.StringVar(&opts.FastqDir, "fastqdir", "", "Directory prepended to relative -R1 and -R2 paths")
	cmd.Flags.IntVar(&opts.BCLen, "bclen", opts.BCLen, "Barcode length on each read")
	cmd.Flags.IntVar(&opts.MinQ, "minq", opts.MinQ, "Bases with Phred quality below this are treated as N")
	cmd.Flags.IntVar(&opts.MinReads, "minreads", opts.MinReads, "Minimum read pairs per barcode; also the minimum coverage to call a consensus base")
	cmd.Flags.Float64Var(&opts.MinConcur, "minconcur", opts.MinConcur, "Minimum fraction of reads agreeing on a consensus base")
	cmd.Flags.Float64Var(&opts.MinFracCall, "minfraccall", opts.MinFracCall, "Minimum fraction of called (non-N) bases in an aligned subamplicon")
	cmd.Flags.IntVar(&opts.MaxMuts, "maxmuts", opts.MaxMuts, "Maximum mutated codons in an aligned subamplicon")
	cmd.Flags.IntVar(&opts.R1Trim, "R1trim", opts.R1Trim, "Truncate R1 to this length, including the barcode; 0 disables")
	cmd.Flags.IntVar(&opts.R2Trim, "R2trim", opts.R2Trim, "Truncate R2 to this length, including the barcode; 0 disables")
	cmd.Flags.Float64Var(&opts.PurgeRead, "purgeread", 0, "Randomly drop this fraction of read pairs")
	cmd.Flags.Float64Var(&opts.PurgeBC, "purgebc", 0, "Randomly drop this fraction of barcodes")
	cmd.Flags.Int64Var(&opts.Seed, "seed", opts.Seed, "Random seed for -purgeread and -purgebc")
	cmd.Flags.BoolVar(&opts.BCInfo, "bcinfo", false, "Write the reads and disposition of every barcode to <name>_bcinfo.txt.gz")
	cmd.Flags.StringVar(&opts.SiteMask, "sitemask", "", "TSV file with a site column; only those sites are kept in the counts")
	cmd.Flags.StringVar(&flags.batch, "batch", "", "TSV file of samples to process; -name, -R1 and -R2 must not be set")
	cmd.Flags.IntVar(&flags.parallelism, "parallelism", 0, "Maximum number of samples processed at once in -batch mode; 0 = runtime.NumCPU()")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("bcsubamp takes no arguments, but got %v", argv)
		}
		opts.AlignSpecs = strings.Fields(flags.alignspecs)
		opts.R1 = splitList(flags.r1, ",")
		opts.R2 = splitList(flags.r2, ",")
		ctx := vcontext.Background()
		if flags.batch != "" {
			if opts.Name != "" || len(opts.R1) > 0 || len(opts.R2) > 0 {
				return fmt.Errorf("-batch cannot be combined with -name, -R1 or -R2")
			}
			return runBatch(ctx, opts, flags.batch, flags.parallelism)
		}
		return runSample(ctx, opts)
	})
	return cmd
}

// splitList splits s on sep, dropping empty elements.
func splitList(s, sep string) []string {
	var list []string
	for _, e := range strings.Split(s, sep) {
		if e = strings.TrimSpace(e); e != "" {
			list = append(list, e)
		}
	}
	return list
}

func logOpts(opts *bcsubamp.Opts) {
	log.Printf("%s: reference %s, alignspecs %s", opts.Name, opts.RefSeq, strings.Join(opts.AlignSpecs, " "))
	log.Printf("%s: R1 %s, R2 %s", opts.Name, strings.Join(opts.R1, ","), strings.Join(opts.R2, ","))
	log.Printf("%s: bclen %d, minq %d, minreads %d, minconcur %g, minfraccall %g, maxmuts %d, R1trim %d, R2trim %d",
		opts.Name, opts.BCLen, opts.MinQ, opts.MinReads, opts.MinConcur, opts.MinFracCall, opts.MaxMuts, opts.R1Trim, opts.R2Trim)
	if opts.PurgeRead > 0 || opts.PurgeBC > 0 {
		log.Printf("%s: purgeread %g, purgebc %g, seed %d", opts.Name, opts.PurgeRead, opts.PurgeBC, opts.Seed)
	}
}

// runSample processes one sample with its log copied next to its outputs.
func runSample(ctx context.Context, opts bcsubamp.Opts) (err error) {
	if err = opts.Validate(); err != nil {
		return err
	}
	closeLog, err := teeLog(opts.OutDir, opts.Name)
	if err != nil {
		return err
	}
	defer closeLog(&err)
	logOpts(&opts)
	res := bcsubamp.Run(ctx, opts)
	if res.Err != nil {
		return res.Err
	}
	log.Printf("%s: wrote %s", opts.Name, strings.Join(res.Outputs, " "))
	return nil
}
