package bcsubamp

import (
	"fmt"
	"strings"
)

// Opts configures one barcoded-subamplicon counting run.
type Opts struct {
	// Name labels the sample. Output files are named <OutDir>/<Name>_*.
	Name string
	// OutDir is the output directory. Empty means the current directory.
	OutDir string
	// RefSeq is the path of a FASTA file with the single coding sequence
	// that the subamplicons tile.
	RefSeq string
	// R1 lists R1 FASTQ files, possibly gzipped. Entries may be glob
	// patterns. Relative entries are resolved against FastqDir, if set.
	R1 []string
	// R2 lists the mate files of R1, in the same order. If empty, each R2
	// file name is derived from its R1 file name by replacing "_R1" with
	// "_R2".
	R2       []string
	FastqDir string
	// AlignSpecs holds the candidate alignment windows, each of the form
	// REFSEQSTART,REFSEQEND,R1START,R2START. They are tried in order.
	AlignSpecs []string

	// BCLen is the number of barcode bases at the start of each read.
	BCLen int
	// MinQ is the minimum Phred quality score of a base. Lower quality
	// bases are treated as N.
	MinQ int
	// MinReads is the minimum number of reads a barcode needs, and the
	// minimum coverage of a consensus position.
	MinReads int
	// MinConcur is the minimum fraction of reads that must agree at a
	// consensus position, in (0.5, 1].
	MinConcur float64
	// MinFracCall is the minimum fraction of called (non-N) positions in a
	// subamplicon.
	MinFracCall float64
	// MaxMuts is the maximum number of mutated codons in a subamplicon.
	MaxMuts int
	// R1Trim and R2Trim truncate the reads, barcode included. 0 disables
	// trimming.
	R1Trim, R2Trim int

	// PurgeRead randomly drops this fraction of read pairs. PurgeBC randomly
	// drops this fraction of barcodes. At most one may be set.
	PurgeRead float64
	PurgeBC   float64
	// Seed seeds the random source used by PurgeRead and PurgeBC.
	Seed int64

	// BCInfo requests a gzipped trace of the disposition of every barcode.
	BCInfo bool
	// SiteMask, if set, names a TSV file with a "site" column. The count
	// table is restricted to those sites.
	SiteMask string
}

// DefaultOpts holds the default values of Opts.
var DefaultOpts = Opts{
	BCLen:       8,
	MinQ:        15,
	MinReads:    2,
	MinConcur:   0.75,
	MinFracCall: 0.95,
	MaxMuts:     4,
	R1Trim:      200,
	R2Trim:      170,
	Seed:        1,
}

// maxPhred is the largest quality score representable in Phred+33.
const maxPhred = '~' - 33

// Validate checks the options that do not depend on the input files.
func (opts *Opts) Validate() error {
	if opts.Name == "" {
		return fmt.Errorf("you must specify a sample name")
	}
	if strings.ContainsAny(opts.Name, "/\\") {
		return fmt.Errorf("sample name %q must not contain path separators", opts.Name)
	}
	if opts.RefSeq == "" {
		return fmt.Errorf("you must specify a reference sequence with -refseq")
	}
	if len(opts.R1) == 0 {
		return fmt.Errorf("you must specify at least one R1 file")
	}
	if len(opts.AlignSpecs) == 0 {
		return fmt.Errorf("you must specify at least one alignspec")
	}
	if opts.BCLen <= 0 {
		return fmt.Errorf("bclen must be positive")
	}
	if opts.MinQ < 0 || opts.MinQ > maxPhred {
		return fmt.Errorf("minq must be in [0, %d]", maxPhred)
	}
	if opts.MinReads < 1 {
		return fmt.Errorf("minreads must be at least 1")
	}
	if opts.MinConcur <= 0.5 || opts.MinConcur > 1 {
		return fmt.Errorf("minconcur must be in (0.5, 1], got %v", opts.MinConcur)
	}
	if opts.MinFracCall < 0 || opts.MinFracCall > 1 {
		return fmt.Errorf("minfraccall must be in [0, 1], got %v", opts.MinFracCall)
	}
	if opts.MaxMuts < 0 {
		return fmt.Errorf("maxmuts must be non-negative")
	}
	if opts.R1Trim < 0 || opts.R2Trim < 0 {
		return fmt.Errorf("R1trim and R2trim must be non-negative")
	}
	if opts.R1Trim > 0 && opts.R1Trim <= opts.BCLen {
		return fmt.Errorf("R1trim %d leaves no bases after the %d-base barcode", opts.R1Trim, opts.BCLen)
	}
	if opts.R2Trim > 0 && opts.R2Trim <= opts.BCLen {
		return fmt.Errorf("R2trim %d leaves no bases after the %d-base barcode", opts.R2Trim, opts.BCLen)
	}
	if opts.PurgeRead < 0 || opts.PurgeRead >= 1 {
		return fmt.Errorf("purgeread must be in [0, 1)")
	}
	if opts.PurgeBC < 0 || opts.PurgeBC >= 1 {
		return fmt.Errorf("purgebc must be in [0, 1)")
	}
	if opts.PurgeRead > 0 && opts.PurgeBC > 0 {
		return fmt.Errorf("purgeread and purgebc cannot both be set")
	}
	if len(opts.R2) > 0 && len(opts.R2) != len(opts.R1) {
		return fmt.Errorf("got %d R2 entries for %d R1 entries", len(opts.R2), len(opts.R1))
	}
	return nil
}
