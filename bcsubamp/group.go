package bcsubamp

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/grailbio/dms/dna"
	"github.com/grailbio/dms/encoding/fastq"
)

// MaskLowQ replaces each base of seq whose Phred+33 quality in qual is below
// minQ by N.
func MaskLowQ(seq, qual string, minQ int) string {
	threshold := byte(minQ + 33)
	var masked []byte
	for i := 0; i < len(seq); i++ {
		if i < len(qual) && qual[i] >= threshold {
			continue
		}
		if masked == nil {
			masked = []byte(seq)
		}
		masked[i] = dna.Ambiguous
	}
	if masked == nil {
		return seq
	}
	return string(masked)
}

// ReadGroup holds the barcode-stripped reads that share a barcode. R1 and
// R2 have equal length.
type ReadGroup struct {
	R1, R2 []string
}

// Len returns the number of read pairs in the group.
func (g *ReadGroup) Len() int { return len(g.R1) }

// Grouper partitions read pairs by barcode.
type Grouper struct {
	bcLen     int
	minQ      int
	purgeRead float64
	rng       *rand.Rand
	groups    map[string]*ReadGroup
	stats     ReadStats
}

// NewGrouper creates a grouper that uses opts.BCLen, opts.MinQ and
// opts.PurgeRead. rng draws the subsampling decisions; it may be nil if
// opts.PurgeRead is 0.
func NewGrouper(opts *Opts, rng *rand.Rand) *Grouper {
	return &Grouper{
		bcLen:     opts.BCLen,
		minQ:      opts.MinQ,
		purgeRead: opts.PurgeRead,
		rng:       rng,
		groups:    map[string]*ReadGroup{},
	}
}

// Add assigns rp to the group of its barcode, or tallies why it was
// dropped.
func (g *Grouper) Add(rp *fastq.ReadPair) {
	g.stats.Total++
	if rp.Filter == fastq.FilterFail {
		g.stats.FailFilter++
		return
	}
	if g.purgeRead > 0 && g.rng.Float64() < g.purgeRead {
		g.stats.Subsampled++
		return
	}
	r1 := MaskLowQ(rp.R1, rp.Q1, g.minQ)
	r2 := MaskLowQ(rp.R2, rp.Q2, g.minQ)
	if len(r1) < g.bcLen || len(r2) < g.bcLen {
		g.stats.LowQBarcode++
		return
	}
	bc := r1[:g.bcLen] + r2[:g.bcLen]
	if strings.IndexByte(bc, dna.Ambiguous) >= 0 {
		g.stats.LowQBarcode++
		return
	}
	grp := g.groups[bc]
	if grp == nil {
		grp = &ReadGroup{}
		g.groups[bc] = grp
	}
	grp.R1 = append(grp.R1, r1[g.bcLen:])
	grp.R2 = append(grp.R2, r2[g.bcLen:])
}

// Len returns the number of distinct barcodes.
func (g *Grouper) Len() int { return len(g.groups) }

// Barcodes returns the barcodes seen so far, sorted.
func (g *Grouper) Barcodes() []string {
	bcs := make([]string, 0, len(g.groups))
	for bc := range g.groups {
		bcs = append(bcs, bc)
	}
	sort.Strings(bcs)
	return bcs
}

// Group returns the reads of barcode bc, or nil.
func (g *Grouper) Group(bc string) *ReadGroup {
	return g.groups[bc]
}

// ReadStats returns the read tallies so far.
func (g *Grouper) ReadStats() ReadStats {
	return g.stats
}

// ReadsPerBarcode returns a histogram that maps a group size to the number
// of barcodes with that many read pairs.
func (g *Grouper) ReadsPerBarcode() map[int]int {
	h := map[int]int{}
	for _, grp := range g.groups {
		h[grp.Len()]++
	}
	return h
}
