package bcsubamp

import (
	"github.com/grailbio/dms/codoncounts"
	"github.com/grailbio/dms/dna"
)

// Accumulate adds one count to t for each codon that subamplicon fully
// covers, skipping codons that contain N. subamplicon starts at reference
// position refStart (1-based). t must be a dense table as built by
// codoncounts.New, so that row i holds site i+1.
func Accumulate(t *codoncounts.Table, refStart int, subamplicon string) {
	first, shift := codonFrame(refStart)
	if shift >= len(subamplicon) {
		return
	}
	s := subamplicon[shift:]
	for i := 0; 3*i+3 <= len(s); i++ {
		row := first + i
		if row >= t.Len() {
			return
		}
		if c := dna.CodonIndex(s[3*i : 3*i+3]); c >= 0 {
			t.Increment(row, c)
		}
	}
}
