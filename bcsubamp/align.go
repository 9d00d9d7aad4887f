package bcsubamp

import (
	"strings"

	"github.com/grailbio/dms/dna"
)

// codonFrame returns the 0-based index of the first codon that starts at or
// after reference position refStart (1-based), and the offset of that
// codon's first base from refStart.
func codonFrame(refStart int) (codon, shift int) {
	switch refStart % 3 {
	case 1:
		return (refStart - 1) / 3, 0
	case 2:
		return (refStart + 1) / 3, 2
	default:
		return refStart / 3, 1
	}
}

// AlignSubamplicon merges the reads r1 and r2 into the reference window
// [refStart, refEnd] (1-based, inclusive). r1 starts at refStart; r2 is
// reverse-complemented so that its first base lands on refEnd. Where both
// reads cover a position, agreeing bases are kept, an N on one side yields
// the other side's base, and two differing bases yield N.
//
// The merge fails if it has more than maxN N bases, or more than maxMuts
// fully covered codons without N that differ from refseq. On success it
// returns the merged sequence of length refEnd-refStart+1.
func AlignSubamplicon(refseq, r1, r2 string, refStart, refEnd, maxMuts, maxN int) (string, bool) {
	r2 = dna.ReverseComp(r2)
	n := refEnd - refStart + 1
	r2Offset := n - len(r2) // window position of r2[0]; may be negative
	sub := make([]byte, n)
	for i := 0; i < n; i++ {
		in1, in2 := i < len(r1), i >= r2Offset
		var b byte
		switch {
		case in1 && in2:
			b1, b2 := r1[i], r2[i-r2Offset]
			switch {
			case b1 == b2, b2 == dna.Ambiguous:
				b = b1
			case b1 == dna.Ambiguous:
				b = b2
			default:
				b = dna.Ambiguous
			}
		case in1:
			b = r1[i]
		case in2:
			b = r2[i-r2Offset]
		default:
			b = dna.Ambiguous
		}
		sub[i] = b
	}
	if dna.CountAmbiguous(string(sub)) > maxN {
		return "", false
	}
	first, shift := codonFrame(refStart)
	nMuts := 0
	for c := first; 3*c+3 <= refEnd; c++ {
		k := 3*(c-first) + shift
		codon := sub[k : k+3]
		if strings.IndexByte(string(codon), dna.Ambiguous) >= 0 || string(codon) == refseq[3*c:3*c+3] {
			continue
		}
		if nMuts++; nMuts > maxMuts {
			return "", false
		}
	}
	return string(sub), true
}

// Alignment is the outcome of aligning one barcode's consensus reads. If OK
// is false no window accepted the reads, and the other fields are zero.
type Alignment struct {
	OK          bool
	Spec        AlignSpec
	Subamplicon string
}

// Aligner tries a list of alignment windows in order.
type Aligner struct {
	RefSeq  string
	Specs   []AlignSpec
	MaxMuts int
}

// window returns cons from 1-based position start, truncated to n bases.
func window(cons string, start, n int) string {
	if start-1 >= len(cons) {
		return ""
	}
	cons = cons[start-1:]
	if len(cons) > n {
		cons = cons[:n]
	}
	return cons
}

// Align returns the alignment under the first spec that accepts the
// consensus reads r1 and r2.
func (a *Aligner) Align(r1, r2 string) Alignment {
	for _, spec := range a.Specs {
		n := spec.Len()
		sub, ok := AlignSubamplicon(a.RefSeq, window(r1, spec.R1Start, n), window(r2, spec.R2Start, n),
			spec.RefStart, spec.RefEnd, a.MaxMuts, spec.MaxN)
		if ok {
			return Alignment{OK: true, Spec: spec, Subamplicon: sub}
		}
	}
	return Alignment{}
}
