// Package dna holds the nucleotide and codon tables shared by the read
// processing and count table packages.
//
// Sequences are plain ASCII strings. 'N' marks a base whose identity was not
// called, either because of low sequencing quality or because the reads of a
// barcode disagree.
package dna

// Ambiguous is the placeholder for a non-called base.
const Ambiguous = 'N'

// Nucleotides lists the called bases in the order used for table columns.
const Nucleotides = "ACGT"

var revCompTable = [256]byte{}

func init() {
	for i := range revCompTable {
		revCompTable[i] = Ambiguous
	}
	for _, p := range [][2]byte{{'A', 'T'}, {'C', 'G'}, {'G', 'C'}, {'T', 'A'}} {
		revCompTable[p[0]] = p[1]
		revCompTable[p[0]+'a'-'A'] = p[1]
	}
}

// ReverseComp returns the reverse complement of seq. 'A'/'a' maps to 'T',
// 'C'/'c' to 'G', 'G'/'g' to 'C', 'T'/'t' to 'A', and everything else to
// 'N'.
func ReverseComp(seq string) string {
	n := len(seq)
	dst := make([]byte, n)
	for idx, invIdx := 0, n-1; idx != n; idx, invIdx = idx+1, invIdx-1 {
		dst[idx] = revCompTable[seq[invIdx]]
	}
	return string(dst)
}

// IsValid reports whether seq consists only of 'A', 'C', 'G' and 'T'.
func IsValid(seq string) bool {
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// CountAmbiguous returns the number of 'N' bases in seq.
func CountAmbiguous(seq string) int {
	n := 0
	for i := 0; i < len(seq); i++ {
		if seq[i] == Ambiguous {
			n++
		}
	}
	return n
}
