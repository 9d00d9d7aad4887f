package dna

// NumCodons is the number of distinct codons over ACGT.
const NumCodons = 64

// Codons lists all codons in lexicographic order, AAA first and TTT last.
// The position of a codon in this list is its column index in count tables.
var Codons [NumCodons]string

// AminoAcids lists the 20 amino acids in alphabetical order of their
// one-letter codes, followed by the stop symbol '*'.
const AminoAcids = "ACDEFGHIKLMNPQRSTVWY*"

// Stop is the symbol of a stop codon.
const Stop = '*'

// Standard genetic code, indexed like Codons.
const codonTable = "KNKNTTTTRSRSIIMIQHQHPPPPRRRRLLLLEDEDAAAAGGGGVVVV*Y*YSSSS*CWCLFLF"

var baseIndex = [256]int8{}

func init() {
	for i := range baseIndex {
		baseIndex[i] = -1
	}
	for i := 0; i < len(Nucleotides); i++ {
		baseIndex[Nucleotides[i]] = int8(i)
	}
	for i := range Codons {
		Codons[i] = string([]byte{Nucleotides[i>>4], Nucleotides[(i>>2)&3], Nucleotides[i&3]})
	}
}

// CodonIndex returns the column index of the codon at s[0:3], or -1 if any
// of its bases is not in ACGT.
func CodonIndex(s string) int {
	if len(s) < 3 {
		return -1
	}
	b0, b1, b2 := baseIndex[s[0]], baseIndex[s[1]], baseIndex[s[2]]
	if b0 < 0 || b1 < 0 || b2 < 0 {
		return -1
	}
	return int(b0)<<4 | int(b1)<<2 | int(b2)
}

// Translate returns the one-letter amino acid encoded by codon, or 0 if the
// codon is not over ACGT.
func Translate(codon string) byte {
	i := CodonIndex(codon)
	if i < 0 || len(codon) != 3 {
		return 0
	}
	return codonTable[i]
}

// AminoAcidIndex returns the position of aa in AminoAcids, or -1.
func AminoAcidIndex(aa byte) int {
	for i := 0; i < len(AminoAcids); i++ {
		if AminoAcids[i] == aa {
			return i
		}
	}
	return -1
}
