package dna_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/dms/dna"
	"github.com/grailbio/testutil/expect"
)

func TestReverseComp(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"A", "T"},
		{"ATGCAAN", "NTTGCAT"},
		{"acgt", "ACGT"},
		{"GGGX", "NCCC"},
	}
	for _, tt := range tests {
		expect.EQ(t, dna.ReverseComp(tt.in), tt.want, "input: %s", tt.in)
	}
}

func TestReverseCompInvolution(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	for iter := 0; iter < 100; iter++ {
		b := make([]byte, r.Intn(50))
		for i := range b {
			b[i] = "ACGTN"[r.Intn(5)]
		}
		s := string(b)
		expect.EQ(t, dna.ReverseComp(dna.ReverseComp(s)), s)
	}
}

func TestCodons(t *testing.T) {
	expect.EQ(t, dna.Codons[0], "AAA")
	expect.EQ(t, dna.Codons[dna.NumCodons-1], "TTT")
	for i, c := range dna.Codons {
		expect.EQ(t, dna.CodonIndex(c), i)
	}
	expect.EQ(t, dna.CodonIndex("ANA"), -1)
	expect.EQ(t, dna.CodonIndex("AC"), -1)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		codon string
		aa    byte
	}{
		{"ATG", 'M'},
		{"TGG", 'W'},
		{"TAA", '*'},
		{"TAG", '*'},
		{"TGA", '*'},
		{"GGA", 'G'},
		{"GGG", 'G'},
		{"AGA", 'R'},
		{"TTA", 'L'},
		{"NNN", 0},
	}
	for _, tt := range tests {
		expect.EQ(t, dna.Translate(tt.codon), tt.aa, "codon: %s", tt.codon)
	}
	nStop := 0
	for _, c := range dna.Codons {
		aa := dna.Translate(c)
		expect.True(t, dna.AminoAcidIndex(aa) >= 0, "codon %s", c)
		if aa == dna.Stop {
			nStop++
		}
	}
	expect.EQ(t, nStop, 3)
}

func TestCountAmbiguous(t *testing.T) {
	expect.EQ(t, dna.CountAmbiguous("ANNCGN"), 3)
	expect.EQ(t, dna.CountAmbiguous(""), 0)
	expect.True(t, dna.IsValid("ACGT"))
	expect.False(t, dna.IsValid("ACGN"))
}
