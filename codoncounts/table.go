// Package codoncounts holds per-site codon count tables, their TSV file
// format, and the per-site summaries derived from them.
//
// A count table has one row per site of a coding sequence. Each row carries
// the site label, the wildtype codon, and one count for each of the 64
// codons, in the order of dna.Codons. Tables built from a reference label
// their sites 1..n; renumbered tables may carry any unique labels, such as
// "52a", in any order.
package codoncounts

import (
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/dms/dna"
)

// Row is the count vector of one site, indexed like dna.Codons.
type Row [dna.NumCodons]int

// Total returns the sum of all codon counts of the row.
func (r *Row) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// Table is a fixed-shape codon count table. Sites, Wildtype and Counts are
// parallel slices.
type Table struct {
	// Sites holds the unique site labels in row order.
	Sites []string
	// Wildtype holds the wildtype codon of each site.
	Wildtype []string
	// Counts holds the codon counts of each site.
	Counts []Row
}

// New allocates a zero table for the coding sequence refseq, with one row
// per codon.
func New(refseq string) (*Table, error) {
	if len(refseq) == 0 || len(refseq)%3 != 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("reference length %d is not a positive multiple of 3", len(refseq)))
	}
	n := len(refseq) / 3
	t := &Table{
		Sites:    make([]string, n),
		Wildtype: make([]string, n),
		Counts:   make([]Row, n),
	}
	for i := 0; i < n; i++ {
		wt := refseq[3*i : 3*i+3]
		if dna.CodonIndex(wt) < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("invalid wildtype codon %s at site %d", wt, i+1))
		}
		t.Sites[i] = strconv.Itoa(i + 1)
		t.Wildtype[i] = wt
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Sites) }

// Index returns the row index of site, or -1.
func (t *Table) Index(site string) int {
	for i, s := range t.Sites {
		if s == site {
			return i
		}
	}
	return -1
}

// Count returns the count of codon at site, or 0 if the site is not in the
// table.
func (t *Table) Count(site, codon string) int {
	i, c := t.Index(site), dna.CodonIndex(codon)
	if i < 0 || c < 0 {
		return 0
	}
	return t.Counts[i][c]
}

// Increment adds one observation of the codon with index codonIndex at the
// row with index row.
func (t *Table) Increment(row, codonIndex int) {
	t.Counts[row][codonIndex]++
}

// Equal reports whether the two tables hold the same sites, wildtype codons
// and counts.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i := range t.Sites {
		if t.Sites[i] != o.Sites[i] || t.Wildtype[i] != o.Wildtype[i] || t.Counts[i] != o.Counts[i] {
			return false
		}
	}
	return true
}

// Filter returns a new table that holds only the rows for which keep
// returns true.
func (t *Table) Filter(keep func(site string) bool) *Table {
	out := &Table{}
	for i, site := range t.Sites {
		if !keep(site) {
			continue
		}
		out.Sites = append(out.Sites, site)
		out.Wildtype = append(out.Wildtype, t.Wildtype[i])
		out.Counts = append(out.Counts, t.Counts[i])
	}
	return out
}
