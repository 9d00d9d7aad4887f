package codoncounts

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/dms/dna"
)

// AdjustErrorCounts caps the error-control counts errCounts so that no
// non-wildtype codon greatly exceeds what the codon's frequency in counts
// predicts. At each site the cap of a codon c is
//
//   round(counts[c]/total(counts) * total(errCounts) + maxExcess)
//
// rounding half to even. Wildtype counts are never changed. A site with no
// counts predicts frequency 0 for every codon. The two tables must have the
// same sites and wildtype codons.
func AdjustErrorCounts(errCounts, counts *Table, maxExcess int) (*Table, error) {
	if maxExcess < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("negative maxexcess %d", maxExcess))
	}
	if errCounts.Len() != counts.Len() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("tables have %d and %d sites", errCounts.Len(), counts.Len()))
	}
	adj := &Table{
		Sites:    append([]string(nil), errCounts.Sites...),
		Wildtype: append([]string(nil), errCounts.Wildtype...),
		Counts:   append([]Row(nil), errCounts.Counts...),
	}
	for i, site := range errCounts.Sites {
		if counts.Sites[i] != site || counts.Wildtype[i] != errCounts.Wildtype[i] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("row %d: site %s (%s) does not match site %s (%s)",
				i, site, errCounts.Wildtype[i], counts.Sites[i], counts.Wildtype[i]))
		}
		wt := dna.CodonIndex(counts.Wildtype[i])
		total, errTotal := counts.Counts[i].Total(), errCounts.Counts[i].Total()
		for c, n := range counts.Counts[i] {
			if c == wt {
				continue
			}
			freq := 0.0
			if total > 0 {
				freq = float64(n) / float64(total)
			}
			limit := int(math.RoundToEven(freq*float64(errTotal) + float64(maxExcess)))
			if adj.Counts[i][c] > limit {
				adj.Counts[i][c] = limit
			}
		}
	}
	return adj, nil
}
