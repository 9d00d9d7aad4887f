package bcsubamp

import "github.com/grailbio/dms/dna"

// BuildConsensus returns the per-position majority sequence of reads. N
// bases and reads shorter than a position do not count toward it. A
// position is called only if at least minReads reads cover it and the most
// common base makes up at least minConcur of them; otherwise it is N. The
// result is as long as the longest read.
func BuildConsensus(reads []string, minReads int, minConcur float64) string {
	maxLen := 0
	for _, r := range reads {
		if len(r) > maxLen {
			maxLen = len(r)
		}
	}
	cons := make([]byte, maxLen)
	var counts [256]int
	for i := 0; i < maxLen; i++ {
		total := 0
		for _, r := range reads {
			if i < len(r) && r[i] != dna.Ambiguous {
				counts[r[i]]++
				total++
			}
		}
		var (
			best  byte
			nBest int
		)
		for _, r := range reads {
			if i >= len(r) {
				continue
			}
			b := r[i]
			if n := counts[b]; b != dna.Ambiguous && (n > nBest || (n == nBest && b > best)) {
				best, nBest = b, n
			}
		}
		for _, r := range reads {
			if i < len(r) {
				counts[r[i]] = 0
			}
		}
		if total < minReads || total == 0 || float64(nBest)/float64(total) < minConcur {
			cons[i] = dna.Ambiguous
			continue
		}
		cons[i] = best
	}
	return string(cons)
}
