package bcsubamp

import (
	"io"
	"sort"

	"github.com/grailbio/base/tsv"
)

// Outcome is the final disposition of a barcode.
type Outcome int

const (
	// TooFewReads means the barcode had fewer than MinReads read pairs.
	TooFewReads Outcome = iota
	// NotAlignable means no alignspec accepted the consensus reads.
	NotAlignable
	// Aligned means the barcode contributed to the count table.
	Aligned
	// Subsampled means the barcode was dropped by PurgeBC.
	Subsampled
)

// String returns the description used in the statistics tables.
func (o Outcome) String() string {
	switch o {
	case TooFewReads:
		return "too few reads"
	case NotAlignable:
		return "not alignable"
	case Aligned:
		return "aligned"
	case Subsampled:
		return "subsampled"
	}
	return "unknown"
}

// ReadStats tallies read pairs.
type ReadStats struct {
	// Total counts every read pair, including dropped ones.
	Total       int
	FailFilter  int
	LowQBarcode int
	Subsampled  int
}

// BarcodeStats tallies barcodes by Outcome.
type BarcodeStats struct {
	Total        int
	TooFewReads  int
	NotAlignable int
	Aligned      int
	Subsampled   int
}

// Add tallies one barcode.
func (s *BarcodeStats) Add(o Outcome) {
	s.Total++
	switch o {
	case TooFewReads:
		s.TooFewReads++
	case NotAlignable:
		s.NotAlignable++
	case Aligned:
		s.Aligned++
	case Subsampled:
		s.Subsampled++
	}
}

type readStatsRow struct {
	Category string `tsv:"category"`
	N        int64  `tsv:"number_of_reads"`
}

type barcodeStatsRow struct {
	Category string `tsv:"category"`
	N        int64  `tsv:"number_of_barcodes"`
}

// WriteReadStats writes the read tallies. The subsampled row is present
// only if withSubsampled.
func WriteReadStats(w io.Writer, s ReadStats, withSubsampled bool) error {
	rows := []readStatsRow{
		{"total", int64(s.Total)},
		{"fail filter", int64(s.FailFilter)},
		{"low Q barcode", int64(s.LowQBarcode)},
	}
	if withSubsampled {
		rows = append(rows, readStatsRow{"subsampled", int64(s.Subsampled)})
	}
	tw := tsv.NewRowWriter(w)
	for i := range rows {
		if err := tw.Write(&rows[i]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteBarcodeStats writes the barcode tallies. The subsampled row is
// present only if withSubsampled.
func WriteBarcodeStats(w io.Writer, s BarcodeStats, withSubsampled bool) error {
	rows := []barcodeStatsRow{
		{"total", int64(s.Total)},
		{TooFewReads.String(), int64(s.TooFewReads)},
		{NotAlignable.String(), int64(s.NotAlignable)},
		{Aligned.String(), int64(s.Aligned)},
	}
	if withSubsampled {
		rows = append(rows, barcodeStatsRow{Subsampled.String(), int64(s.Subsampled)})
	}
	tw := tsv.NewRowWriter(w)
	for i := range rows {
		if err := tw.Write(&rows[i]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteReadsPerBarcode writes the histogram h, from group size to number of
// barcodes, in increasing order of group size.
func WriteReadsPerBarcode(w io.Writer, h map[int]int) error {
	sizes := make([]int, 0, len(h))
	for n := range h {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)
	tw := tsv.NewWriter(w)
	tw.WriteString("number_of_reads")
	tw.WriteString("number_of_barcodes")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, n := range sizes {
		tw.WriteInt64(int64(n))
		tw.WriteInt64(int64(h[n]))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}
