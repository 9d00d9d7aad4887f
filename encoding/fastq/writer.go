package fastq

import (
	"fmt"
	"io"
)

var newline = []byte{'\n'}

// Writer is a FASTQ file writer.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter constructs a new FASTQ writer
// that writes reads to the underlying writer w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes the read r in FASTQ format.
// An error is returned if the write failed.
func (w *Writer) Write(r *Read) error {
	w.writeln(r.ID)
	w.writeln(r.Seq)
	w.writeln(r.Unk)
	w.writeln(r.Qual)
	return w.err
}

func (w *Writer) writeln(line string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}

// PairWriter writes ReadPairs to an R1 and an R2 stream, with CASAVA 1.8
// style headers so that PairReader recovers the filter status.
type PairWriter struct {
	r1, r2 *Writer
}

// NewPairWriter constructs a PairWriter.
func NewPairWriter(r1, r2 io.Writer) *PairWriter {
	return &PairWriter{r1: NewWriter(r1), r2: NewWriter(r2)}
}

// Write writes rp. A pair with FilterUnknown is written without the
// comment field.
func (w *PairWriter) Write(rp *ReadPair) error {
	id1, id2 := "@"+rp.Name, "@"+rp.Name
	switch rp.Filter {
	case FilterPass:
		id1, id2 = id1+" 1:N:0:1", id2+" 2:N:0:1"
	case FilterFail:
		id1, id2 = id1+" 1:Y:0:1", id2+" 2:Y:0:1"
	}
	if err := w.r1.Write(&Read{ID: id1, Seq: rp.R1, Unk: "+", Qual: rp.Q1}); err != nil {
		return fmt.Errorf("write R1 %s: %v", rp.Name, err)
	}
	if err := w.r2.Write(&Read{ID: id2, Seq: rp.R2, Unk: "+", Qual: rp.Q2}); err != nil {
		return fmt.Errorf("write R2 %s: %v", rp.Name, err)
	}
	return nil
}
