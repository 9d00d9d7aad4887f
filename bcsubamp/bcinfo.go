package bcsubamp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// bcInfoWriter writes one text block per barcode to a gzip stream:
//
//   BARCODE <barcode>
//   RETAINED <true|false>
//   DESCRIPTION <disposition>
//   SUBAMPLICON <sequence or None>
//   R1 READS:
//   	<read>
//   R2 READS:
//   	<read>
//
// Blocks are separated by a blank line.
type bcInfoWriter struct {
	gz  *gzip.Writer
	buf *bufio.Writer
	n   int
}

func newBCInfoWriter(w io.Writer) *bcInfoWriter {
	gz := gzip.NewWriter(w)
	return &bcInfoWriter{gz: gz, buf: bufio.NewWriter(gz)}
}

// write appends the block of one barcode. An empty subamplicon is written
// as None.
func (w *bcInfoWriter) write(bc string, retained bool, description, subamplicon string, grp *ReadGroup) error {
	if w.n > 0 {
		w.buf.WriteByte('\n')
	}
	w.n++
	if subamplicon == "" {
		subamplicon = "None"
	}
	fmt.Fprintf(w.buf, "BARCODE %s\nRETAINED %t\nDESCRIPTION %s\nSUBAMPLICON %s\n",
		bc, retained, description, subamplicon)
	w.buf.WriteString("R1 READS:\n")
	for _, r := range grp.R1 {
		fmt.Fprintf(w.buf, "\t%s\n", r)
	}
	w.buf.WriteString("R2 READS:\n")
	for _, r := range grp.R2 {
		fmt.Fprintf(w.buf, "\t%s\n", r)
	}
	// bufio.Writer keeps the first error and returns it from every call.
	_, err := w.buf.Write(nil)
	return err
}

func (w *bcInfoWriter) close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	return w.gz.Close()
}
