package fastq

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// FilterStatus is the Illumina chastity filter state of a read pair.
type FilterStatus uint8

const (
	// FilterUnknown means the read headers carry no filter flag.
	FilterUnknown FilterStatus = iota
	// FilterPass means both reads passed the filter.
	FilterPass
	// FilterFail means at least one read failed the filter.
	FilterFail
)

// String implements fmt.Stringer.
func (s FilterStatus) String() string {
	switch s {
	case FilterPass:
		return "pass"
	case FilterFail:
		return "fail"
	}
	return "unknown"
}

// ReadPair is one paired-end read. Q1 and Q2 are Phred+33 quality strings
// of the same length as R1 and R2.
type ReadPair struct {
	Name   string
	R1, R2 string
	Q1, Q2 string
	Filter FilterStatus
}

// FilePair names the R1 and R2 files of one paired-end FASTQ set.
type FilePair struct {
	R1, R2 string
}

// MateR2Path derives the R2 file name from an R1 file name by replacing its
// single "_R1" marker with "_R2".
func MateR2Path(r1 string) (string, error) {
	if n := strings.Count(r1, "_R1"); n != 1 {
		return "", errors.E(fmt.Sprintf("cannot derive R2 file from %s: expected exactly one _R1, found %d", r1, n))
	}
	return strings.Replace(r1, "_R1", "_R2", 1), nil
}

// PairReaderOpts configures a PairReader.
type PairReaderOpts struct {
	// R1Trim and R2Trim, if positive, truncate R1 and R2 (and their
	// qualities) to at most this many bases.
	R1Trim, R2Trim int
}

// PairReader streams ReadPairs from a list of FASTQ file pairs, in order.
// Files ending in ".gz" are decompressed. Each file pair is opened only when
// the previous one is exhausted, and closed as soon as it is exhausted.
// PairReader is not threadsafe.
type PairReader struct {
	ctx    context.Context
	pairs  []FilePair
	opts   PairReaderOpts
	next   int
	cur    *openPair
	r1, r2 Read
	nRead  int
	err    error
}

// NewPairReader creates a reader over the given file pairs.
func NewPairReader(ctx context.Context, pairs []FilePair, opts PairReaderOpts) *PairReader {
	return &PairReader{ctx: ctx, pairs: pairs, opts: opts}
}

type openPair struct {
	paths    FilePair
	in1, in2 file.File
	z1, z2   io.Closer
	sc       *PairScanner
}

func openFASTQ(ctx context.Context, path string) (file.File, io.Reader, io.Closer, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, nil, errors.E(err, "open", path)
	}
	var r io.Reader = in.Reader(ctx)
	if !strings.HasSuffix(path, ".gz") {
		return in, r, nil, nil
	}
	z, err := gzip.NewReader(r)
	if err != nil {
		_ = in.Close(ctx)
		return nil, nil, nil, errors.E(err, "gzip", path)
	}
	return in, z, z, nil
}

func (p *PairReader) open(paths FilePair) (*openPair, error) {
	op := &openPair{paths: paths}
	var (
		r1, r2 io.Reader
		err    error
	)
	if op.in1, r1, op.z1, err = openFASTQ(p.ctx, paths.R1); err != nil {
		return nil, err
	}
	if op.in2, r2, op.z2, err = openFASTQ(p.ctx, paths.R2); err != nil {
		_ = op.close(p.ctx)
		return nil, err
	}
	op.sc = NewPairScanner(r1, r2)
	return op, nil
}

func (op *openPair) close(ctx context.Context) error {
	once := errors.Once{}
	if op.z1 != nil {
		once.Set(op.z1.Close())
	}
	if op.z2 != nil {
		once.Set(op.z2.Close())
	}
	if op.in1 != nil {
		once.Set(op.in1.Close(ctx))
	}
	if op.in2 != nil {
		once.Set(op.in2.Close(ctx))
	}
	return once.Err()
}

// Scan reads the next pair into rp. It returns false at the end of the last
// file pair or on error; Err distinguishes the two.
func (p *PairReader) Scan(rp *ReadPair) bool {
	for p.err == nil {
		if p.cur == nil {
			if p.next >= len(p.pairs) {
				return false
			}
			if p.err = p.ctx.Err(); p.err != nil {
				return false
			}
			paths := p.pairs[p.next]
			p.next++
			if p.cur, p.err = p.open(paths); p.err != nil {
				return false
			}
			p.nRead = 0
			log.Debug.Printf("reading %s and %s", paths.R1, paths.R2)
		}
		if p.cur.sc.Scan(&p.r1, &p.r2) {
			p.nRead++
			if p.err = p.fill(rp); p.err != nil {
				p.closeCurrent()
				return false
			}
			return true
		}
		if err := p.cur.sc.Err(); err != nil {
			p.err = errors.E(err, fmt.Sprintf("reading %s and %s after %d pairs", p.cur.paths.R1, p.cur.paths.R2, p.nRead))
		}
		log.Debug.Printf("read %d pairs from %s and %s", p.nRead, p.cur.paths.R1, p.cur.paths.R2)
		p.closeCurrent()
	}
	return false
}

func (p *PairReader) closeCurrent() {
	if p.cur == nil {
		return
	}
	if err := p.cur.close(p.ctx); err != nil && p.err == nil {
		p.err = err
	}
	p.cur = nil
}

func (p *PairReader) fill(rp *ReadPair) error {
	name1, flag1 := parseHeader(p.r1.ID)
	name2, flag2 := parseHeader(p.r2.ID)
	// SRA downloads append .1 and .2 to the mate names.
	if strings.HasSuffix(name1, ".1") && strings.HasSuffix(name2, ".2") {
		name1 = name1[:len(name1)-2]
		name2 = name2[:len(name2)-2]
	}
	if name1 != name2 {
		return errors.E(fmt.Sprintf("R1 and R2 read names differ: %s vs %s (%s, %s)",
			name1, name2, p.cur.paths.R1, p.cur.paths.R2))
	}
	if p.opts.R1Trim > 0 {
		p.r1.Trim(p.opts.R1Trim)
	}
	if p.opts.R2Trim > 0 {
		p.r2.Trim(p.opts.R2Trim)
	}
	*rp = ReadPair{
		Name:   name1,
		R1:     p.r1.Seq,
		R2:     p.r2.Seq,
		Q1:     p.r1.Qual,
		Q2:     p.r2.Qual,
		Filter: filterStatus(flag1, flag2),
	}
	return nil
}

// parseHeader splits a FASTQ ID line into the read name and the CASAVA 1.8
// filter flag, e.g. "@M01:1:X:1:1101:2165:1984 1:N:0:CGATGT" gives
// ("M01:1:X:1:1101:2165:1984", 'N'). The flag is 0 when absent.
func parseHeader(id string) (name string, flag byte) {
	fields := strings.Fields(strings.TrimPrefix(id, "@"))
	if len(fields) == 0 {
		return "", 0
	}
	name = fields[0]
	if len(fields) > 1 && len(fields[1]) > 2 {
		flag = fields[1][2]
	}
	return name, flag
}

func filterStatus(f1, f2 byte) FilterStatus {
	isFlag := func(f byte) bool { return f == 'N' || f == 'Y' }
	switch {
	case f1 == 'N' && f2 == 'N':
		return FilterPass
	case isFlag(f1) && isFlag(f2):
		return FilterFail
	}
	return FilterUnknown
}

// Err returns the first error encountered, if any.
func (p *PairReader) Err() error {
	return p.err
}

// Close releases any open files. It is safe to call Close after the reader
// is exhausted, and more than once.
func (p *PairReader) Close() error {
	var err error
	if p.cur != nil {
		err = p.cur.close(p.ctx)
		p.cur = nil
	}
	p.next = len(p.pairs)
	return err
}
