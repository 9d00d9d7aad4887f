// Package fasta parses FASTA files. FASTA files consist of a number of named
// sequences that may be interrupted by newlines.  For example:
//
// >gene1
// ATGAAA
// CCCTAA
// >gene2
// ATGTAA
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>HA A/WSN/1933 hemagglutinin' becomes 'HA'.
package fasta

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/dms/dna"
	"github.com/pkg/errors"
)

const (
	maxLineLen = 64 << 20
)

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end).
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a new Fasta that holds all the FASTA data from the given reader
// in memory.
func New(r io.Reader) (Fasta, error) {
	f := &fasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, maxLineLen)
	var (
		seqName string
		inSeq   bool
		seq     strings.Builder
	)
	flush := func() error {
		if !inSeq {
			return nil
		}
		if _, ok := f.seqs[seqName]; ok {
			return errors.Errorf("duplicate sequence name %q", seqName)
		}
		f.seqs[seqName] = seq.String()
		f.seqNames = append(f.seqNames, seqName)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			if err := flush(); err != nil {
				return nil, err
			}
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, errors.Errorf("malformed FASTA file: empty sequence name")
			}
			seqName = fields[0]
			inSeq = true
		} else {
			if !inSeq {
				return nil, errors.Errorf("malformed FASTA file: sequence data before the first header")
			}
			seq.WriteString(line)
		}
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return f, nil
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seq string) (uint64, error) {
	s, ok := f.seqs[seq]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seq)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}

// ParseCodingSequence reads a FASTA stream holding exactly one coding
// sequence. The sequence is upper-cased, and must consist of A, C, G and T
// only and have a length that is a positive multiple of 3.
func ParseCodingSequence(r io.Reader) (name, seq string, err error) {
	fa, err := New(r)
	if err != nil {
		return "", "", err
	}
	names := fa.SeqNames()
	if len(names) != 1 {
		return "", "", errors.Errorf("expected exactly one sequence, found %d", len(names))
	}
	name = names[0]
	n, _ := fa.Len(name)
	if n == 0 {
		return "", "", errors.Errorf("sequence %s is empty", name)
	}
	if seq, err = fa.Get(name, 0, n); err != nil {
		return "", "", err
	}
	seq = strings.ToUpper(seq)
	if !dna.IsValid(seq) {
		return "", "", errors.Errorf("sequence %s has characters other than A, C, G, T", name)
	}
	if len(seq)%3 != 0 {
		return "", "", errors.Errorf("length of sequence %s is %d, not a multiple of 3", name, len(seq))
	}
	return name, seq, nil
}

// ReadCodingSequence reads a single-record coding sequence FASTA file; see
// ParseCodingSequence.
func ReadCodingSequence(ctx context.Context, path string) (seq string, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return "", errors.Wrapf(err, "open reference %s", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if _, seq, err = ParseCodingSequence(in.Reader(ctx)); err != nil {
		return "", errors.Wrapf(err, "reference %s", path)
	}
	return seq, nil
}
