package codoncounts

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/dms/dna"
)

const (
	siteColumn     = "site"
	wildtypeColumn = "wildtype"
)

// Write writes t as a TSV table with columns site, wildtype, and the 64
// codons in dna.Codons order.
func (t *Table) Write(w io.Writer) error {
	tw := tsv.NewWriter(w)
	tw.WriteString(siteColumn)
	tw.WriteString(wildtypeColumn)
	for _, c := range dna.Codons {
		tw.WriteString(c)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, site := range t.Sites {
		tw.WriteString(site)
		tw.WriteString(t.Wildtype[i])
		for _, n := range t.Counts[i] {
			tw.WriteInt64(int64(n))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteFile writes t to path; see Write.
func (t *Table) WriteFile(ctx context.Context, path string) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = t.Write(out.Writer(ctx)); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}

// header maps column names of a count table to their positions.
type header map[string]int

func readHeader(r *tsv.Reader) (header, error) {
	row, err := r.Reader.Read()
	if err == io.EOF {
		return nil, errors.E(errors.Invalid, "empty table")
	}
	if err != nil {
		return nil, err
	}
	h := header{}
	for i, name := range row {
		if _, ok := h[name]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("duplicate column %s", name))
		}
		h[name] = i
	}
	return h, nil
}

func (h header) require(names ...string) error {
	for _, name := range names {
		if _, ok := h[name]; !ok {
			return errors.E(errors.Invalid, fmt.Sprintf("missing column %s", name))
		}
	}
	return nil
}

// Read parses a count table written by Write. Columns may appear in any
// order, and columns other than site, wildtype and the codons are ignored.
// Site labels must be unique and non-empty; rows keep their file order.
func Read(r io.Reader) (*Table, error) {
	tr := tsv.NewReader(r)
	tr.Comment = '#'
	h, err := readHeader(tr)
	if err != nil {
		return nil, err
	}
	if err = h.require(siteColumn, wildtypeColumn); err != nil {
		return nil, err
	}
	if err = h.require(dna.Codons[:]...); err != nil {
		return nil, err
	}
	t := &Table{}
	seen := map[string]bool{}
	for line := 2; ; line++ {
		row, err := tr.Reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		site := row[h[siteColumn]]
		if site == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("line %d: empty site", line))
		}
		wt := row[h[wildtypeColumn]]
		if len(wt) != 3 || dna.CodonIndex(wt) < 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("line %d: bad wildtype codon %q", line, wt))
		}
		var counts Row
		for i, c := range dna.Codons {
			n, err := strconv.Atoi(row[h[c]])
			if err != nil || n < 0 {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("line %d: bad count %q for %s", line, row[h[c]], c))
			}
			counts[i] = n
		}
		if seen[site] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("line %d: duplicate site %s", line, site))
		}
		seen[site] = true
		t.Sites = append(t.Sites, site)
		t.Wildtype = append(t.Wildtype, wt)
		t.Counts = append(t.Counts, counts)
	}
	return t, nil
}

// ReadFile reads a count table from path; see Read.
func ReadFile(ctx context.Context, path string) (t *Table, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if t, err = Read(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, "read", path)
	}
	return t, nil
}
