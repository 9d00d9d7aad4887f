package codoncounts

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// SiteMask is a set of site labels to retain.
type SiteMask map[string]bool

type siteMaskRow struct {
	Site string `tsv:"site"`
}

// ParseSiteMask reads a TSV table with a header row that has a "site"
// column. Other columns are ignored.
func ParseSiteMask(r io.Reader) (SiteMask, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	tr.Comment = '#'
	mask := SiteMask{}
	for {
		var row siteMaskRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if row.Site == "" {
			return nil, errors.E(errors.Invalid, "empty site in site mask")
		}
		mask[row.Site] = true
	}
	return mask, nil
}

// ReadSiteMask reads a site mask from path; see ParseSiteMask.
func ReadSiteMask(ctx context.Context, path string) (mask SiteMask, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open site mask", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if mask, err = ParseSiteMask(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, "read site mask", path)
	}
	return mask, nil
}

// Mask returns a copy of t that keeps only the sites in mask.
func (t *Table) Mask(mask SiteMask) *Table {
	return t.Filter(func(site string) bool { return mask[site] })
}
