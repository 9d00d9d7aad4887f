package codoncounts

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// MissingPolicy says what Renumber does with a site that the renumbering
// does not mention.
type MissingPolicy int

const (
	// MissingError fails the renumbering.
	MissingError MissingPolicy = iota
	// MissingSkip keeps the site under its original number.
	MissingSkip
	// MissingDrop removes the site.
	MissingDrop
)

// ParseMissingPolicy parses "error", "skip" or "drop".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch s {
	case "error":
		return MissingError, nil
	case "skip":
		return MissingSkip, nil
	case "drop":
		return MissingDrop, nil
	}
	return 0, errors.E(errors.Invalid, fmt.Sprintf("invalid missing-site policy %q, want error, skip or drop", s))
}

// String implements fmt.Stringer.
func (p MissingPolicy) String() string {
	switch p {
	case MissingSkip:
		return "skip"
	case MissingDrop:
		return "drop"
	}
	return "error"
}

// Renumbering maps original site labels to new ones. A site mapped to ""
// is dropped.
type Renumbering map[string]string

type renumberingRow struct {
	Original string `tsv:"original"`
	New      string `tsv:"new"`
}

// dropLabels are the values of the "new" column that remove a site.
var dropLabels = map[string]bool{"": true, "None": true, "nan": true, "NaN": true}

// ParseRenumbering reads a TSV table with columns "original" and "new".
// Neither column may repeat a value, except that any number of sites may be
// dropped by a new label of "", None or NaN.
func ParseRenumbering(r io.Reader) (Renumbering, error) {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	tr.Comment = '#'
	renumb := Renumbering{}
	seen := map[string]bool{}
	for {
		var row renumberingRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if _, ok := renumb[row.Original]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("duplicate original site %s", row.Original))
		}
		if dropLabels[row.New] {
			row.New = ""
		} else if seen[row.New] {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("duplicate new site %s", row.New))
		}
		seen[row.New] = true
		renumb[row.Original] = row.New
	}
	return renumb, nil
}

// Renumber copies the TSV table in to out, relabeling its "site" column
// through renumb. Sites mapped to "" are dropped; sites absent from renumb
// are handled according to missing.
func Renumber(in io.Reader, out io.Writer, renumb Renumbering, missing MissingPolicy) error {
	tr := tsv.NewReader(in)
	tr.Comment = '#'
	h, err := readHeader(tr)
	if err != nil {
		return err
	}
	if err = h.require(siteColumn); err != nil {
		return err
	}
	siteCol := h[siteColumn]
	tw := tsv.NewWriter(out)
	writeRow := func(row []string) error {
		for _, f := range row {
			tw.WriteString(f)
		}
		return tw.EndLine()
	}
	header := make([]string, len(h))
	for name, i := range h {
		header[i] = name
	}
	if err = writeRow(header); err != nil {
		return err
	}
	for {
		row, err := tr.Reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		site := row[siteCol]
		newSite, ok := renumb[site]
		if !ok {
			switch missing {
			case MissingError:
				return errors.E(errors.Invalid, fmt.Sprintf("site %s is not in the renumbering", site))
			case MissingDrop:
				continue
			}
			newSite = site
		}
		if newSite == "" {
			continue
		}
		row[siteCol] = newSite
		if err = writeRow(row); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// ReadRenumbering reads a renumbering from path; see ParseRenumbering.
func ReadRenumbering(ctx context.Context, path string) (renumb Renumbering, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open renumbering", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	if renumb, err = ParseRenumbering(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, "read renumbering", path)
	}
	return renumb, nil
}

// RenumberFile renumbers the table at inPath into outPath.
func RenumberFile(ctx context.Context, renumb Renumbering, inPath, outPath string, missing MissingPolicy) (err error) {
	if inPath == outPath {
		return errors.E(errors.Invalid, "input and output are the same file", inPath)
	}
	in, err := file.Open(ctx, inPath)
	if err != nil {
		return errors.E(err, "open", inPath)
	}
	defer file.CloseAndReport(ctx, in, &err)
	out, err := file.Create(ctx, outPath)
	if err != nil {
		return errors.E(err, "create", outPath)
	}
	defer file.CloseAndReport(ctx, out, &err)
	if err = Renumber(in.Reader(ctx), out.Writer(ctx), renumb, missing); err != nil {
		return errors.E(err, "renumber", inPath)
	}
	return nil
}
