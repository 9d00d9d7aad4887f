package bcsubamp

import (
	"context"
	"io"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Output file suffixes, appended to <OutDir>/<Name>.
const (
	CodonCountsSuffix  = "_codoncounts.tsv"
	ReadStatsSuffix    = "_readstats.tsv"
	BarcodeStatsSuffix = "_bcstats.tsv"
	ReadsPerBCSuffix   = "_readsperbc.tsv"
	BCInfoSuffix       = "_bcinfo.txt.gz"
)

// OutputPath returns the path of the output file with the given suffix.
func (opts *Opts) OutputPath(suffix string) string {
	return filepath.Join(opts.OutDir, opts.Name+suffix)
}

// outputSet tracks the files that a run has created, so that a failed run
// can remove them.
type outputSet struct {
	ctx   context.Context
	paths []string
}

// create creates path and records it. The file appears only when closed.
func (o *outputSet) create(path string) (file.File, error) {
	f, err := file.Create(o.ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	o.paths = append(o.paths, path)
	return f, nil
}

// writeFile creates path and fills it with write.
func (o *outputSet) writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := o.create(path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(o.ctx, f, &err)
	if err = write(f.Writer(o.ctx)); err != nil {
		return errors.E(err, "write", path)
	}
	return nil
}

// removeAll removes every recorded file that exists.
func (o *outputSet) removeAll() {
	for _, path := range o.paths {
		if _, err := file.Stat(o.ctx, path); err != nil {
			continue
		}
		if err := file.Remove(o.ctx, path); err != nil {
			log.Error.Printf("remove %s: %v", path, err)
			continue
		}
		log.Printf("removed %s", path)
	}
	o.paths = nil
}
