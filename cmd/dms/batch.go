package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/dms/bcsubamp"
)

// sample is one row of a batch file.
type sample struct {
	name   string
	r1, r2 []string
}

// parseBatch reads a batch file: a TSV table with the columns name and R1,
// and optionally R2. Other columns are ignored.
func parseBatch(in io.Reader) ([]sample, error) {
	r := tsv.NewReader(in)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	header, err := r.Reader.Read()
	if err == io.EOF {
		return nil, errors.E(errors.Invalid, "empty batch file")
	}
	if err != nil {
		return nil, err
	}
	cols := map[string]int{"R2": -1}
	for i, name := range header {
		if _, ok := cols[name]; ok && cols[name] >= 0 {
			return nil, errors.E(errors.Invalid, "duplicate column", name)
		}
		cols[name] = i
	}
	for _, name := range []string{"name", "R1"} {
		if _, ok := cols[name]; !ok {
			return nil, errors.E(errors.Invalid, "batch file has no column", name)
		}
	}
	var samples []sample
	seen := map[string]bool{}
	for line := 2; ; line++ {
		rec, err := r.Reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != len(header) {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("line %d: %d fields, expected %d", line, len(rec), len(header)))
		}
		s := sample{
			name: strings.TrimSpace(rec[cols["name"]]),
			r1:   splitList(rec[cols["R1"]], ";"),
		}
		if i := cols["R2"]; i >= 0 {
			s.r2 = splitList(rec[i], ";")
		}
		if s.name == "" || len(s.r1) == 0 {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("line %d: name and R1 are required", line))
		}
		if seen[s.name] {
			return nil, errors.E(errors.Invalid, "duplicate sample name", s.name)
		}
		seen[s.name] = true
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, errors.E(errors.Invalid, "batch file lists no samples")
	}
	return samples, nil
}

func readBatch(ctx context.Context, path string) (samples []sample, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	if samples, err = parseBatch(in.Reader(ctx)); err != nil {
		return nil, errors.E(err, "read", path)
	}
	return samples, nil
}

// runBatch processes every sample in the batch file with the shared
// settings in base. Samples are split evenly among parallelism jobs. A
// failed sample does not stop the others; the returned error lists every
// failed sample.
func runBatch(ctx context.Context, base bcsubamp.Opts, batchPath string, parallelism int) (err error) {
	samples, err := readBatch(ctx, batchPath)
	if err != nil {
		return err
	}
	opts := make([]bcsubamp.Opts, len(samples))
	for i, s := range samples {
		opts[i] = base
		opts[i].Name, opts[i].R1, opts[i].R2 = s.name, s.r1, s.r2
		if err := opts[i].Validate(); err != nil {
			return errors.E(errors.Invalid, err, "sample", s.name)
		}
	}

	logName := strings.TrimSuffix(filepath.Base(batchPath), filepath.Ext(batchPath))
	closeLog, err := teeLog(base.OutDir, logName)
	if err != nil {
		return err
	}
	defer closeLog(&err)

	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(opts) {
		parallelism = len(opts)
	}
	log.Printf("processing %d samples from %s with %d jobs", len(opts), batchPath, parallelism)
	logOpts(&opts[0])
	results := make([]bcsubamp.Result, len(opts))
	err = traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(opts)) / parallelism
		endIdx := ((jobIdx + 1) * len(opts)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			results[i] = bcsubamp.Run(ctx, opts[i])
		}
		return nil
	})
	if err != nil {
		return err
	}

	var failed []string
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Name)
			continue
		}
		s := res.BarcodeStats
		log.Printf("%s: %d reads, %d barcodes, %d aligned", res.Name, res.ReadStats.Total, s.Total, s.Aligned)
	}
	if len(failed) > 0 {
		return errors.E(fmt.Sprintf("%d of %d samples failed: %s", len(failed), len(results), strings.Join(failed, ", ")))
	}
	return nil
}
