package main

import (
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// logTee writes every message its outputter accepts to a log file before
// passing it on. The file is unbuffered so that it survives a killed
// process.
type logTee struct {
	log.Outputter
	file *stdlog.Logger
}

func (t *logTee) Output(calldepth int, level log.Level, s string) error {
	if level <= t.Level() && level != log.Off {
		t.file.Output(calldepth+1, level.String()+" "+s)
	}
	return t.Outputter.Output(calldepth+1, level, s)
}

// teeLog copies the output of the log package to <dir>/<name>.log until the
// returned function is called. The function restores the previous outputter,
// closes the log file and records a close error in *errp if it is nil.
func teeLog(dir, name string) (func(errp *error), error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, errors.E(err, "create output directory", dir)
		}
	}
	path := filepath.Join(dir, name+".log")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, errors.E(err, "create log", path)
	}
	tee := &logTee{
		Outputter: log.GetOutputter(),
		file:      stdlog.New(f, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds|stdlog.Lshortfile),
	}
	log.SetOutputter(tee)
	return func(errp *error) {
		log.SetOutputter(tee.Outputter)
		if err := f.Close(); err != nil && *errp == nil {
			*errp = errors.E(err, "close log", path)
		}
	}, nil
}
