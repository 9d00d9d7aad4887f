// dms counts codon identities in barcoded-subamplicon deep mutational
// scanning data and transforms the resulting count tables.
//
//   dms bcsubamp -name sample -refseq wt.fasta -alignspecs "1,285,38,40 286,567,33,34" -R1 sample_R1.fastq.gz
//   dms bcsubamp -batch samples.tsv -refseq wt.fasta -alignspecs ... -outdir counts
//   dms aacounts counts/sample_codoncounts.tsv sample_aacounts.tsv
//   dms annotate counts/sample_codoncounts.tsv sample_annotated.tsv
//   dms adjusterrors -maxexcess 1 wt_codoncounts.tsv sample_codoncounts.tsv adjusted.tsv
//   dms renumber -missing drop renumbering.tsv in.tsv out.tsv
package main

import (
	stdlog "log"
	"os"

	"github.com/grailbio/base/grail"
	"v.io/x/lib/cmdline"
)

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "dms",
		Short:    "Tools for barcoded-subamplicon deep mutational scanning",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdBCSubamp(),
			newCmdAACounts(),
			newCmdAnnotate(),
			newCmdAdjustErrors(),
			newCmdRenumber(),
		},
	}
}

func main() {
	stdlog.SetFlags(stdlog.Ldate | stdlog.Ltime | stdlog.Lmicroseconds | stdlog.Lshortfile)
	shutdown := grail.Init()
	cmdline.HideGlobalFlagsExcept()
	err := cmdline.ParseAndRun(newCmdRoot(), cmdline.EnvFromOS(), os.Args[1:])
	shutdown()
	if err != nil {
		os.Exit(cmdline.ExitCode(err, os.Stderr))
	}
}
