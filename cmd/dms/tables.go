package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/dms/codoncounts"
	"v.io/x/lib/cmdline"
)

func newCmdAACounts() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "aacounts",
		Short:    "Convert codon counts to amino-acid counts",
		ArgsName: "codoncounts.tsv out.tsv",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("aacounts takes codoncounts.tsv out.tsv, but got %v", argv)
		}
		return aaCounts(vcontext.Background(), argv[0], argv[1])
	})
	return cmd
}

func aaCounts(ctx context.Context, inPath, outPath string) error {
	t, err := codoncounts.ReadFile(ctx, inPath)
	if err != nil {
		return err
	}
	return codoncounts.ToAACounts(t).WriteFile(ctx, outPath)
}

func newCmdAnnotate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "annotate",
		Short: "Add mutation frequencies and mutation-type counts to codon counts",
		Long: `
The output has the codon-count columns followed by ncounts, mutfreq, nstop,
nsyn, nnonsyn, n1nt, n2nt, n3nt, the twelve single-nucleotide changes (AtoC
through TtoG) and mutfreq1nt, mutfreq2nt, mutfreq3nt.`,
		ArgsName: "codoncounts.tsv out.tsv",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("annotate takes codoncounts.tsv out.tsv, but got %v", argv)
		}
		return annotate(vcontext.Background(), argv[0], argv[1])
	})
	return cmd
}

func annotate(ctx context.Context, inPath, outPath string) error {
	t, err := codoncounts.ReadFile(ctx, inPath)
	if err != nil {
		return err
	}
	return codoncounts.WriteAnnotatedFile(ctx, outPath, t)
}

func newCmdAdjustErrors() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "adjusterrors",
		Short: "Cap error-control counts by the frequencies in a sample",
		Long: `
Each non-wildtype count in errcounts.tsv is capped at the count that the
codon's frequency in codoncounts.tsv predicts at the error control's depth,
plus -maxexcess, rounded half to even. Wildtype counts are unchanged. Both
tables must have the same sites and wildtype codons.`,
		ArgsName: "errcounts.tsv codoncounts.tsv out.tsv",
	}
	maxExcess := cmd.Flags.Int("maxexcess", 1, "Number of error-control counts allowed above the predicted count")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("adjusterrors takes errcounts.tsv codoncounts.tsv out.tsv, but got %v", argv)
		}
		return adjustErrors(vcontext.Background(), *maxExcess, argv[0], argv[1], argv[2])
	})
	return cmd
}

func adjustErrors(ctx context.Context, maxExcess int, errPath, countsPath, outPath string) error {
	errCounts, err := codoncounts.ReadFile(ctx, errPath)
	if err != nil {
		return err
	}
	counts, err := codoncounts.ReadFile(ctx, countsPath)
	if err != nil {
		return err
	}
	adjusted, err := codoncounts.AdjustErrorCounts(errCounts, counts, maxExcess)
	if err != nil {
		return err
	}
	return adjusted.WriteFile(ctx, outPath)
}

func newCmdRenumber() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "renumber",
		Short: "Renumber the sites of a table",
		Long: `
The renumbering file is a TSV table with the columns original and new. Sites
whose new label is empty, None or NaN are removed. The input can be any TSV
table with a site column.`,
		ArgsName: "renumbering.tsv in.tsv out.tsv",
	}
	missing := cmd.Flags.String("missing", "error", "What to do with sites absent from the renumbering: error, skip (keep the original number) or drop")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("renumber takes renumbering.tsv in.tsv out.tsv, but got %v", argv)
		}
		policy, err := codoncounts.ParseMissingPolicy(*missing)
		if err != nil {
			return err
		}
		return renumber(vcontext.Background(), policy, argv[0], argv[1], argv[2])
	})
	return cmd
}

func renumber(ctx context.Context, policy codoncounts.MissingPolicy, renumbPath, inPath, outPath string) error {
	renumb, err := codoncounts.ReadRenumbering(ctx, renumbPath)
	if err != nil {
		return err
	}
	log.Debug.Printf("renumbering %s to %s with %d sites, missing sites: %v", inPath, outPath, len(renumb), policy)
	return codoncounts.RenumberFile(ctx, renumb, inPath, outPath, policy)
}
