package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/simp-lee/oaepub"
)

func init() {
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <article.xml>...",
	Short: "Convert articles, one package per article",
	Long: `Convert each article into {output}/{DOI suffix}.epub.

Images are looked up in the --images patterns, then in images-{DOI suffix}
and in the directory of the article. Missing images are reported as
warnings and do not fail the conversion.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

// signalContext returns a context canceled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func runConvert(cmd *cobra.Command, args []string) error {
	c, log := mustConverter(cmd)
	defer func() { _ = log.Sync() }()

	ctx, stop := signalContext(cmd)
	defer stop()

	var results []oaepub.Result
	if len(args) == 1 {
		res, _ := c.ConvertFile(ctx, args[0])
		results = []oaepub.Result{*res}
	} else {
		results = c.ConvertBatch(ctx, args)
	}
	return reportResults(results)
}

// reportResults prints results and exits with ExitDataError when some of
// them failed, or ExitError when all of them did.
func reportResults(results []oaepub.Result) error {
	mustWriteWarnings(results)
	if jsonOutput {
		resp := make([]ResultResponse, len(results))
		for i, r := range results {
			resp[i] = resultResponse(r)
		}
		if err := outputJSON(resp); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printResult(r)
		}
	}

	switch failed := len(oaepub.Failed(results)); {
	case failed == 0:
		return nil
	case failed == len(results):
		os.Exit(ExitError)
	default:
		os.Exit(ExitDataError)
	}
	return nil
}
