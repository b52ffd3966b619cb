package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/simp-lee/oaepub"
)

var (
	collectionName  string
	collectionOrder string
)

func init() {
	collectionCmd.Flags().StringVar(&collectionName, "name", "", "Collection title (default \"Article Collection\")")
	collectionCmd.Flags().StringVar(&collectionOrder, "order", "", "File listing the articles in reading order")
	rootCmd.AddCommand(collectionCmd)
}

var collectionCmd = &cobra.Command{
	Use:   "collection [article.xml...]",
	Short: "Combine articles into one package",
	Long: `Combine articles into a single package named after the slug of
--name. With --order, the articles and their reading order come from the
order file, one path per line; otherwise the arguments are read in
alphabetical order. Articles that cannot be converted are skipped.`,
	RunE: runCollection,
}

func runCollection(cmd *cobra.Command, args []string) error {
	if collectionOrder == "" && len(args) == 0 {
		return errors.New("collection needs articles or --order")
	}

	c, log := mustConverter(cmd)
	defer func() { _ = log.Sync() }()

	ctx, stop := signalContext(cmd)
	defer stop()

	res, err := c.ConvertCollection(ctx, args, oaepub.CollectionOptions{
		Name:      collectionName,
		OrderFile: collectionOrder,
	})

	mustWriteWarnings(res.Articles)

	if jsonOutput {
		resp := CollectionResponse{Output: res.Output, ID: res.ID, Issues: res.Issues}
		for _, r := range res.Articles {
			resp.Articles = append(resp.Articles, resultResponse(r))
		}
		if err != nil {
			resp.Error = err.Error()
		}
		if jerr := outputJSON(resp); jerr != nil {
			return jerr
		}
	} else {
		for _, r := range res.Articles {
			printResult(r)
		}
		if err == nil {
			outputHuman("Collection %s (%s)\n", res.Output, res.ID)
			printIssues(res.Issues)
		}
	}

	if err != nil {
		exitWithError(ExitError, "collection: %v", err)
	}
	if len(oaepub.Failed(res.Articles)) > 0 {
		os.Exit(ExitDataError)
	}
	return nil
}
