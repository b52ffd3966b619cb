package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/simp-lee/oaepub/epub"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <book.epub>...",
	Short: "Check the structure of ePub packages",
	Long: `Check ePub 2 packages: the mimetype entry, the container, the
manifest and spine, the NCX and its navigation targets, referenced images,
and encryption. Exits with code 3 when a package has errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	var responses []CheckResponse
	failed := false
	for _, name := range args {
		issues, err := epub.Check(name)
		resp := CheckResponse{File: name, Issues: issues, Valid: err == nil && !epub.HasErrors(issues)}
		if err != nil {
			resp.Error = err.Error()
		}
		if resp.Issues == nil {
			resp.Issues = []epub.Issue{}
		}
		failed = failed || !resp.Valid
		responses = append(responses, resp)
	}

	if jsonOutput {
		if err := outputJSON(responses); err != nil {
			return err
		}
	} else {
		for _, r := range responses {
			switch {
			case r.Error != "":
				outputHuman("FAIL %s: %s\n", r.File, r.Error)
			case r.Valid:
				outputHuman("OK   %s\n", r.File)
			default:
				outputHuman("FAIL %s\n", r.File)
			}
			printIssues(r.Issues)
		}
	}

	if failed {
		os.Exit(ExitDataError)
	}
	return nil
}
