package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>...",
	Short: "Convert every article XML file in directories",
	Long: `Convert every .xml file found directly in the given directories,
one package per article. A failed article does not stop the others; the
command exits with code 3 when some articles failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputs, err := articleFiles(args)
	if err != nil {
		exitWithError(ExitError, "listing articles: %v", err)
	}
	if len(inputs) == 0 {
		exitWithError(ExitError, "no .xml files in %s", strings.Join(args, ", "))
	}

	c, log := mustConverter(cmd)
	defer func() { _ = log.Sync() }()

	ctx, stop := signalContext(cmd)
	defer stop()

	return reportResults(c.ConvertBatch(ctx, inputs))
}

// articleFiles returns the .xml files directly inside dirs, sorted.
func articleFiles(dirs []string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
