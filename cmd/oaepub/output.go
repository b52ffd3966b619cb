package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/simp-lee/oaepub"
	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/report"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if jsonOutput {
		_ = outputJSON(ErrorResponse{Error: msg})
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	os.Exit(code)
}

// ErrorResponse is written in JSON mode when a command fails.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ResultResponse is the JSON form of one converted article.
type ResultResponse struct {
	oaepub.Result
	Error string `json:"error,omitempty"`
}

func resultResponse(r oaepub.Result) ResultResponse {
	resp := ResultResponse{Result: r}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

// CollectionResponse is the JSON form of a collection.
type CollectionResponse struct {
	Output   string           `json:"output,omitempty"`
	ID       string           `json:"id,omitempty"`
	Articles []ResultResponse `json:"articles"`
	Issues   []epub.Issue     `json:"issues,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// CheckResponse is the JSON form of a checked package.
type CheckResponse struct {
	File   string       `json:"file"`
	Valid  bool         `json:"valid"`
	Issues []epub.Issue `json:"issues"`
	Error  string       `json:"error,omitempty"`
}

// printResult writes one result in human form.
func printResult(r oaepub.Result) {
	if r.Err != nil {
		outputHuman("FAIL %s: %v\n", r.Input, r.Err)
		return
	}
	outputHuman("OK   %s -> %s\n", r.Input, r.Output)
	if len(r.Warnings) > 0 {
		outputHuman("     %d warning(s)\n", len(r.Warnings))
	}
	printIssues(r.Issues)
}

func printIssues(issues []epub.Issue) {
	for _, i := range issues {
		outputHuman("     %s\n", i)
	}
}

// writeWarnings writes the warnings of every result as one JSON report.
func writeWarnings(name string, results []oaepub.Result) error {
	rep := report.New("", nil)
	for _, r := range results {
		rep.Append(r.Warnings...)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := rep.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// mustWriteWarnings runs writeWarnings when --report-json is set.
func mustWriteWarnings(results []oaepub.Result) {
	if reportJSON == "" {
		return
	}
	if err := writeWarnings(reportJSON, results); err != nil {
		exitWithError(ExitError, "writing warning report: %v", err)
	}
}
