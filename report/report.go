// Package report aggregates the non-fatal diagnostics produced while
// converting an article, so callers and tests can inspect them after the run.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Kind classifies a warning.
type Kind string

const (
	// UnresolvedCrossReference is recorded when an xref rid matches no anchor.
	UnresolvedCrossReference Kind = "unresolved-cross-reference"

	// MissingOptionalField is recorded when an optional metadata field or
	// substructure is absent or malformed and was omitted from the output.
	MissingOptionalField Kind = "missing-optional-field"

	// ImageNotFound is recorded when the image resolver has no bytes for a
	// graphic reference and a placeholder was rendered instead.
	ImageNotFound Kind = "image-not-found"

	// UnmatchedNode is recorded when no rendering rule matched an element
	// and its children were passed through without the wrapper.
	UnmatchedNode Kind = "unmatched-node"

	// UnknownEntity is recorded when a named entity reference matches no
	// HTML entity and was kept as literal text.
	UnknownEntity Kind = "unknown-entity"

	// SkippedContent is recorded when content was recognised but
	// deliberately left out (unknown abstract types, errata notes).
	SkippedContent Kind = "skipped-content"
)

// Warning is a single non-fatal diagnostic.
type Warning struct {
	Kind     Kind   `json:"kind"`
	Article  string `json:"article,omitempty"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

func (w Warning) String() string {
	if w.Location != "" {
		return fmt.Sprintf("%s: %s [%s]", w.Kind, w.Message, w.Location)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Report collects the warnings of one article conversion. A Report is not
// safe for concurrent use; each pipeline owns its own.
type Report struct {
	article  string
	log      *zap.Logger
	warnings []Warning
}

// New creates an empty report for the article identified by article
// (usually its DOI). A nil logger disables logging.
func New(article string, log *zap.Logger) *Report {
	if log == nil {
		log = zap.NewNop()
	}
	return &Report{article: article, log: log}
}

// Add records a warning and logs it.
func (r *Report) Add(kind Kind, msg, location string) {
	w := Warning{Kind: kind, Article: r.article, Message: msg, Location: location}
	r.warnings = append(r.warnings, w)
	r.log.Warn(msg,
		zap.String("kind", string(kind)),
		zap.String("article", r.article),
		zap.String("location", location))
}

// Warnings returns a copy of the recorded warnings in recording order.
func (r *Report) Warnings() []Warning {
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// Len returns the number of recorded warnings.
func (r *Report) Len() int {
	return len(r.warnings)
}

// Count returns the number of warnings of the given kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, w := range r.warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Append adds warnings recorded by other reports without logging them
// again.
func (r *Report) Append(ws ...Warning) {
	r.warnings = append(r.warnings, ws...)
}

// JSONOutput is the JSON structure written by WriteJSON.
type JSONOutput struct {
	Article  string       `json:"article,omitempty"`
	Warnings []Warning    `json:"warnings"`
	Counts   map[Kind]int `json:"counts"`
}

// WriteJSON writes the report in JSON format to w.
func (r *Report) WriteJSON(w io.Writer) error {
	out := JSONOutput{
		Article:  r.article,
		Warnings: r.warnings,
		Counts:   make(map[Kind]int),
	}
	if out.Warnings == nil {
		out.Warnings = []Warning{}
	}
	for _, wr := range r.warnings {
		out.Counts[wr.Kind]++
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
