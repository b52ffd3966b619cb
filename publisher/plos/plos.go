// Package plos implements the publisher handler for articles of the Public
// Library of Science (DOI prefix 10.1371).
package plos

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/report"
	"github.com/simp-lee/oaepub/transform"
)

// Prefix is the DOI registrant prefix of PLoS.
const Prefix = "10.1371"

// journalURLs maps a PLoS subjournal code, the second component of the DOI
// suffix, to the article base URL of its web site.
var journalURLs = map[string]string{
	"pgen": "http://www.plosgenetics.org/article/",
	"pcbi": "http://www.ploscompbiol.org/article/",
	"ppat": "http://www.plospathogens.org/article/",
	"pntd": "http://www.plosntds.org/article/",
	"pmed": "http://www.plosmedicine.org/article/",
	"pbio": "http://www.plosbiology.org/article/",
	"pone": "http://www.plosone.org/article/",
	"pctr": "http://clinicaltrials.ploshubs.org/article/",
}

// Handler normalizes PLoS articles.
type Handler struct {
	rep *report.Report
}

var (
	_ publisher.Handler             = (*Handler)(nil)
	_ publisher.FrontMatterRenderer = (*Handler)(nil)
	_ publisher.BackMatterRenderer  = (*Handler)(nil)
	_ publisher.RuleProvider        = (*Handler)(nil)
	_ publisher.ImageNamer          = (*Handler)(nil)
	_ publisher.ReferenceLinker     = (*Handler)(nil)
)

// New creates a handler reporting to rep. It satisfies publisher.Factory.
func New(rep *report.Report) publisher.Handler {
	if rep == nil {
		rep = report.New("", nil)
	}
	return &Handler{rep: rep}
}

// Name implements publisher.Handler.
func (h *Handler) Name() string { return "plos" }

// ExtractMetadata implements publisher.Handler. The journal is identified by
// its NLM title abbreviation.
func (h *Handler) ExtractMetadata(doc *jpts.Document) (*publisher.Metadata, error) {
	md, err := publisher.ExtractCommon(doc, h.rep)
	if err != nil {
		return nil, err
	}
	md.JournalID = doc.JournalID("nlm-ta")
	if md.Publisher == "" {
		md.Publisher = "Public Library of Science"
	}
	if md.Rights == "" {
		if perm, ok := doc.Permissions(); ok && perm.Holder != "" {
			md.Rights = "© " + perm.Holder
		}
	}
	return md, nil
}

// ExtractBody implements publisher.Handler. Back matter other than the
// reference list is written by RenderBackMatter.
func (h *Handler) ExtractBody(doc *jpts.Document) (*transform.Tree, error) {
	return &transform.Tree{
		Abstracts:  h.abstracts(doc),
		Body:       doc.Body(),
		References: doc.References(),
	}, nil
}

// abstractKinds maps abstract-type to the heading and anchor of the
// rendered abstract.
var abstractKinds = map[string]struct{ title, id string }{
	"":                {"Abstract", "abstract"},
	"summary":         {"Author Summary", "author-summary"},
	"editors-summary": {"Editors' Summary", "editor-summary"},
	"synopsis":        {"Synopsis", "synopsis"},
}

func (h *Handler) abstracts(doc *jpts.Document) []transform.Section {
	var out []transform.Section
	for _, a := range doc.Abstracts() {
		if kind, ok := abstractKinds[a.Type]; ok {
			out = append(out, transform.Section{ID: kind.id, Class: "abstract", Title: kind.title, Node: a.Node})
			continue
		}
		switch a.Type {
		case "alternate":
			// Untitled alternates have nothing to distinguish them from
			// the main abstract.
			if a.Title != "" {
				out = append(out, transform.Section{ID: "alternate", Class: "abstract", Title: a.Title, Node: a.Node})
			}
		case "toc":
		default:
			h.rep.Add(report.SkippedContent, "no handling for abstract-type "+a.Type, "abstract")
		}
	}
	return out
}

// FormatCitation implements publisher.Handler.
func (h *Handler) FormatCitation(ref *jpts.Reference) transform.Branch {
	return transform.SelectBranch(ref)
}

// Rules implements publisher.RuleProvider. Supplementary material links
// to the file served by the PLoS journal site.
func (h *Handler) Rules() []transform.Rule {
	return []transform.Rule{{
		Name: "plos-supplementary-material",
		Tag:  "supplementary-material",
		Render: func(e *transform.Engine, dst, src *etree.Element) {
			transform.RenderSupplementary(e, dst, src, SupplementaryURL(e.Doc().DOI(), jpts.Href(src)))
		},
	}}
}

// SupplementaryURL returns the address of a supplementary file on the
// site of the subjournal that published doi, or "" for an unknown
// subjournal.
func SupplementaryURL(doi, href string) string {
	if href == "" {
		return ""
	}
	base, ok := journalURLs[Subjournal(doi)]
	if !ok {
		return ""
	}
	return base + "fetchSingleRepresentation.action?uri=" + href
}

// Subjournal returns the subjournal code of a PLoS DOI
// ("10.1371/journal.pone.0012345" -> "pone").
func Subjournal(doi string) string {
	_, suffix, _ := strings.Cut(doi, "/")
	parts := strings.Split(suffix, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// ImageName implements publisher.ImageNamer. Graphics are stored as
// images-{doiSuffix}/{last dotted component of the reference}.
func (h *Handler) ImageName(doc *jpts.Document, ref string) string {
	name := ref
	if i := strings.LastIndex(ref, "."); i >= 0 {
		name = ref[i+1:]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return "images-" + doc.DOISuffix() + "/" + name
}
