// Package publisher defines the contract between the conversion pipeline and
// the publisher-specific code that normalizes an article's metadata and
// content.
//
// Every publisher implements [Handler]. Handlers may also implement the
// optional capability interfaces in this package ([FrontMatterRenderer],
// [BackMatterRenderer], [RuleProvider], [ImageNamer], [ReferenceLinker]);
// the pipeline discovers them with type assertions.
package publisher

import (
	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/report"
	"github.com/simp-lee/oaepub/transform"
)

// Handler bridges the generic document model to the normalized article
// shape of one publisher.
type Handler interface {
	// Name is a short identifier such as "plos".
	Name() string

	// ExtractMetadata returns the normalized metadata. A missing title or
	// DOI yields a *MalformedArticleError; missing optional fields are left
	// empty.
	ExtractMetadata(doc *jpts.Document) (*Metadata, error)

	// ExtractBody returns the content tree in document order.
	ExtractBody(doc *jpts.Document) (*transform.Tree, error)

	// FormatCitation selects the citation branch of a reference.
	FormatCitation(ref *jpts.Reference) transform.Branch
}

// Factory creates a handler for one article. Warnings raised by the handler
// go to rep.
type Factory func(rep *report.Report) Handler

// FrontMatterRenderer writes the article heading and the article
// information block of the main document.
type FrontMatterRenderer interface {
	RenderHeading(e *transform.Engine, dst *etree.Element, md *Metadata)
	RenderArticleInfo(e *transform.Engine, dst *etree.Element, md *Metadata)
}

// BackMatterRenderer writes publisher-specific back matter before the
// generic back sections.
type BackMatterRenderer interface {
	RenderBackMatter(e *transform.Engine, dst *etree.Element, md *Metadata)
}

// RuleProvider supplies rendering rules layered after the defaults.
type RuleProvider interface {
	Rules() []transform.Rule
}

// ImageNamer maps a graphic reference to its path inside the package,
// without extension.
type ImageNamer interface {
	ImageName(doc *jpts.Document, ref string) string
}

// ReferenceLinker decorates bibliography entries with external links.
type ReferenceLinker interface {
	ReferenceLinks(e *transform.Engine, dst *etree.Element, ref *jpts.Reference)
}
