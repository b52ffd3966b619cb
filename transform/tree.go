package transform

import (
	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
)

// DocKind identifies one of the XHTML documents generated for an article.
type DocKind int

const (
	// DocMain is the article text: heading, abstracts, body and back matter.
	DocMain DocKind = iota

	// DocBiblio is the bibliography document.
	DocBiblio

	// DocTables is the non-linear document holding HTML versions of tables
	// that are shown as images in the main text.
	DocTables
)

// Files names the generated documents of one article, relative to the OPF.
type Files struct {
	Main   string
	Biblio string
	Tables string
}

// FilesFor returns the conventional document names for an article whose
// DOI fragment is frag ("journal-pone-0012345").
func FilesFor(frag string) Files {
	return Files{
		Main:   "main." + frag + ".xhtml",
		Biblio: "biblio." + frag + ".xhtml",
		Tables: "tables." + frag + ".xhtml",
	}
}

// Name returns the file name of the given document kind.
func (f Files) Name(k DocKind) string {
	switch k {
	case DocBiblio:
		return f.Biblio
	case DocTables:
		return f.Tables
	default:
		return f.Main
	}
}

// Section is a titled block of the content tree outside the body, such as
// an abstract or an acknowledgments block.
type Section struct {
	// ID is the anchor of the wrapping div. It is made unique on render.
	// When empty, the anchor assigned to Node is used.
	ID string

	// Class is the CSS class of the wrapping div.
	Class string

	// Title is rendered as an h2 heading when non-empty.
	Title string

	// Node supplies the content. Its title and label children are skipped,
	// every other child is rendered in order.
	Node *etree.Element
}

// Tree is the ordered content an article contributes to its documents. It
// is produced by a publisher handler and consumed by [Engine.Render].
//
// The main document is written in field order: Heading, Abstracts,
// ArticleInfo, Body, BackMatter, Back.
type Tree struct {
	Heading     Hook
	Abstracts   []Section
	ArticleInfo Hook
	Body        *etree.Element
	BackMatter  Hook
	Back        []Section
	References  []*jpts.Reference
}

// Heading is an entry of the article outline.
type Heading struct {
	ID       string
	Title    string
	Href     string
	Children []Heading
}

// Target is a figure or table listed in the navigation lists.
type Target struct {
	ID    string
	Label string
	Href  string
}

// Result holds the rendered documents and the navigation data extracted
// while rendering.
type Result struct {
	Files  Files
	Main   *etree.Document
	Biblio *etree.Document
	Tables *etree.Document

	// Outline is the section hierarchy of the body. Front and Back list the
	// titled blocks before and after it, such as abstracts and
	// acknowledgments.
	Outline   []Heading
	Front     []Heading
	Back      []Heading
	Figures   []Target
	TableList []Target

	// References is true when the bibliography document has entries.
	References bool

	// HasTables is true when at least one table was moved to the tables document.
	HasTables bool
}

// Body returns the <body> element of the given document.
func (r *Result) Body(k DocKind) *etree.Element {
	var doc *etree.Document
	switch k {
	case DocBiblio:
		doc = r.Biblio
	case DocTables:
		doc = r.Tables
	default:
		doc = r.Main
	}
	if doc == nil || doc.Root() == nil {
		return nil
	}
	return doc.Root().SelectElement("body")
}
