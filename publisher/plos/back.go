package plos

import (
	"net/url"
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/transform"
)

const (
	pubMedSearch  = "http://www.ncbi.nlm.nih.gov/entrez/query.fcgi?db=PubMed&cmd=Search&doptcmdl=Citation&defaultField=Title+Word&term="
	scholarSearch = "http://scholar.google.com/scholar?hl=en&safe=off&q="
)

// RenderBackMatter implements publisher.BackMatterRenderer. PLoS back
// matter is presented as acknowledgments, author contributions, glossaries
// and notes, followed by any other back sections and boxed texts.
func (h *Handler) RenderBackMatter(e *transform.Engine, dst *etree.Element, md *publisher.Metadata) {
	doc := e.Doc()
	back := doc.Back()

	if back != nil {
		if ack := back.SelectElement("ack"); ack != nil {
			e.RenderSection(dst, transform.Section{ID: "acknowledgments", Title: "Acknowledgments", Node: ack})
		}
	}
	if con := doc.AuthorNotesOfType("con"); len(con) > 0 {
		e.RenderSection(dst, transform.Section{ID: "author-contributions", Title: "Author Contributions", Node: con[0].Node})
	}
	if back == nil {
		return
	}

	for _, g := range back.SelectElements("glossary") {
		e.RenderSection(dst, transform.Section{
			ID:    "glossary",
			Class: "back-glossary",
			Title: jpts.ChildText(g, "title"),
			Node:  g,
		})
	}
	for _, n := range back.SelectElements("notes") {
		src := n
		if sec := n.SelectElement("sec"); sec != nil {
			src = sec
			e.KeepAnchor(dst, n)
		}
		e.RenderSection(dst, transform.Section{
			ID:    "notes",
			Class: "back-notes",
			Title: jpts.ChildText(src, "title"),
			Node:  src,
		})
	}

	for _, el := range back.ChildElements() {
		switch el.Tag {
		case "sec":
			e.RenderSection(dst, transform.Section{Class: "back-section", Title: sectionTitle(el), Node: el})
		case "app-group":
			renderAppGroup(e, dst, el)
		case "boxed-text":
			e.RenderNode(dst, el)
		}
	}
}

// renderAppGroup renders every appendix as a titled section, so that
// appendices are listed in the navigation map.
func renderAppGroup(e *transform.Engine, dst, group *etree.Element) {
	div := e.Element(dst, "div", group)
	div.CreateAttr("class", "app-group")
	if title := jpts.ChildText(group, "title"); title != "" {
		e.Text(div.CreateElement("h2"), title)
	}
	for _, c := range group.ChildElements() {
		switch c.Tag {
		case "title", "label":
		case "app":
			e.RenderSection(div, transform.Section{Class: "app", Title: sectionTitle(c), Node: c})
		default:
			e.RenderNode(div, c)
		}
	}
}

// sectionTitle joins the label and title of a back section.
func sectionTitle(el *etree.Element) string {
	return strings.TrimSpace(jpts.ChildText(el, "label") + " " + jpts.ChildText(el, "title"))
}

// ReferenceLinks implements publisher.ReferenceLinker: references with an
// article title get PubMed and Google Scholar search links.
func (h *Handler) ReferenceLinks(e *transform.Engine, dst *etree.Element, ref *jpts.Reference) {
	title := ref.FieldText("article-title")
	if title == "" || dst.Parent() == nil {
		return
	}
	p := dst.Parent().CreateElement("p")
	p.CreateAttr("class", "ref-links")

	pubmed := p.CreateElement("a")
	pubmed.CreateAttr("href", PubMedURL(title))
	pubmed.SetText("PubMed/NCBI")
	e.Text(p, " • ")
	scholar := p.CreateElement("a")
	scholar.CreateAttr("href", ScholarURL(title))
	scholar.SetText("Google Scholar")
}

// PubMedURL returns a PubMed title search for title.
func PubMedURL(title string) string {
	return pubMedSearch + url.QueryEscape(title)
}

// ScholarURL returns a Google Scholar phrase search for title.
func ScholarURL(title string) string {
	return scholarSearch + url.QueryEscape(`"`+title+`"`)
}
