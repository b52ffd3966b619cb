// Package frontiers implements the publisher handler for articles of
// Frontiers (DOI prefix 10.3389).
package frontiers

import (
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/report"
	"github.com/simp-lee/oaepub/transform"
)

// Prefix is the DOI registrant prefix of Frontiers.
const Prefix = "10.3389"

// Handler normalizes Frontiers articles.
type Handler struct {
	rep *report.Report
}

var (
	_ publisher.Handler             = (*Handler)(nil)
	_ publisher.FrontMatterRenderer = (*Handler)(nil)
	_ publisher.ImageNamer          = (*Handler)(nil)
)

// New creates a handler reporting to rep. It satisfies publisher.Factory.
func New(rep *report.Report) publisher.Handler {
	if rep == nil {
		rep = report.New("", nil)
	}
	return &Handler{rep: rep}
}

// Name implements publisher.Handler.
func (h *Handler) Name() string { return "frontiers" }

// ExtractMetadata implements publisher.Handler. Frontiers identifies its
// journals by the publisher-id abbreviation ("Front. Psychol.").
func (h *Handler) ExtractMetadata(doc *jpts.Document) (*publisher.Metadata, error) {
	md, err := publisher.ExtractCommon(doc, h.rep)
	if err != nil {
		return nil, err
	}
	md.JournalID = doc.JournalID("publisher-id")
	if md.Journal == "" {
		md.Journal = md.JournalID
	}
	return md, nil
}

// ExtractBody implements publisher.Handler.
func (h *Handler) ExtractBody(doc *jpts.Document) (*transform.Tree, error) {
	t := &transform.Tree{
		Body:       doc.Body(),
		References: doc.References(),
	}
	for _, a := range doc.Abstracts() {
		t.Abstracts = append(t.Abstracts, transform.Section{
			ID:    "abstract",
			Class: "abstract",
			Title: a.Title,
			Node:  a.Node,
		})
	}

	back := doc.Back()
	if back == nil {
		return t, nil
	}
	for _, el := range back.ChildElements() {
		switch el.Tag {
		case "ack":
			t.Back = append(t.Back, transform.Section{ID: "acknowledgments", Title: "Acknowledgments", Node: el})
		case "sec", "app-group", "notes", "glossary":
			t.Back = append(t.Back, transform.Section{Class: "back-" + el.Tag, Title: jpts.ChildText(el, "title"), Node: el})
		case "fn-group":
			t.Back = append(t.Back, transform.Section{Class: "back-fn-group", Title: jpts.ChildText(el, "title"), Node: el})
		case "ref-list", "label", "title":
		default:
			h.rep.Add(report.SkippedContent, "back matter <"+el.Tag+"> omitted", transform.PathID(el))
		}
	}
	return t, nil
}

// FormatCitation implements publisher.Handler. Frontiers references are
// mixed citations whose punctuation is part of the source, so they are
// rendered as given.
func (h *Handler) FormatCitation(ref *jpts.Reference) transform.Branch {
	if ref.Tag == "mixed-citation" {
		return transform.BranchMixed
	}
	return transform.SelectBranch(ref)
}

// ImageName implements publisher.ImageNamer. Frontiers graphic references
// are file names; the extension is dropped.
func (h *Handler) ImageName(doc *jpts.Document, ref string) string {
	name := path.Base(ref)
	name = strings.TrimSuffix(name, path.Ext(name))
	return "images-" + doc.DOISuffix() + "/" + name
}

// RenderHeading implements publisher.FrontMatterRenderer.
func (h *Handler) RenderHeading(e *transform.Engine, dst *etree.Element, md *publisher.Metadata) {
	doc := e.Doc()
	div := dst.CreateElement("div")
	div.CreateAttr("id", e.Reserve("heading"))

	title := div.CreateElement("h1")
	title.CreateAttr("id", e.Reserve("title"))
	title.CreateAttr("class", "article-title")
	if el := doc.TitleElement(); el != nil {
		e.RenderChildren(title, el)
	} else {
		e.Text(title, md.Title)
	}

	if authors := doc.ContribsOfType("author"); len(authors) > 0 {
		line := div.CreateElement("h3")
		line.CreateAttr("class", "authors")
		for i, c := range authors {
			if i > 0 {
				e.Text(line, ", ")
			}
			name, _ := publisher.PersonName(c)
			e.Text(line, name)
			for _, x := range c.Xrefs {
				switch x.RefType {
				case "aff", "author-notes", "corresp":
					a := line.CreateElement("sup").CreateElement("a")
					a.CreateAttr("href", e.LinkTo(x.RID, "contrib"))
					e.Text(a, x.Text)
				}
			}
		}
	}

	for _, aff := range md.Affiliations {
		src := e.Anchors().Element(aff.ID)
		var p *etree.Element
		if src != nil {
			p = e.Element(div, "p", src)
		} else {
			p = div.CreateElement("p")
		}
		p.CreateAttr("class", "affiliation")
		if n := affiliationNumber(aff, src); n != "" {
			e.Text(p.CreateElement("sup"), n)
		}
		if aff.Institution == "" {
			e.Text(p, aff.Text)
			continue
		}
		e.Text(p, aff.Institution)
		if aff.Country != "" {
			e.Text(p, ", "+aff.Country)
		}
	}
}

// affiliationNumber returns the label of an affiliation: its label or sup
// child, or the number in its id ("aff2" -> "2").
func affiliationNumber(aff jpts.Affiliation, src *etree.Element) string {
	if aff.Label != "" {
		return aff.Label
	}
	if src != nil {
		if n := jpts.ChildText(src, "sup"); n != "" {
			return n
		}
	}
	if _, n, ok := strings.Cut(aff.ID, "aff"); ok {
		return n
	}
	return ""
}

// RenderArticleInfo implements publisher.FrontMatterRenderer.
func (h *Handler) RenderArticleInfo(e *transform.Engine, dst *etree.Element, md *publisher.Metadata) {
	doc := e.Doc()
	dst.CreateElement("hr")
	div := dst.CreateElement("div")
	div.CreateAttr("id", e.Reserve("article-info"))

	if len(md.Keywords) > 0 {
		p := para(e, div, "keywords", "Keywords: ")
		e.Text(p, strings.Join(md.Keywords, ", "))
	}

	cite := para(e, div, "article-citation", "Citation: ")
	e.Text(cite, CitationAuthors(doc.ContribsOfType("author")))
	if year := citationYear(md); year != "" {
		e.Text(cite, " ("+year+"). ")
	} else {
		e.Text(cite, " ")
	}
	if el := doc.TitleElement(); el != nil {
		e.RenderChildren(cite, el)
	}
	e.Text(cite, ". ")
	if md.JournalID != "" {
		e.Text(cite.CreateElement("i"), md.JournalID)
		e.Text(cite, " ")
	}
	if md.Volume != "" {
		e.Text(cite.CreateElement("b"), md.Volume)
	}
	if md.ELocation != "" {
		e.Text(cite, ":"+md.ELocation)
	}
	e.Text(cite, ". "+md.DOI)

	renderDates(e, div, md.Dates)

	for _, n := range doc.AuthorNotesOfType("edited-by") {
		text := n.Text
		for _, label := range []string{"Edited by: ", "Reviewed by: "} {
			if rest, ok := strings.CutPrefix(text, label); ok {
				e.Text(para(e, div, "", label), rest)
			}
		}
	}

	if perm, ok := doc.Permissions(); ok {
		p := para(e, div, "copyright", "Copyright: ")
		e.Text(p, strings.TrimSpace(strings.TrimPrefix(perm.Statement, "Copyright"))+" ")
		if lic := perm.LicenseNode; lic != nil {
			for _, lp := range lic.ChildElements() {
				if lp.Tag == "p" || lp.Tag == "license-p" {
					e.RenderChildren(p, lp)
				}
			}
		}
	}

	for _, n := range doc.AuthorNotes() {
		if n.FnType == "corresp" {
			renderCorrespondence(e, div, n.Node)
		}
	}
}

// para appends a paragraph opening with a bold label. An empty id leaves
// the paragraph unanchored.
func para(e *transform.Engine, dst *etree.Element, id, label string) *etree.Element {
	p := dst.CreateElement("p")
	if id != "" {
		p.CreateAttr("id", e.Reserve(id))
	}
	e.Text(p.CreateElement("b"), label)
	return p
}

func renderDates(e *transform.Engine, dst *etree.Element, d publisher.Dates) {
	var parts []string
	var labels []string
	for _, p := range []struct {
		label string
		date  jpts.Date
	}{
		{"Received: ", d.Received},
		{"Paper pending published: ", d.EPreprint},
		{"Accepted: ", d.Accepted},
		{"Published online: ", d.Published},
	} {
		if !p.date.IsZero() {
			labels = append(labels, p.label)
			parts = append(parts, publisher.FormatDayFirst(p.date))
		}
	}
	if len(parts) == 0 {
		return
	}
	p := dst.CreateElement("p")
	p.CreateAttr("id", e.Reserve("article-dates"))
	for i := range parts {
		sep := "; "
		if i == len(parts)-1 {
			sep = "."
		}
		e.Text(p.CreateElement("b"), labels[i])
		e.Text(p, parts[i]+sep)
	}
}

// renderCorrespondence writes a correspondence note. The marker character
// that opens the note ("*") moves into the bold label.
func renderCorrespondence(e *transform.Engine, dst, src *etree.Element) {
	p := e.Element(dst, "p", src)
	b := p.CreateElement("b")
	body := src
	if inner := src.SelectElement("p"); inner != nil {
		body = inner
	}
	marker := ""
	first := true
	for _, tok := range body.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			s := t.Data
			if first {
				marker, s = splitMarker(s)
				first = false
			}
			e.Text(p, s)
		case *etree.Element:
			first = false
			if t.Tag != "label" {
				e.RenderNode(p, t)
			}
		}
	}
	e.Text(b, marker+"Correspondence: ")
}

// splitMarker separates a leading footnote marker and a "Correspondence:"
// prefix from s.
func splitMarker(s string) (marker, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	if r, size := utf8.DecodeRuneInString(s); size > 0 && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		marker, s = s[:size], s[size:]
	}
	if after, ok := strings.CutPrefix(s, "Correspondence:"); ok {
		s = strings.TrimLeftFunc(after, unicode.IsSpace)
	}
	return marker, s
}

// CitationAuthors renders the author part of the recommended citation:
// "Surname, G." for one author, two joined by ", and ", and the first
// author followed by ", et al." for more.
func CitationAuthors(authors []jpts.Contrib) string {
	switch len(authors) {
	case 0:
		return "Anonymous."
	case 1:
		return citationName(authors[0])
	case 2:
		return citationName(authors[0]) + ", and " + citationName(authors[1])
	default:
		return citationName(authors[0]) + ", et al."
	}
}

func citationName(c jpts.Contrib) string {
	switch {
	case c.Collab != "":
		return c.Collab
	case c.Anonymous:
		return "Anonymous."
	}
	r, size := utf8.DecodeRuneInString(strings.TrimSpace(c.Name.GivenNames))
	if size == 0 {
		return c.Name.Surname
	}
	return c.Name.Surname + ", " + string(r) + "."
}

func citationYear(md *publisher.Metadata) string {
	if md.Dates.Published.IsZero() {
		return ""
	}
	return strconv.Itoa(md.Dates.Published.Year)
}
