package plos

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/transform"
)

// citationAuthors is the number of authors named in the self-citation
// before it falls back to "et al.".
const citationAuthors = 5

// RenderHeading implements publisher.FrontMatterRenderer: the article
// title, the author line and the author affiliations.
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

	renderAuthors(e, div, doc.ContribsOfType("author"))
	renderAffiliations(e, div, md.Affiliations)
}

func renderAuthors(e *transform.Engine, dst *etree.Element, authors []jpts.Contrib) {
	if len(authors) == 0 {
		return
	}
	line := dst.CreateElement("h3")
	line.CreateAttr("class", "authors")
	for i, c := range authors {
		if i > 0 {
			e.Text(line, ", ")
		}
		name, _ := publisher.PersonName(c)
		e.Text(line, name)

		var sup *etree.Element
		for _, x := range c.Xrefs {
			if x.RefType != "aff" && x.RefType != "corresp" {
				continue
			}
			if sup == nil {
				sup = line.CreateElement("sup")
			} else {
				e.Text(sup, ",")
			}
			a := sup.CreateElement("a")
			a.CreateAttr("href", e.LinkTo(x.RID, "contrib"))
			e.Text(a, x.Text)
		}
	}
}

// renderAffiliations lists the author affiliations. Editor affiliations,
// whose ids do not contain "aff", are shown with the editors instead.
func renderAffiliations(e *transform.Engine, dst *etree.Element, affs []jpts.Affiliation) {
	var ul *etree.Element
	for _, aff := range affs {
		if !strings.Contains(aff.ID, "aff") {
			continue
		}
		if ul == nil {
			ul = dst.CreateElement("ul")
			ul.CreateAttr("id", e.Reserve("affiliations"))
			ul.CreateAttr("class", "simple")
		}
		var li *etree.Element
		if src := e.Anchors().Element(aff.ID); src != nil {
			li = e.Element(ul, "li", src)
		} else {
			li = ul.CreateElement("li")
		}
		if aff.Label != "" {
			e.Text(li.CreateElement("b"), aff.Label+" ")
		}
		e.Text(li, aff.Text)
	}
}

// RenderArticleInfo implements publisher.FrontMatterRenderer. The block
// holds the self-citation, editors, dates, copyright, funding, competing
// interests, correspondence and remaining footnotes.
func (h *Handler) RenderArticleInfo(e *transform.Engine, dst *etree.Element, md *publisher.Metadata) {
	doc := e.Doc()
	div := dst.CreateElement("div")
	div.CreateAttr("id", e.Reserve("article-info"))

	cite := labeled(e, div, "article-citation", "Citation: ")
	e.Text(cite, SelfCitation(doc, md))

	renderEditors(e, div, doc.ContribsOfType("editor"), md.Affiliations)
	renderDates(e, div, md.Dates)

	if perm, ok := doc.Permissions(); ok {
		s := "© "
		if perm.Holder != "" {
			s += perm.Holder + ". "
		}
		e.Text(labeled(e, div, "copyright", "Copyright: "), s+perm.License)
	}

	if doc.HasFundingGroup() {
		funding := labeled(e, div, "funding", "Funding: ")
		if st := doc.ArticleMeta().FindElement("./funding-group/funding-statement"); st != nil {
			e.RenderChildren(funding, st)
		}
	}

	if notes := doc.AuthorNotesOfType("conflict"); len(notes) > 0 {
		conflict := labeled(e, div, "conflict", "Competing Interests: ")
		src := notes[0].Node
		e.KeepAnchor(conflict, src)
		if p := src.SelectElement("p"); p != nil {
			src = p
		}
		e.RenderChildrenExcept(conflict, src, "label")
	}

	if corresps := doc.AuthorNotesOfType("corresp"); len(corresps) > 0 {
		cdiv := div.CreateElement("div")
		cdiv.CreateAttr("id", e.Reserve("correspondence"))
		for _, n := range corresps {
			e.RenderChildrenExcept(e.Element(cdiv, "div", n.Node), n.Node, "label")
		}
	}

	renderOtherNotes(e, div, doc)
}

// labeled appends a div with the given id opening with a bold label.
func labeled(e *transform.Engine, dst *etree.Element, id, label string) *etree.Element {
	div := dst.CreateElement("div")
	div.CreateAttr("id", e.Reserve(id))
	e.Text(div.CreateElement("b"), label)
	return div
}

func renderEditors(e *transform.Engine, dst *etree.Element, editors []jpts.Contrib, affs []jpts.Affiliation) {
	if len(editors) == 0 {
		return
	}
	label := "Editor: "
	if len(editors) > 1 {
		label = "Editors: "
	}
	div := labeled(e, dst, "editors", label)
	for i, c := range editors {
		if i > 0 {
			e.Text(div, "; ")
		}
		name, _ := publisher.PersonName(c)
		e.Text(div, name)
		for _, x := range c.Xrefs {
			if x.RefType != "aff" {
				continue
			}
			for _, aff := range affs {
				if aff.ID == x.RID && aff.Text != "" {
					e.Text(div, ", "+aff.Text)
				}
			}
		}
	}
}

func renderDates(e *transform.Engine, dst *etree.Element, d publisher.Dates) {
	var parts []struct {
		label string
		date  jpts.Date
	}
	for _, p := range []struct {
		label string
		date  jpts.Date
	}{
		{"Received: ", d.Received},
		{"Accepted: ", d.Accepted},
		{"Published: ", d.Published},
	} {
		if !p.date.IsZero() {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return
	}
	div := dst.CreateElement("div")
	div.CreateAttr("id", e.Reserve("article-dates"))
	for i, p := range parts {
		e.Text(div.CreateElement("b"), p.label)
		s := publisher.FormatDate(p.date)
		if i < len(parts)-1 {
			s += "; "
		}
		e.Text(div, s)
	}
}

// otherNoteTypes are the author-notes fn-types rendered elsewhere.
var otherNoteTypes = map[string]bool{"conflict": true, "con": true, "corresp": true}

func renderOtherNotes(e *transform.Engine, dst *etree.Element, doc *jpts.Document) {
	var notes []*etree.Element
	for _, n := range doc.AuthorNotes() {
		if !otherNoteTypes[n.FnType] {
			notes = append(notes, n.Node)
		}
	}
	notes = append(notes, doc.BackFootnotes("other")...)
	if len(notes) == 0 {
		return
	}
	div := dst.CreateElement("div")
	div.CreateAttr("class", "back-fn-other")
	for _, fn := range notes {
		e.RenderChildrenExcept(e.Element(div, "div", fn), fn, "label")
	}
}

// SelfCitation returns the recommended citation of the article:
//
//	Smith JA, Doe J (2010) Title. PLoS ONE 5(7): e12345. doi:10.1371/...
//
// At most five authors are named before "et al.".
func SelfCitation(doc *jpts.Document, md *publisher.Metadata) string {
	var b strings.Builder
	for i, c := range doc.ContribsOfType("author") {
		if i > 0 {
			b.WriteString(", ")
		}
		if i == citationAuthors {
			b.WriteString("et al.")
			break
		}
		b.WriteString(citationName(c))
	}

	if year := citationYear(doc, md); year != "" {
		b.WriteString(" (" + year + ") ")
	} else {
		b.WriteString(" ")
	}

	title := jpts.NormalizeSpace(md.Title)
	if title != "" && strings.IndexByte(".?!", title[len(title)-1]) < 0 {
		title += "."
	}
	b.WriteString(title + " ")

	journal := md.JournalID
	if journal == "" {
		journal = md.Journal
	}
	if journal != "" {
		b.WriteString(journal + " ")
	}

	loc := md.Volume
	if md.Issue != "" {
		loc += "(" + md.Issue + ")"
	}
	if md.ELocation != "" {
		if loc != "" {
			loc += ": "
		}
		loc += md.ELocation
	}
	if loc != "" {
		b.WriteString(loc + ". ")
	}
	b.WriteString("doi:" + md.DOI)
	return strings.TrimSpace(b.String())
}

// citationName renders a contributor as "Surname Initials Suffix".
func citationName(c jpts.Contrib) string {
	switch {
	case c.Collab != "":
		return c.Collab
	case c.Anonymous:
		return "Anonymous"
	}
	name := c.Name.Surname
	if in := publisher.Initials(c.Name.GivenNames); in != "" {
		name += " " + in
	}
	if s := strings.TrimSuffix(c.Name.Suffix, "."); s != "" {
		name += " " + s
	}
	return name
}

// citationYear prefers the collection date, then the print date, then the
// publication date.
func citationYear(doc *jpts.Document, md *publisher.Metadata) string {
	d := md.Dates.Collection
	if d.IsZero() {
		d, _ = doc.PubDate("ppub")
	}
	if d.IsZero() {
		d = md.Dates.Published
	}
	if d.IsZero() {
		return ""
	}
	return strconv.Itoa(d.Year)
}
