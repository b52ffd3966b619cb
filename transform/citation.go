package transform

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
)

// Branch selects how a reference citation is rendered.
type Branch int

const (
	// BranchJournal renders journal articles and untyped citations.
	BranchJournal Branch = iota

	// BranchBookChapter renders a chapter in an edited book.
	BranchBookChapter

	// BranchBookAuthored renders a book credited to authors or compilers.
	BranchBookAuthored

	// BranchBookGeneral renders any other non-journal publication.
	BranchBookGeneral

	// BranchLegacy renders a pre-3.0 nlm-citation.
	BranchLegacy

	// BranchMixed renders a mixed-citation as the publisher punctuated it.
	BranchMixed
)

var branchNames = [...]string{"journal", "book-chapter", "book-authored", "book-general", "legacy", "mixed"}

func (b Branch) String() string {
	if int(b) < len(branchNames) {
		return branchNames[b]
	}
	return "unknown"
}

// SelectBranch picks the citation branch of ref from its structure.
func SelectBranch(ref *jpts.Reference) Branch {
	if ref.Legacy() {
		return BranchLegacy
	}
	switch ref.PublicationType {
	case "", "journal":
		return BranchJournal
	}

	groups := ref.PersonGroups()
	if len(groups)+len(ref.Collabs()) > 0 && hasNonAuthorGroup(groups) && ref.Field("article-title") != nil {
		return BranchBookChapter
	}
	if ref.PersonGroup("author") != nil || ref.PersonGroup("compiler") != nil {
		return BranchBookAuthored
	}
	return BranchBookGeneral
}

func hasNonAuthorGroup(groups []*etree.Element) bool {
	for _, g := range groups {
		if a := g.SelectAttr("person-group-type"); a != nil && a.Value != "author" {
			return true
		}
	}
	return false
}

// suppressedComments are comment prefixes that duplicate information the
// citation already shows.
var suppressedComments = []string{"p.", "In:", "pp."}

// citation accumulates the rendering of one reference into dst.
type citation struct {
	e   *Engine
	dst *etree.Element
	ref *jpts.Reference
}

// RenderCitation writes the citation of ref into dst using branch b.
func (e *Engine) RenderCitation(dst *etree.Element, ref *jpts.Reference, b Branch) {
	if ref.Citation == nil {
		e.RenderChildrenExcept(dst, ref.Node, "label")
		return
	}
	c := &citation{e: e, dst: dst, ref: ref}
	switch b {
	case BranchMixed:
		c.mixed(ref.Citation)
		return
	case BranchBookChapter:
		c.bookChapter()
	case BranchBookAuthored:
		c.book()
	case BranchBookGeneral:
		c.general()
	case BranchLegacy:
		c.legacy()
	default:
		c.journal()
	}
	c.finish()
}

func (c *citation) text(s string) {
	c.e.Text(c.dst, s)
}

// field renders the inline content of the citation child named tag and
// reports whether it was present.
func (c *citation) field(tag string) bool {
	el := c.ref.Field(tag)
	if el == nil || jpts.TextOf(el) == "" {
		return false
	}
	c.e.RenderChildren(c.dst, el)
	return true
}

// sentence renders a field and terminates it with a period.
func (c *citation) sentence(tag string) bool {
	el := c.ref.Field(tag)
	if el == nil || jpts.TextOf(el) == "" {
		return false
	}
	c.sentenceOf(el)
	return true
}

func (c *citation) sentenceOf(el *etree.Element) {
	c.e.RenderChildren(c.dst, el)
	if !endsSentence(jpts.TextOf(el)) {
		c.text(".")
	}
	c.text(" ")
}

// groupNames lists the people of a person-group in citation form.
func groupNames(group *etree.Element) (names []string, etal bool) {
	for _, ch := range group.ChildElements() {
		switch ch.Tag {
		case "name":
			names = append(names, citationName(ch))
		case "collab", "string-name":
			names = append(names, jpts.TextOf(ch))
		case "etal":
			etal = true
		}
	}
	return names, etal
}

func (c *citation) authors(group *etree.Element) bool {
	var names []string
	etal := false
	if group != nil {
		names, etal = groupNames(group)
	}
	if group == nil || group.SelectAttrValue("person-group-type", "author") == "author" {
		for _, col := range c.ref.Collabs() {
			names = append(names, jpts.TextOf(col))
		}
	}
	if group == nil {
		for _, n := range c.ref.Names() {
			names = append(names, citationName(n))
		}
	}
	if len(names) == 0 {
		return false
	}
	s := strings.Join(names, ", ")
	if etal {
		s += ", et al."
	}
	c.text(s)
	return true
}

func citationName(el *etree.Element) string {
	n := jpts.ParseName(el)
	s := n.Surname
	if n.GivenNames != "" {
		s += " " + n.GivenNames
	}
	if n.Suffix != "" {
		s += " " + n.Suffix
	}
	return s
}

func (c *citation) year() {
	if y := c.ref.FieldText("year"); y != "" {
		c.text(" (" + y + ") ")
		return
	}
	c.text(" ")
}

func (c *citation) creators() {
	group := c.ref.PersonGroup("author")
	if group == nil {
		group = c.ref.PersonGroup("compiler")
	}
	if group == nil && len(c.ref.PersonGroups()) == 0 {
		c.authors(nil)
	} else {
		c.authors(group)
	}
	c.year()
}

// pages renders fpage–lpage, prefixed by ": " after a volume and "pp. "
// otherwise.
func (c *citation) pages() {
	fpage := c.ref.Field("fpage")
	if fpage == nil {
		return
	}
	if precededBy(fpage, "volume") {
		c.text(": ")
	} else {
		c.text("pp. ")
	}
	c.text(jpts.TextOf(fpage))
	if lpage := c.ref.FieldText("lpage"); lpage != "" {
		c.text("–" + lpage)
	}
}

func precededBy(el *etree.Element, tag string) bool {
	parent := el.Parent()
	for _, sib := range parent.ChildElements() {
		if sib == el {
			return false
		}
		if sib.Tag == tag {
			return true
		}
	}
	return false
}

func (c *citation) publisher() {
	loc := c.ref.FieldText("publisher-loc")
	name := c.ref.FieldText("publisher-name")
	switch {
	case loc != "" && name != "":
		c.text(loc + ": " + name + ". ")
	case name != "":
		c.text(name + ". ")
	case loc != "":
		c.text(loc + ". ")
	}
}

// space separates the next item from what was written so far.
func (c *citation) space() {
	if s := jpts.AllText(c.dst); s != "" && !strings.HasSuffix(s, " ") {
		c.text(" ")
	}
}

func (c *citation) volume() {
	if v := c.ref.FieldText("volume"); v != "" {
		c.space()
		c.text("Vol. " + v)
	}
}

func (c *citation) tail() {
	if doi := c.ref.DOI(); doi != "" {
		c.space()
		c.text("doi:" + doi)
	}
	if comment := c.ref.FieldText("comment"); comment != "" && !suppressedComment(comment) {
		c.space()
		c.text(comment)
	}
}

func suppressedComment(s string) bool {
	for _, p := range suppressedComments {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// finish trims trailing space and terminates the citation with a period.
func (c *citation) finish() {
	trimTrailingSpace(c.dst)
	if n := len(c.dst.Child); n > 0 {
		if cd, ok := c.dst.Child[n-1].(*etree.CharData); ok {
			cd.Data = strings.TrimRight(cd.Data, " ")
		}
	}
	if !endsSentence(jpts.AllText(c.dst)) {
		c.text(".")
	}
}

func endsSentence(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!")
}

func (c *citation) journal() {
	c.creators()
	c.sentence("article-title")
	if c.field("source") {
		c.text(" ")
	}
	c.field("volume")
	if issue := c.ref.FieldText("issue"); issue != "" {
		c.text("(" + issue + ")")
	}
	c.pages()
	c.tail()
}

func (c *citation) bookChapter() {
	c.creators()
	c.sentence("article-title")

	var editors []string
	for _, g := range c.ref.PersonGroups() {
		if g.SelectAttrValue("person-group-type", "") == "author" {
			continue
		}
		for _, n := range g.SelectElements("name") {
			editors = append(editors, citationName(n))
		}
	}
	c.text("In: ")
	if len(editors) > 0 {
		role := ", editor"
		if len(editors) > 1 {
			role = ", editors"
		}
		c.text(strings.Join(editors, ", ") + role + ". ")
	}
	c.sentence("source")
	c.publisher()
	c.volume()
	c.pages()
	c.tail()
}

func (c *citation) book() {
	c.creators()
	if !c.sentence("source") {
		c.sentence("article-title")
	}
	if ed := c.ref.FieldText("edition"); ed != "" {
		c.text(ed + ". ")
	}
	c.publisher()
	c.volume()
	c.pages()
	c.tail()
}

// general renders a publication of no recognised shape field by field,
// in the order the citation gives them.
func (c *citation) general() {
	for _, el := range c.ref.Citation.ChildElements() {
		txt := jpts.TextOf(el)
		if txt == "" && el.Tag != "person-group" {
			continue
		}
		switch el.Tag {
		case "label", "lpage", "annotation":
		case "person-group":
			names, etal := groupNames(el)
			if len(names) == 0 {
				continue
			}
			s := strings.Join(names, ", ")
			if etal {
				s += ", et al"
			}
			c.text(s + ". ")
		case "year":
			c.text("(" + txt + "). ")
		case "publisher-loc":
			if name := c.ref.Field("publisher-name"); name != nil && precededBy(name, "publisher-loc") {
				c.text(txt + ": ")
			} else {
				c.text(txt + ". ")
			}
		case "volume":
			c.text("Vol. " + txt + ". ")
		case "fpage":
			c.text("pp. " + txt)
			if lpage := c.ref.FieldText("lpage"); lpage != "" {
				c.text("–" + lpage)
			}
			c.text(". ")
		case "pub-id":
			if el.SelectAttrValue("pub-id-type", "") == "doi" {
				c.text("doi:" + txt + " ")
			}
		case "comment":
			if !suppressedComment(txt) {
				c.sentenceOf(el)
			}
		default:
			c.sentenceOf(el)
		}
	}
}

func (c *citation) legacy() {
	switch c.ref.PublicationType {
	case "book":
		if c.ref.Field("article-title") != nil && hasNonAuthorGroup(c.ref.PersonGroups()) {
			c.bookChapter()
			return
		}
		c.book()
	default:
		c.journal()
	}
}

// mixedInline are the elements kept as markup inside a mixed-citation;
// everything else contributes its text only.
var mixedInline = map[string]bool{
	"bold": true, "italic": true, "sup": true, "sub": true, "sc": true,
	"ext-link": true, "uri": true, "underline": true,
}

func (c *citation) mixed(el *etree.Element) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			c.text(t.Data)
		case *etree.Element:
			if mixedInline[t.Tag] {
				c.e.RenderNode(c.dst, t)
				continue
			}
			c.mixed(t)
		}
	}
}
