package jpts

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Name is a structured personal name.
type Name struct {
	Surname    string
	GivenNames string
	Suffix     string
}

// Xref is a cross-reference carried by a contributor.
type Xref struct {
	RefType string
	RID     string
	Text    string
}

// Contrib is one <contrib> of the article front matter.
type Contrib struct {
	// Type is the contrib-type attribute ("author", "editor", ...).
	Type string

	Name      Name
	Collab    string
	Anonymous bool

	// Corresp is true for contrib[@corresp="yes"].
	Corresp bool

	// Equal is true for contrib[@equal-contrib="yes"].
	Equal bool

	Xrefs []Xref
}

// Affiliation is an <aff> element.
type Affiliation struct {
	ID          string
	Label       string
	Text        string
	Institution string
	Country     string
}

// Date is a possibly partial publication or history date.
type Date struct {
	// Type is pub-type or date-type ("epub", "received", "accepted", ...).
	Type   string
	Year   int
	Month  int
	Day    int
	Season string
}

// IsZero reports whether the date carries no year.
func (d Date) IsZero() bool { return d.Year == 0 }

// Abstract is an article-meta/abstract.
type Abstract struct {
	// Type is the abstract-type attribute; "" for the main abstract.
	Type  string
	Title string
	Node  *etree.Element
}

// Permissions holds the licensing block.
type Permissions struct {
	Statement   string
	Year        string
	Holder      string
	License     string
	LicenseType string
	LicenseHref string
	LicenseNode *etree.Element
}

// Note is a corresp or fn of the author-notes block.
type Note struct {
	ID     string
	FnType string
	Label  string
	Text   string
	Node   *etree.Element
}

// Contribs returns every contrib of the article-meta contrib-groups in
// document order.
func (d *Document) Contribs() []Contrib {
	if d.articleMeta == nil {
		return nil
	}
	var out []Contrib
	for _, el := range d.articleMeta.FindElements("./contrib-group/contrib") {
		out = append(out, parseContrib(el))
	}
	return out
}

// ContribsOfType returns the contribs whose contrib-type equals t.
func (d *Document) ContribsOfType(t string) []Contrib {
	var out []Contrib
	for _, c := range d.Contribs() {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func parseContrib(el *etree.Element) Contrib {
	c := Contrib{
		Type:    el.SelectAttrValue("contrib-type", ""),
		Corresp: el.SelectAttrValue("corresp", "") == "yes",
		Equal:   el.SelectAttrValue("equal-contrib", "") == "yes",
	}
	if n := el.SelectElement("name"); n != nil {
		c.Name = parseName(n)
	} else if n := el.FindElement("./name-alternatives/name"); n != nil {
		c.Name = parseName(n)
	}
	if collab := el.SelectElement("collab"); collab != nil {
		c.Collab = TextOf(collab)
	}
	c.Anonymous = el.SelectElement("anonymous") != nil
	for _, x := range el.SelectElements("xref") {
		c.Xrefs = append(c.Xrefs, Xref{
			RefType: x.SelectAttrValue("ref-type", ""),
			RID:     x.SelectAttrValue("rid", ""),
			Text:    TextOf(x),
		})
	}
	return c
}

// ParseName reads a <name> or <string-name> element.
func ParseName(el *etree.Element) Name {
	if el == nil {
		return Name{}
	}
	return parseName(el)
}

func parseName(el *etree.Element) Name {
	return Name{
		Surname:    ChildText(el, "surname"),
		GivenNames: ChildText(el, "given-names"),
		Suffix:     ChildText(el, "suffix"),
	}
}

// Affiliations returns every aff in article-meta, including those nested in
// contrib-groups, in document order.
func (d *Document) Affiliations() []Affiliation {
	if d.articleMeta == nil {
		return nil
	}
	var out []Affiliation
	for _, el := range d.articleMeta.FindElements(".//aff") {
		out = append(out, parseAffiliation(el))
	}
	return out
}

func parseAffiliation(el *etree.Element) Affiliation {
	a := Affiliation{
		ID:          el.SelectAttrValue("id", ""),
		Label:       ChildText(el, "label"),
		Institution: ChildText(el, "institution"),
		Country:     ChildText(el, "country"),
	}
	if line := el.SelectElement("addr-line"); line != nil {
		a.Text = TextOf(line)
	} else {
		var parts []string
		for _, tok := range el.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				parts = append(parts, t.Data)
			case *etree.Element:
				if t.Tag != "label" {
					parts = append(parts, AllText(t))
				}
			}
		}
		a.Text = NormalizeSpace(strings.Join(parts, ""))
	}
	a.Text = strings.TrimLeft(a.Text, ", ")
	return a
}

// PubDates returns the article-meta/pub-date elements.
func (d *Document) PubDates() []Date {
	if d.articleMeta == nil {
		return nil
	}
	var out []Date
	for _, el := range d.articleMeta.SelectElements("pub-date") {
		out = append(out, parseDate(el, "pub-type"))
	}
	return out
}

// PubDate returns the first pub-date of the given type. The second result
// is false when no such date exists.
func (d *Document) PubDate(pubType string) (Date, bool) {
	for _, dt := range d.PubDates() {
		if dt.Type == pubType {
			return dt, true
		}
	}
	return Date{}, false
}

// HistoryDates returns the article-meta/history/date elements.
func (d *Document) HistoryDates() []Date {
	if d.articleMeta == nil {
		return nil
	}
	var out []Date
	for _, el := range d.articleMeta.FindElements("./history/date") {
		out = append(out, parseDate(el, "date-type"))
	}
	return out
}

// HistoryDate returns the first history date of the given type.
func (d *Document) HistoryDate(dateType string) (Date, bool) {
	for _, dt := range d.HistoryDates() {
		if dt.Type == dateType {
			return dt, true
		}
	}
	return Date{}, false
}

func parseDate(el *etree.Element, typeAttr string) Date {
	dt := Date{Type: el.SelectAttrValue(typeAttr, "")}
	if dt.Type == "" {
		dt.Type = el.SelectAttrValue("date-type", "")
	}
	dt.Year = atoi(ChildText(el, "year"))
	dt.Month = atoi(ChildText(el, "month"))
	dt.Day = atoi(ChildText(el, "day"))
	dt.Season = ChildText(el, "season")
	return dt
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Abstracts returns the article-meta/abstract elements in document order.
func (d *Document) Abstracts() []Abstract {
	if d.articleMeta == nil {
		return nil
	}
	var out []Abstract
	for _, el := range d.articleMeta.SelectElements("abstract") {
		out = append(out, Abstract{
			Type:  el.SelectAttrValue("abstract-type", ""),
			Title: ChildText(el, "title"),
			Node:  el,
		})
	}
	return out
}

// Permissions returns the article-meta/permissions block. The second result
// is false when the article has none.
func (d *Document) Permissions() (Permissions, bool) {
	if d.articleMeta == nil {
		return Permissions{}, false
	}
	el := d.articleMeta.SelectElement("permissions")
	if el == nil {
		// Older PLoS articles put copyright-statement directly in article-meta.
		if st := d.articleMeta.SelectElement("copyright-statement"); st != nil {
			return Permissions{Statement: TextOf(st)}, true
		}
		return Permissions{}, false
	}
	p := Permissions{
		Statement: ChildText(el, "copyright-statement"),
		Year:      ChildText(el, "copyright-year"),
		Holder:    ChildText(el, "copyright-holder"),
	}
	if lic := el.SelectElement("license"); lic != nil {
		p.LicenseNode = lic
		p.LicenseType = lic.SelectAttrValue("license-type", "")
		p.LicenseHref = Href(lic)
		if lp := lic.SelectElement("license-p"); lp != nil {
			p.License = TextOf(lp)
		} else {
			p.License = TextOf(lic)
		}
	}
	return p, true
}

// HasFundingGroup reports whether article-meta has a funding-group.
func (d *Document) HasFundingGroup() bool {
	return d.articleMeta != nil && d.articleMeta.SelectElement("funding-group") != nil
}

// FundingStatement returns funding-group/funding-statement text.
func (d *Document) FundingStatement() string {
	if d.articleMeta == nil {
		return ""
	}
	return TextOf(d.articleMeta.FindElement("./funding-group/funding-statement"))
}

// AuthorNotes returns the corresp and fn children of author-notes in
// document order. Corresp notes have FnType "corresp".
func (d *Document) AuthorNotes() []Note {
	if d.articleMeta == nil {
		return nil
	}
	notes := d.articleMeta.SelectElement("author-notes")
	if notes == nil {
		return nil
	}
	var out []Note
	for _, el := range notes.ChildElements() {
		switch el.Tag {
		case "corresp":
			out = append(out, Note{
				ID:     el.SelectAttrValue("id", ""),
				FnType: "corresp",
				Label:  ChildText(el, "label"),
				Text:   TextOf(el),
				Node:   el,
			})
		case "fn":
			out = append(out, Note{
				ID:     el.SelectAttrValue("id", ""),
				FnType: el.SelectAttrValue("fn-type", ""),
				Label:  ChildText(el, "label"),
				Text:   TextOf(el),
				Node:   el,
			})
		}
	}
	return out
}

// AuthorNotesOfType returns author-notes entries with the given fn-type.
func (d *Document) AuthorNotesOfType(fnType string) []Note {
	var out []Note
	for _, n := range d.AuthorNotes() {
		if n.FnType == fnType {
			out = append(out, n)
		}
	}
	return out
}

// BackFootnotes returns back/fn-group/fn elements with the given fn-type;
// an empty fnType returns all of them.
func (d *Document) BackFootnotes(fnType string) []*etree.Element {
	if d.back == nil {
		return nil
	}
	var out []*etree.Element
	for _, fn := range d.back.FindElements("./fn-group/fn") {
		if fnType == "" || fn.SelectAttrValue("fn-type", "") == fnType {
			out = append(out, fn)
		}
	}
	return out
}

// Keywords returns the kwd texts of every kwd-group.
func (d *Document) Keywords() []string {
	if d.articleMeta == nil {
		return nil
	}
	var out []string
	for _, k := range d.articleMeta.FindElements("./kwd-group/kwd") {
		if t := TextOf(k); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Subjects returns the subject texts under article-categories.
func (d *Document) Subjects() []string {
	if d.articleMeta == nil {
		return nil
	}
	var out []string
	for _, s := range d.articleMeta.FindElements("./article-categories//subject") {
		if t := TextOf(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
