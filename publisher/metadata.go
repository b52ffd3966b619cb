package publisher

import (
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/report"
)

// Person is a normalized contributor.
type Person struct {
	// Name is the display name ("Jane A. Smith").
	Name string

	// FileAs is the sort name ("Smith, J").
	FileAs string

	// Role is the MARC relator code: "aut" or "edt".
	Role string

	// Affiliations holds the ids of the contributor's affiliations.
	Affiliations []string

	// Corresponding is true when the contributor links to a corresp note.
	Corresponding bool
}

// Dates holds the article's publication history. Missing dates are zero.
type Dates struct {
	Received   jpts.Date
	Accepted   jpts.Date
	Published  jpts.Date
	EPreprint  jpts.Date
	Collection jpts.Date
}

// Metadata is the publisher-independent description of an article.
type Metadata struct {
	DOI   string
	Title string

	Authors      []Person
	Editors      []Person
	Affiliations []jpts.Affiliation

	Dates Dates

	// Rights is the copyright line; License the license text.
	Rights      string
	License     string
	LicenseHref string

	// Funding is empty when the article has no funding-group.
	Funding            string
	CompetingInterests string

	Keywords []string
	Subjects []string

	Journal   string
	JournalID string
	Publisher string
	Language  string
	Volume    string
	Issue     string
	ELocation string
	FPage     string
	LPage     string

	// Description is the text of the main abstract.
	Description string
}

// ExtractCommon fills the fields every JPTS article exposes in the same
// place. Handlers call it and then apply their own normalization.
//
// A missing title or DOI yields a *MalformedArticleError. Missing optional
// fields are left empty and recorded in rep.
func ExtractCommon(doc *jpts.Document, rep *report.Report) (*Metadata, error) {
	md := &Metadata{
		DOI:   doc.DOI(),
		Title: norm.NFC.String(doc.Title()),
	}
	if md.DOI == "" {
		return nil, &MalformedArticleError{Field: "DOI"}
	}
	if md.Title == "" {
		return nil, &MalformedArticleError{DOI: md.DOI, Field: "title"}
	}

	for _, c := range doc.Contribs() {
		var role string
		switch c.Type {
		case "author":
			role = "aut"
		case "editor":
			role = "edt"
		default:
			continue
		}
		name, fileAs := PersonName(c)
		if name == "" {
			rep.Add(report.MissingOptionalField, "contributor without a name skipped", c.Type)
			continue
		}
		p := Person{
			Name:   norm.NFC.String(name),
			FileAs: norm.NFC.String(fileAs),
			Role:   role,
			Affiliations: lo.FilterMap(c.Xrefs, func(x jpts.Xref, _ int) (string, bool) {
				return x.RID, x.RefType == "aff" && x.RID != ""
			}),
			Corresponding: c.Corresp || lo.ContainsBy(c.Xrefs, func(x jpts.Xref) bool {
				return x.RefType == "corresp"
			}),
		}
		if role == "aut" {
			md.Authors = append(md.Authors, p)
		} else {
			md.Editors = append(md.Editors, p)
		}
	}
	if len(md.Authors) == 0 {
		rep.Add(report.MissingOptionalField, "article has no authors", "contrib-group")
	}
	md.Affiliations = doc.Affiliations()

	md.Dates.Received, _ = doc.HistoryDate("received")
	md.Dates.Accepted, _ = doc.HistoryDate("accepted")
	md.Dates.Collection, _ = doc.PubDate("collection")
	md.Dates.EPreprint, _ = doc.PubDate("epreprint")
	md.Dates.Published = firstDate(doc, "epub", "ppub", "pub", "epub-ppub")
	if md.Dates.Published.IsZero() {
		rep.Add(report.MissingOptionalField, "no publication date", "pub-date")
	}

	if perm, ok := doc.Permissions(); ok {
		md.Rights = perm.Statement
		md.License = perm.License
		md.LicenseHref = perm.LicenseHref
	} else {
		rep.Add(report.MissingOptionalField, "no permissions block", "permissions")
	}
	if doc.HasFundingGroup() {
		md.Funding = doc.FundingStatement()
	}
	if notes := doc.AuthorNotesOfType("conflict"); len(notes) > 0 {
		md.CompetingInterests = notes[0].Text
	}

	md.Keywords = lo.Uniq(doc.Keywords())
	md.Subjects = lo.Uniq(doc.Subjects())
	md.Journal = doc.JournalTitle()
	md.Publisher = doc.Publisher()
	md.Language = doc.Language()
	md.Volume = doc.Volume()
	md.Issue = doc.Issue()
	md.ELocation = doc.ELocationID()
	md.FPage = doc.FPage()
	md.LPage = doc.LPage()

	for _, a := range doc.Abstracts() {
		if a.Type == "" {
			md.Description = norm.NFC.String(jpts.TextOf(a.Node))
			break
		}
	}
	return md, nil
}

func firstDate(doc *jpts.Document, types ...string) jpts.Date {
	for _, t := range types {
		if d, ok := doc.PubDate(t); ok && !d.IsZero() {
			return d
		}
	}
	return jpts.Date{}
}

// Creators returns the authors followed by the editors.
func (m *Metadata) Creators() []Person {
	return append(append([]Person(nil), m.Authors...), m.Editors...)
}
