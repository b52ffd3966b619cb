// Package jpts parses Journal Publishing Tag Set (JATS/NLM) article XML into
// an immutable document model with typed accessors.
//
// A [Document] wraps the parsed element tree. Accessors never mutate it, so
// a Document may be shared read-only between the metadata and body stages of
// a conversion.
package jpts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// ErrNotArticle indicates the XML root element is not <article>.
var ErrNotArticle = errors.New("jpts: root element is not <article>")

// Document is a parsed JPTS article.
type Document struct {
	root        *etree.Element
	front       *etree.Element
	articleMeta *etree.Element
	journalMeta *etree.Element
	body        *etree.Element
	back        *etree.Element

	unknownEntities []string
}

// ParseFile reads and parses the article at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jpts: read %s: %w", path, err)
	}
	return ParseBytes(data)
}

// Parse reads all of r and parses it as a JPTS article.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("jpts: read: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses data as a JPTS article.
func ParseBytes(data []byte) (*Document, error) {
	data = stripBOM(data)
	data, unknown := preprocessEntities(data)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("jpts: parse: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "article" {
		return nil, ErrNotArticle
	}

	d := &Document{root: root, unknownEntities: unknown}
	d.front = root.SelectElement("front")
	if d.front != nil {
		d.articleMeta = d.front.SelectElement("article-meta")
		d.journalMeta = d.front.SelectElement("journal-meta")
	}
	d.body = root.SelectElement("body")
	d.back = root.SelectElement("back")
	return d, nil
}

// UnknownEntities returns the entity names that matched no HTML entity.
// Their references were kept as literal text.
func (d *Document) UnknownEntities() []string { return d.unknownEntities }

// Root returns the <article> element.
func (d *Document) Root() *etree.Element { return d.root }

// Front returns the <front> element, or nil.
func (d *Document) Front() *etree.Element { return d.front }

// ArticleMeta returns front/article-meta, or nil.
func (d *Document) ArticleMeta() *etree.Element { return d.articleMeta }

// JournalMeta returns front/journal-meta, or nil.
func (d *Document) JournalMeta() *etree.Element { return d.journalMeta }

// Body returns the <body> element, or nil.
func (d *Document) Body() *etree.Element { return d.body }

// Back returns the <back> element, or nil.
func (d *Document) Back() *etree.Element { return d.back }

// ArticleType returns the article-type attribute of the root element.
func (d *Document) ArticleType() string {
	return d.root.SelectAttrValue("article-type", "")
}

// Language returns the xml:lang of the article, or "".
func (d *Document) Language() string {
	if a := d.root.SelectAttr("xml:lang"); a != nil {
		return strings.TrimSpace(a.Value)
	}
	return ""
}

// DOI returns the article DOI from article-id[@pub-id-type="doi"].
func (d *Document) DOI() string {
	if d.articleMeta == nil {
		return ""
	}
	for _, id := range d.articleMeta.SelectElements("article-id") {
		if id.SelectAttrValue("pub-id-type", "") == "doi" {
			return strings.TrimSpace(id.Text())
		}
	}
	return ""
}

// DOIPrefix returns the registrant part of the DOI ("10.1371").
func (d *Document) DOIPrefix() string {
	prefix, _, _ := strings.Cut(d.DOI(), "/")
	return prefix
}

// DOISuffix returns the part of the DOI after the first slash
// ("journal.pone.0000001").
func (d *Document) DOISuffix() string {
	_, suffix, _ := strings.Cut(d.DOI(), "/")
	return suffix
}

// DOIFragment returns the DOI suffix with dots replaced by dashes. It seeds
// output file names and anchor ids, where dots are unsafe.
func (d *Document) DOIFragment() string {
	return strings.ReplaceAll(d.DOISuffix(), ".", "-")
}

// TitleElement returns title-group/article-title, or nil.
func (d *Document) TitleElement() *etree.Element {
	if d.articleMeta == nil {
		return nil
	}
	return d.articleMeta.FindElement("./title-group/article-title")
}

// Title returns the normalized text of the article title.
func (d *Document) Title() string {
	return TextOf(d.TitleElement())
}

// JournalID returns journal-id text for the given journal-id-type
// ("nlm-ta", "publisher-id", ...).
func (d *Document) JournalID(idType string) string {
	if d.journalMeta == nil {
		return ""
	}
	for _, id := range d.journalMeta.SelectElements("journal-id") {
		if id.SelectAttrValue("journal-id-type", "") == idType {
			return TextOf(id)
		}
	}
	return ""
}

// JournalTitle returns the journal title, looking inside
// journal-title-group first.
func (d *Document) JournalTitle() string {
	if d.journalMeta == nil {
		return ""
	}
	if t := d.journalMeta.FindElement("./journal-title-group/journal-title"); t != nil {
		return TextOf(t)
	}
	return ChildText(d.journalMeta, "journal-title")
}

// Publisher returns journal-meta/publisher/publisher-name.
func (d *Document) Publisher() string {
	if d.journalMeta == nil {
		return ""
	}
	return TextOf(d.journalMeta.FindElement("./publisher/publisher-name"))
}

// Volume returns article-meta/volume.
func (d *Document) Volume() string { return ChildText(d.articleMeta, "volume") }

// Issue returns article-meta/issue.
func (d *Document) Issue() string { return ChildText(d.articleMeta, "issue") }

// ELocationID returns article-meta/elocation-id.
func (d *Document) ELocationID() string { return ChildText(d.articleMeta, "elocation-id") }

// FPage returns article-meta/fpage.
func (d *Document) FPage() string { return ChildText(d.articleMeta, "fpage") }

// LPage returns article-meta/lpage.
func (d *Document) LPage() string { return ChildText(d.articleMeta, "lpage") }
