package transform

import (
	"bytes"

	"github.com/beevik/etree"
)

// StylesheetHref is the stylesheet every generated document links to,
// relative to the document.
const StylesheetHref = "css/article.css"

// NewXHTML creates an empty XHTML 1.1 document and returns it along with its
// <body> element.
func NewXHTML(title string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd"`)

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")

	head := html.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "application/xhtml+xml; charset=utf-8")
	head.CreateElement("title").SetText(title)
	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", "text/css")
	link.CreateAttr("href", StylesheetHref)

	return doc, html.CreateElement("body")
}

// Serialize renders doc without re-indenting, so mixed content keeps its
// exact whitespace.
func Serialize(doc *etree.Document) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
