package epub

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const ncxNS = "http://www.daisy.org/z3986/2005/ncx/"

// buildNCX returns the NCX navigation document of p. Navigation points
// nested deeper than MaxNavDepth are dropped. playOrder increases across
// the navMap and then the navLists.
func buildNCX(p *Package) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	ncx := doc.CreateElement("ncx")
	ncx.CreateAttr("xmlns", ncxNS)
	ncx.CreateAttr("version", "2005-1")
	if p.Metadata.Language != "" {
		ncx.CreateAttr("xml:lang", p.Metadata.Language)
	}

	head := ncx.CreateElement("head")
	meta := func(name, content string) {
		m := head.CreateElement("meta")
		m.CreateAttr("name", name)
		m.CreateAttr("content", content)
	}
	meta("dtb:uid", p.Metadata.Identifier.Value)
	meta("dtb:depth", strconv.Itoa(navDepth(p.Nav)))
	meta("dtb:totalPageCount", "0")
	meta("dtb:maxPageNumber", "0")
	if p.Metadata.Generator != "" {
		meta("dtb:generator", p.Metadata.Generator)
	}

	title := p.DocTitle
	if title == "" {
		title = p.Metadata.Title
	}
	ncx.CreateElement("docTitle").CreateElement("text").SetText(title)
	if p.DocAuthor != "" {
		ncx.CreateElement("docAuthor").CreateElement("text").SetText(p.DocAuthor)
	}

	w := ncxWriter{ids: make(map[string]int)}
	navMap := ncx.CreateElement("navMap")
	w.navPoints(navMap, p.Nav, 1)

	for _, l := range p.Lists {
		if len(l.Targets) == 0 {
			continue
		}
		list := ncx.CreateElement("navList")
		if l.ID != "" {
			list.CreateAttr("id", w.uniqueID(l.ID))
		}
		if l.Class != "" {
			list.CreateAttr("class", l.Class)
		}
		navLabel(list, l.Label)
		for _, t := range l.Targets {
			target := list.CreateElement("navTarget")
			target.CreateAttr("id", w.uniqueID(t.ID))
			target.CreateAttr("playOrder", w.next())
			navLabel(target, t.Label)
			target.CreateElement("content").CreateAttr("src", t.Src)
		}
	}
	return doc
}

type ncxWriter struct {
	playOrder int
	ids       map[string]int
}

func (w *ncxWriter) next() string {
	w.playOrder++
	return strconv.Itoa(w.playOrder)
}

// uniqueID returns id, or id with a numeric suffix when it was used before.
// An empty id becomes "navPoint-N".
func (w *ncxWriter) uniqueID(id string) string {
	if id == "" {
		id = "navPoint-" + strconv.Itoa(w.playOrder+1)
	}
	n := w.ids[id]
	w.ids[id] = n + 1
	if n == 0 {
		return id
	}
	return id + "-" + strconv.Itoa(n+1)
}

func (w *ncxWriter) navPoints(parent *etree.Element, points []NavPoint, depth int) {
	if depth > MaxNavDepth {
		return
	}
	for _, np := range points {
		el := parent.CreateElement("navPoint")
		el.CreateAttr("id", w.uniqueID(np.ID))
		el.CreateAttr("playOrder", w.next())
		navLabel(el, np.Label)
		el.CreateElement("content").CreateAttr("src", np.Src)
		w.navPoints(el, np.Children, depth+1)
	}
}

func navLabel(parent *etree.Element, label string) {
	parent.CreateElement("navLabel").CreateElement("text").SetText(label)
}

// navDepth returns the depth of the written navMap, at least 1.
func navDepth(points []NavPoint) int {
	depth := 1
	walkNav(points, func(_ NavPoint, d int) {
		if d > depth && d <= MaxNavDepth {
			depth = d
		}
	})
	return depth
}

// --- reading ---

type ncxDocument struct {
	XMLName  xml.Name     `xml:"ncx"`
	Metas    []opfMeta    `xml:"head>meta"`
	DocTitle string       `xml:"docTitle>text"`
	NavMap   ncxNavMap    `xml:"navMap"`
	NavLists []ncxNavList `xml:"navList"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	ID        string        `xml:"id,attr"`
	PlayOrder string        `xml:"playOrder,attr"`
	Label     string        `xml:"navLabel>text"`
	Content   ncxContent    `xml:"content"`
	Children  []ncxNavPoint `xml:"navPoint"`
}

type ncxNavList struct {
	ID      string         `xml:"id,attr"`
	Class   string         `xml:"class,attr"`
	Label   string         `xml:"navLabel>text"`
	Targets []ncxNavTarget `xml:"navTarget"`
}

type ncxNavTarget struct {
	ID        string     `xml:"id,attr"`
	PlayOrder string     `xml:"playOrder,attr"`
	Label     string     `xml:"navLabel>text"`
	Content   ncxContent `xml:"content"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// parseNCX decodes an NCX document.
func parseNCX(data []byte) (*ncxDocument, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(stripBOM(data), &doc); err != nil {
		return nil, fmt.Errorf("epub: parse NCX: %w", err)
	}
	return &doc, nil
}

// uid returns the dtb:uid meta content.
func (d *ncxDocument) uid() string {
	for _, m := range d.Metas {
		if m.Name == "dtb:uid" {
			return m.Content
		}
	}
	return ""
}

func convertNavPoints(points []ncxNavPoint) []NavPoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]NavPoint, 0, len(points))
	for _, np := range points {
		out = append(out, NavPoint{
			ID:       np.ID,
			Label:    strings.TrimSpace(np.Label),
			Src:      strings.TrimSpace(np.Content.Src),
			Children: convertNavPoints(np.Children),
		})
	}
	return out
}

func convertNavLists(lists []ncxNavList) []NavList {
	var out []NavList
	for _, l := range lists {
		nl := NavList{ID: l.ID, Class: l.Class, Label: strings.TrimSpace(l.Label)}
		for _, t := range l.Targets {
			nl.Targets = append(nl.Targets, NavTarget{
				ID:    t.ID,
				Label: strings.TrimSpace(t.Label),
				Src:   strings.TrimSpace(t.Content.Src),
			})
		}
		out = append(out, nl)
	}
	return out
}
