package transform

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/report"
)

// blockTags may not appear inside an XHTML paragraph. When a source
// paragraph contains one, the paragraph is split around it.
var blockTags = map[string]bool{
	"list": true, "def-list": true, "fig": true, "fig-group": true,
	"table-wrap": true, "disp-quote": true, "boxed-text": true,
	"disp-formula": true, "supplementary-material": true, "verse-group": true,
	"p": true, "sec": true, "fn-group": true,
}

func renderParagraph(e *Engine, dst, src *etree.Element) {
	id := e.AnchorID(src)
	p := e.Element(dst, "p", src)
	n := 0
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			e.Text(p, t.Data)
		case *etree.Element:
			if !blockTags[t.Tag] {
				e.RenderNode(p, t)
				continue
			}
			if n > 0 && isBlank(p) {
				dst.RemoveChild(p)
			}
			e.RenderNode(dst, t)
			n++
			p = dst.CreateElement("p")
			p.CreateAttr("id", e.Reserve(id+"-c"+strconv.Itoa(n)))
		}
	}
	if n > 0 && isBlank(p) {
		dst.RemoveChild(p)
	}
}

// headingTag returns the element and class for a section heading at the
// given nesting depth (1 for a top-level body section).
func headingTag(depth int) (tag, class string) {
	level := depth + 2
	if level <= 6 {
		return "h" + strconv.Itoa(level), ""
	}
	return "span", "extendedheader" + strconv.Itoa(level)
}

// titleText joins a label and a title the way headings display them.
func titleText(label, title string) string {
	switch {
	case label == "":
		return title
	case title == "":
		return label
	default:
		return label + " " + title
	}
}

func renderSection(e *Engine, dst, src *etree.Element) {
	e.depth++
	defer func() { e.depth-- }()

	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "section")
	id := e.AnchorID(src)

	label := jpts.ChildText(src, "label")
	title := src.SelectElement("title")
	if title != nil || label != "" {
		tag, class := headingTag(e.depth)
		h := div.CreateElement(tag)
		if class != "" {
			h.CreateAttr("class", class)
		}
		if label != "" {
			e.Text(h, label+" ")
		}
		if title != nil {
			e.RenderChildren(h, title)
		}
	}

	if e.inBody {
		e.pushHeading(id, titleText(label, jpts.TextOf(title)))
		defer e.popHeading()
	}
	e.RenderChildrenExcept(div, src, "title", "label")
}

func renderBoxedSection(e *Engine, dst, src *etree.Element) {
	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "boxed-section")
	if title := src.SelectElement("title"); title != nil {
		p := div.CreateElement("p")
		e.RenderChildren(p.CreateElement("b"), title)
	}
	e.RenderChildrenExcept(div, src, "title", "label")
}

func renderBoxedText(e *Engine, dst, src *etree.Element) {
	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "boxed-text")
	label := jpts.ChildText(src, "label")
	title := src.SelectElement("title")
	if title == nil {
		if c := src.SelectElement("caption"); c != nil {
			title = c.SelectElement("title")
		}
	}
	if label != "" || title != nil {
		b := div.CreateElement("p").CreateElement("b")
		if label != "" {
			e.Text(b, label+" ")
		}
		if title != nil {
			e.RenderChildren(b, title)
		}
	}
	e.RenderChildrenExcept(div, src, "title", "label")
}

// renderCaption writes the bold "label. title" line followed by the caption
// paragraphs.
func renderCaption(e *Engine, dst, src *etree.Element, class string) {
	label := jpts.ChildText(src, "label")
	caption := src.SelectElement("caption")
	var title *etree.Element
	if caption != nil {
		title = caption.SelectElement("title")
	}
	if label == "" && caption == nil {
		return
	}
	div := dst.CreateElement("div")
	div.CreateAttr("class", class)
	if label != "" || title != nil {
		b := div.CreateElement("b")
		if label != "" {
			e.Text(b, strings.TrimSuffix(label, ".")+". ")
		}
		if title != nil {
			e.RenderChildren(b, title)
			e.Text(b, " ")
		}
	}
	if caption != nil {
		e.RenderChildrenExcept(div, caption, "title")
	}
}

func renderFigure(e *Engine, dst, src *etree.Element) {
	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "figure")
	if g := src.SelectElement("graphic"); g != nil {
		e.Image(div, g, "A Figure", "figure")
	}
	renderCaption(e, div, src, "figure-caption")

	id := e.AnchorID(src)
	e.figures = append(e.figures, Target{
		ID:    id,
		Label: targetLabel(src),
		Href:  e.opts.Files.Name(e.cur) + "#" + id,
	})
}

func targetLabel(src *etree.Element) string {
	label := jpts.ChildText(src, "label")
	var title string
	if c := src.SelectElement("caption"); c != nil {
		title = jpts.ChildText(c, "title")
	}
	if label == "" {
		return title
	}
	return label
}

func renderTableWrap(e *Engine, dst, src *etree.Element) {
	id := e.AnchorID(src)
	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "table")
	renderCaption(e, div, src, "table-caption")

	graphic := src.SelectElement("graphic")
	table := src.FindElement("./table")
	if table == nil {
		table = src.FindElement("./alternatives/table")
	}
	foot := src.SelectElement("table-wrap-foot")

	target := Target{ID: id, Label: targetLabel(src), Href: e.opts.Files.Main + "#" + id}
	e.tables = append(e.tables, target)

	switch {
	case movesToTables(src):
		e.Image(div, graphic, "A Table", "table")
		a := div.CreateElement("p").CreateElement("a")
		a.CreateAttr("class", "table")
		a.CreateAttr("href", e.opts.Files.Tables+"#"+id)
		e.Text(a, "Go to HTML version of this table")

		saved := e.cur
		e.cur = DocTables
		tdiv := e.tablesBody.CreateElement("div")
		tdiv.CreateAttr("id", id)
		tdiv.CreateAttr("class", "table")
		if label := jpts.ChildText(src, "label"); label != "" {
			e.Text(tdiv.CreateElement("p").CreateElement("b"), label)
		}
		e.RenderNode(tdiv, table)
		if foot != nil {
			e.RenderNode(tdiv, foot)
		}
		e.cur = saved
	case table != nil:
		e.RenderNode(div, table)
		if foot != nil {
			e.RenderNode(div, foot)
		}
	case graphic != nil:
		e.Image(div, graphic, "A Table", "table")
		if foot != nil {
			e.RenderNode(div, foot)
		}
	}
}

// tableTags are copied into the output with presentational attributes
// removed.
var tableTags = []string{"table", "thead", "tbody", "tfoot", "tr", "th", "td"}

var presentationalAttrs = map[string]bool{
	"align": true, "bgcolor": true, "border": true, "cellpadding": true,
	"cellspacing": true, "char": true, "charoff": true, "frame": true,
	"height": true, "nowrap": true, "rules": true, "valign": true,
	"width": true, "style": true, "content-type": true,
}

func renderTableElement(e *Engine, dst, src *etree.Element) {
	el := e.Element(dst, src.Tag, src)
	for _, a := range src.Attr {
		if a.Space != "" || presentationalAttrs[a.Key] || a.Key == "id" {
			continue
		}
		el.CreateAttr(a.Key, a.Value)
	}
	e.RenderChildrenExcept(el, src, "colgroup", "col")
}

func renderDisplayFormula(e *Engine, dst, src *etree.Element) {
	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "disp-formula")
	if g := src.SelectElement("graphic"); g != nil {
		e.Image(div, g, "A Display Formula", "disp-formula")
	} else {
		span := div.CreateElement("span")
		span.CreateAttr("class", "disp-formula")
		e.RenderChildrenExcept(span, src, "label")
	}
	if label := jpts.ChildText(src, "label"); label != "" {
		e.Text(div, " ")
		e.Text(div.CreateElement("b"), label)
	}
}

func renderInlineFormula(e *Engine, dst, src *etree.Element) {
	span := dst.CreateElement("span")
	span.CreateAttr("class", "inline-formula")
	e.RenderChildren(span, src)
}

// RenderSupplementary renders a supplementary-material block whose label
// links to url.
func RenderSupplementary(e *Engine, dst, src *etree.Element, url string) {
	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "supplementary-material")

	p := div.CreateElement("p")
	if label := jpts.ChildText(src, "label"); label != "" {
		if url != "" {
			a := p.CreateElement("a")
			a.CreateAttr("href", url)
			e.Text(a, label)
		} else {
			e.Text(p, label)
		}
		e.Text(p, ". ")
	}
	caption := src.SelectElement("caption")
	if caption == nil {
		return
	}
	if title := caption.SelectElement("title"); title != nil {
		e.RenderChildren(p.CreateElement("b"), title)
	}
	e.RenderChildrenExcept(div, caption, "title")
}

// isErratum reports whether a footnote is a publisher correction notice.
func isErratum(text string) bool {
	return strings.HasPrefix(text, "Erratum") && strings.Contains(text, "Corrected")
}

func renderFootnote(e *Engine, dst, src *etree.Element) {
	if isErratum(jpts.TextOf(src)) {
		e.report.Add(report.SkippedContent, "erratum footnote omitted", PathID(src))
		return
	}
	class := "fn"
	if t := src.SelectAttrValue("fn-type", ""); t != "" {
		class = "fn-type-" + t
	}
	label := jpts.ChildText(src, "label")

	paras := src.SelectElements("p")
	if len(paras) == 0 {
		p := e.Element(dst, "p", src)
		p.CreateAttr("class", class)
		if label != "" {
			e.Text(p.CreateElement("b"), label)
			e.Text(p, " ")
		}
		e.RenderChildrenExcept(p, src, "label")
		return
	}
	for i, para := range paras {
		var p *etree.Element
		if i == 0 {
			p = e.Element(dst, "p", src)
			p.CreateAttr("class", class)
			if label != "" {
				e.Text(p.CreateElement("b"), label)
				e.Text(p, " ")
			}
		} else {
			p = e.Element(dst, "p", para)
		}
		e.RenderChildren(p, para)
	}
}

func renderList(e *Engine, dst, src *etree.Element) {
	if title := src.SelectElement("title"); title != nil {
		e.RenderChildren(dst.CreateElement("p").CreateElement("b"), title)
	}
	typ := src.SelectAttrValue("list-type", "order")
	tag, class := "ol", typ
	switch typ {
	case "bullet", "":
		tag, class = "ul", "bullet"
	case "simple":
		tag = "ul"
	}
	list := e.Element(dst, tag, src)
	list.CreateAttr("class", class)
	for _, item := range src.SelectElements("list-item") {
		e.RenderNode(list, item)
	}
}

func renderDefList(e *Engine, dst, src *etree.Element) {
	div := e.Element(dst, "div", src)
	div.CreateAttr("class", "def-list")
	if title := src.SelectElement("title"); title != nil {
		e.RenderChildren(div.CreateElement("p").CreateElement("b"), title)
	}
	for _, item := range src.SelectElements("def-item") {
		for _, term := range item.SelectElements("term") {
			p := div.CreateElement("p")
			p.CreateAttr("class", "def-item-term")
			e.RenderChildren(p, term)
		}
		for _, def := range item.SelectElements("def") {
			p := div.CreateElement("p")
			p.CreateAttr("class", "def-item-def")
			renderFlattened(e, p, def)
		}
	}
}

// renderFlattened renders the content of src into dst, unwrapping nested
// paragraphs so the result stays inline.
func renderFlattened(e *Engine, dst, src *etree.Element) {
	first := true
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			e.Text(dst, t.Data)
		case *etree.Element:
			if t.Tag != "p" {
				e.RenderNode(dst, t)
				continue
			}
			if !first {
				e.Text(dst, " ")
			}
			first = false
			e.RenderChildren(dst, t)
		}
	}
}
