package transform

import (
	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
)

// RenderFunc writes the output for src into dst. A rule with a nil
// RenderFunc drops the element and everything inside it.
type RenderFunc func(e *Engine, dst, src *etree.Element)

// Rule maps a source element, optionally constrained by an ancestor and an
// attribute, to a rendering function.
type Rule struct {
	// Name identifies the rule in logs and tests.
	Name string

	// Tag is the local element name the rule applies to.
	Tag string

	// Ancestor, when set, requires an ancestor element with this name.
	Ancestor string

	// Attr, when set, requires the attribute to be present. If Value is also
	// set the attribute must equal it.
	Attr  string
	Value string

	Render RenderFunc
}

func (r Rule) specificity() int {
	n := 0
	if r.Ancestor != "" {
		n += 2
	}
	if r.Attr != "" {
		n++
	}
	return n
}

func (r Rule) matches(el *etree.Element) bool {
	if r.Attr != "" {
		a := el.SelectAttr(r.Attr)
		if a == nil || (r.Value != "" && a.Value != r.Value) {
			return false
		}
	}
	if r.Ancestor != "" && !jpts.HasAncestor(el, r.Ancestor) {
		return false
	}
	return true
}

// Table is an ordered set of rules. When several rules match an element the
// most specific wins; among equally specific rules the one added last wins,
// so rules appended after the defaults override them.
type Table struct {
	byTag map[string][]Rule
}

// NewTable creates a table holding rules in order.
func NewTable(rules ...Rule) *Table {
	t := &Table{byTag: make(map[string][]Rule)}
	t.Add(rules...)
	return t
}

// Add appends rules to the table.
func (t *Table) Add(rules ...Rule) {
	for _, r := range rules {
		t.byTag[r.Tag] = append(t.byTag[r.Tag], r)
	}
}

// Match returns the rule that applies to el.
func (t *Table) Match(el *etree.Element) (Rule, bool) {
	var (
		best  Rule
		score = -1
	)
	for _, r := range t.byTag[el.Tag] {
		if !r.matches(el) {
			continue
		}
		if s := r.specificity(); s >= score {
			best, score = r, s
		}
	}
	return best, score >= 0
}

// DefaultRules returns the rules shared by all publishers.
func DefaultRules() []Rule {
	rules := []Rule{
		{Name: "paragraph", Tag: "p", Render: renderParagraph},
		{Name: "section", Tag: "sec", Render: renderSection},
		{Name: "boxed-section", Tag: "sec", Ancestor: "boxed-text", Render: renderBoxedSection},
		{Name: "figure", Tag: "fig", Render: renderFigure},
		{Name: "fig-group", Tag: "fig-group", Render: wrapDiv("fig-group")},
		{Name: "table-wrap", Tag: "table-wrap", Render: renderTableWrap},
		{Name: "table-wrap-foot", Tag: "table-wrap-foot", Render: wrapDiv("table-wrap-foot")},
		{Name: "display-formula", Tag: "disp-formula", Render: renderDisplayFormula},
		{Name: "inline-formula", Tag: "inline-formula", Render: renderInlineFormula},
		{Name: "disp-quote", Tag: "disp-quote", Render: wrapDiv("disp-quote")},
		{Name: "boxed-text", Tag: "boxed-text", Render: renderBoxedText},
		{Name: "supplementary-material", Tag: "supplementary-material", Render: func(e *Engine, dst, src *etree.Element) {
			RenderSupplementary(e, dst, src, jpts.Href(src))
		}},
		{Name: "verse-group", Tag: "verse-group", Render: wrapDiv("verse-group")},
		{Name: "verse-line", Tag: "verse-line", Render: wrapInline("p", "verse-line")},
		{Name: "footnote", Tag: "fn", Render: renderFootnote},
		{Name: "fn-group", Tag: "fn-group", Render: wrapDiv("fn-group")},
		{Name: "list", Tag: "list", Render: renderList},
		{Name: "list-item", Tag: "list-item", Render: wrapInline("li", "")},
		{Name: "def-list", Tag: "def-list", Render: renderDefList},
		{Name: "app-group", Tag: "app-group", Render: wrapDiv("app-group")},
		{Name: "app", Tag: "app", Render: renderSection},
		{Name: "graphic", Tag: "graphic", Render: func(e *Engine, dst, src *etree.Element) {
			e.Image(dst, src, "unowned-graphic", "graphic")
		}},
		{Name: "inline-graphic", Tag: "inline-graphic", Render: func(e *Engine, dst, src *etree.Element) {
			e.Image(dst, src, "An Inline Graphic", "inline-graphic")
		}},
		{Name: "xref", Tag: "xref", Render: renderXref},
		{Name: "named-content", Tag: "named-content", Render: renderClassedSpan("content-type")},
		{Name: "styled-content", Tag: "styled-content", Render: renderClassedSpan("style-type")},

		{Name: "bold", Tag: "bold", Render: wrapInline("b", "")},
		{Name: "italic", Tag: "italic", Render: wrapInline("i", "")},
		{Name: "small-caps", Tag: "sc", Render: wrapInline("span", "small-caps")},
		{Name: "sup", Tag: "sup", Render: wrapInline("sup", "")},
		{Name: "sub", Tag: "sub", Render: wrapInline("sub", "")},
		{Name: "underline", Tag: "underline", Render: wrapInline("span", "underline")},
		{Name: "monospace", Tag: "monospace", Render: wrapInline("span", "monospace")},
		{Name: "overline", Tag: "overline", Render: wrapInline("span", "overline")},
		{Name: "strike", Tag: "strike", Render: wrapInline("span", "strike")},
		{Name: "roman", Tag: "roman", Render: wrapInline("span", "roman")},
		{Name: "ext-link", Tag: "ext-link", Render: renderExtLink},
		{Name: "uri", Tag: "uri", Render: renderExtLink},
		{Name: "email", Tag: "email", Render: renderEmail},
		{Name: "break", Tag: "break", Render: func(_ *Engine, dst, _ *etree.Element) {
			dst.CreateElement("br")
		}},
		{Name: "tex-math", Tag: "tex-math", Render: renderMathText("tex-math")},
		{Name: "mathml", Tag: "math", Render: renderMathText("mathml")},

		// Handled by their parents, or metadata with no visible output.
		{Name: "object-id", Tag: "object-id"},
		{Name: "alt-text", Tag: "alt-text"},
		{Name: "long-desc", Tag: "long-desc"},
		{Name: "permissions", Tag: "permissions"},
		{Name: "label", Tag: "label"},
		{Name: "title", Tag: "title"},
		{Name: "caption", Tag: "caption", Render: func(e *Engine, dst, src *etree.Element) {
			e.RenderChildrenExcept(dst, src, "title")
		}},
	}
	for _, tag := range tableTags {
		rules = append(rules, Rule{Name: "table-" + tag, Tag: tag, Render: renderTableElement})
	}
	return rules
}

func wrapDiv(class string) RenderFunc {
	return func(e *Engine, dst, src *etree.Element) {
		div := e.Element(dst, "div", src)
		div.CreateAttr("class", class)
		e.RenderChildren(div, src)
	}
}

func wrapInline(tag, class string) RenderFunc {
	return func(e *Engine, dst, src *etree.Element) {
		el := dst.CreateElement(tag)
		if class != "" {
			el.CreateAttr("class", class)
		}
		e.RenderChildren(el, src)
	}
}

func renderClassedSpan(attr string) RenderFunc {
	return func(e *Engine, dst, src *etree.Element) {
		span := dst.CreateElement("span")
		if v := src.SelectAttrValue(attr, ""); v != "" {
			span.CreateAttr("class", v)
		}
		e.RenderChildren(span, src)
	}
}

func renderMathText(class string) RenderFunc {
	return func(e *Engine, dst, src *etree.Element) {
		span := dst.CreateElement("span")
		span.CreateAttr("class", class)
		e.Text(span, jpts.NormalizeSpace(jpts.AllText(src)))
	}
}
