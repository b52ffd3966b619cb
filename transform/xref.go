package transform

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
)

func renderXref(e *Engine, dst, src *etree.Element) {
	rid := strings.Fields(src.SelectAttrValue("rid", ""))
	refType := src.SelectAttrValue("ref-type", "")

	if refType == "bibr" && followsBibr(src) {
		trimTrailingSpace(dst)
		e.Text(dst, ", ")
	}

	var href string
	if len(rid) == 0 {
		href = e.LinkTo("", PathID(src))
	} else {
		href = e.LinkTo(rid[0], PathID(src))
	}

	switch refType {
	case "fn", "table-fn":
		a := dst.CreateElement("sup").CreateElement("a")
		a.CreateAttr("href", href)
		e.Text(a, jpts.TextOf(src))
	default:
		a := dst.CreateElement("a")
		a.CreateAttr("href", href)
		e.RenderChildren(a, src)
	}
}

// followsBibr reports whether the sibling before src, ignoring whitespace,
// is another bibliography xref.
func followsBibr(src *etree.Element) bool {
	parent := src.Parent()
	if parent == nil {
		return false
	}
	for i := src.Index() - 1; i >= 0; i-- {
		switch t := parent.Child[i].(type) {
		case *etree.CharData:
			if !t.IsWhitespace() {
				return false
			}
		case *etree.Element:
			return t.Tag == "xref" && t.SelectAttrValue("ref-type", "") == "bibr"
		}
	}
	return false
}

func trimTrailingSpace(dst *etree.Element) {
	n := len(dst.Child)
	if n == 0 {
		return
	}
	if cd, ok := dst.Child[n-1].(*etree.CharData); ok && cd.IsWhitespace() {
		dst.RemoveChildAt(n - 1)
	}
}

func renderExtLink(e *Engine, dst, src *etree.Element) {
	href := jpts.Href(src)
	text := jpts.TextOf(src)
	if href == "" {
		href = text
	}
	a := dst.CreateElement("a")
	if href != "" {
		a.CreateAttr("href", href)
	}
	e.RenderChildren(a, src)
}

func renderEmail(e *Engine, dst, src *etree.Element) {
	addr := jpts.TextOf(src)
	a := dst.CreateElement("a")
	a.CreateAttr("href", "mailto:"+addr)
	e.RenderChildren(a, src)
}
