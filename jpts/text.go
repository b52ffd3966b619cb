package jpts

import (
	"strings"

	"github.com/beevik/etree"
)

// AllText returns the concatenated character data of el and all of its
// descendants in document order. The tail text following el is not included.
func AllText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var b strings.Builder
	writeText(&b, el)
	return b.String()
}

func writeText(b *strings.Builder, el *etree.Element) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			writeText(b, t)
		}
	}
}

// NormalizeSpace collapses runs of whitespace to a single space and trims
// the result.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TextOf returns the normalized text of el, or "" when el is nil.
func TextOf(el *etree.Element) string {
	return NormalizeSpace(AllText(el))
}

// ChildText returns the normalized text of the first direct child of el
// named tag.
func ChildText(el *etree.Element, tag string) string {
	if el == nil {
		return ""
	}
	return TextOf(el.SelectElement(tag))
}

// Ancestors returns the element ancestors of el, nearest first. The
// document root's parent (the etree document node) is not included.
func Ancestors(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	for p := el.Parent(); p != nil && p.Tag != ""; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// HasAncestor reports whether any ancestor of el is named tag.
func HasAncestor(el *etree.Element, tag string) bool {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.Tag == tag {
			return true
		}
	}
	return false
}

// Href returns the xlink:href attribute of el.
func Href(el *etree.Element) string {
	if el == nil {
		return ""
	}
	if a := el.SelectAttr("xlink:href"); a != nil {
		return strings.TrimSpace(a.Value)
	}
	return strings.TrimSpace(el.SelectAttrValue("href", ""))
}
