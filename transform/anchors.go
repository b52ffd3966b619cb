package transform

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
)

// anchorTags are the elements that always receive an anchor, whether or not
// the source gives them an id.
var anchorTags = map[string]bool{
	"p": true, "sec": true, "fig": true, "table-wrap": true, "disp-formula": true,
	"fn": true, "ref": true, "supplementary-material": true, "boxed-text": true,
	"list": true, "def-list": true, "app": true, "ack": true, "glossary": true,
	"notes": true, "abstract": true, "aff": true, "corresp": true,
	"disp-quote": true, "verse-group": true,
}

// Anchor is a generated XHTML id and the document it lands in.
type Anchor struct {
	ID  string
	Doc DocKind
}

// Anchors assigns every anchorable node of an article a stable,
// collision-free id.
//
// Source ids are kept (sanitised, with a -N suffix when two sanitise to
// the same value) on their first occurrence. Every other
// anchorable node gets an id built from its structural path: the ancestor
// chain below <article>, each step the tag name followed by the 1-based
// index among same-tag siblings ("body1-sec2-sec1-p3"). Ids are assigned in
// document order, so the same input always yields the same ids.
type Anchors struct {
	byElement map[*etree.Element]Anchor
	bySource  map[string]*etree.Element
	used      map[string]bool
}

// BuildAnchors walks the whole article and assigns anchors.
func BuildAnchors(doc *jpts.Document) *Anchors {
	a := &Anchors{
		byElement: make(map[*etree.Element]Anchor),
		bySource:  make(map[string]*etree.Element),
		used:      make(map[string]bool),
	}
	root := doc.Root()

	var nodes []*etree.Element
	var collect func(el *etree.Element)
	collect = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if c.SelectAttrValue("id", "") != "" || anchorTags[c.Tag] {
				nodes = append(nodes, c)
			}
			collect(c)
		}
	}
	collect(root)

	// Explicit ids first, so generated ids can never steal them.
	for _, el := range nodes {
		src := el.SelectAttrValue("id", "")
		if src == "" {
			continue
		}
		if _, dup := a.bySource[src]; dup {
			continue
		}
		id := a.Reserve(src)
		a.bySource[src] = el
		a.byElement[el] = Anchor{ID: id, Doc: docKindOf(el)}
	}
	for _, el := range nodes {
		if _, ok := a.byElement[el]; ok {
			continue
		}
		a.byElement[el] = Anchor{ID: a.Reserve(PathID(el)), Doc: docKindOf(el)}
	}
	return a
}

// For returns the anchor of el. The second result is false for nodes that
// are not anchorable.
func (a *Anchors) For(el *etree.Element) (Anchor, bool) {
	an, ok := a.byElement[el]
	return an, ok
}

// Resolve looks up the anchor of the element whose source id is rid.
func (a *Anchors) Resolve(rid string) (Anchor, bool) {
	el, ok := a.bySource[rid]
	if !ok {
		return Anchor{}, false
	}
	return a.byElement[el], true
}

// Element returns the source element with the given source id.
func (a *Anchors) Element(rid string) *etree.Element {
	return a.bySource[rid]
}

// Reserve registers id, or the first free "id-N" variant, and returns the
// registered value.
func (a *Anchors) Reserve(id string) string {
	id = SanitizeID(id)
	if !a.used[id] {
		a.used[id] = true
		return id
	}
	for n := 2; ; n++ {
		cand := id + "-" + strconv.Itoa(n)
		if !a.used[cand] {
			a.used[cand] = true
			return cand
		}
	}
}

func docKindOf(el *etree.Element) DocKind {
	if jpts.HasAncestor(el, "ref-list") && jpts.HasAncestor(el, "back") {
		return DocBiblio
	}
	// Tables shown both as an image and as markup move to the tables
	// document, together with their footnotes.
	for cur, child := el.Parent(), el; cur != nil && cur.Tag != ""; cur, child = cur.Parent(), cur {
		if cur.Tag == "table-wrap" && movesToTables(cur) && child.Tag != "caption" && child.Tag != "label" {
			return DocTables
		}
	}
	return DocMain
}

// movesToTables reports whether a table-wrap carries both a graphic and a
// table, in which case its markup goes to the tables document.
func movesToTables(tw *etree.Element) bool {
	if tw.SelectElement("graphic") == nil {
		return false
	}
	return tw.SelectElement("table") != nil || tw.FindElement("./alternatives/table") != nil
}

// PathID returns the structural id of el: the tag and same-tag sibling
// index of each element from below <article> down to el, joined by "-".
func PathID(el *etree.Element) string {
	var parts []string
	for cur := el; cur != nil && cur.Tag != "" && cur.Tag != "article"; cur = cur.Parent() {
		parts = append(parts, cur.Tag+strconv.Itoa(sameTagIndex(cur)))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "-")
}

func sameTagIndex(el *etree.Element) int {
	parent := el.Parent()
	if parent == nil {
		return 1
	}
	n := 0
	for _, sib := range parent.ChildElements() {
		if sib.Tag == el.Tag {
			n++
		}
		if sib == el {
			return n
		}
	}
	return n
}

// SanitizeID makes s usable as an XHTML id: dots and any character outside
// [A-Za-z0-9_-] become dashes, and a leading non-letter gets an "id-" prefix.
func SanitizeID(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "id"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := b.String()
	if c := out[0]; !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		out = "id-" + out
	}
	return out
}
