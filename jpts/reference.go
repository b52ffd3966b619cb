package jpts

import (
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// citationTags are the elements that may carry a reference's citation, in
// the order they are looked up.
var citationTags = []string{"element-citation", "mixed-citation", "nlm-citation", "citation"}

// Reference is one back/ref-list/ref.
type Reference struct {
	ID    string
	Label string

	// Node is the <ref> element.
	Node *etree.Element

	// Citation is the citation child of the ref, or nil.
	Citation *etree.Element

	// Tag is the citation element name ("element-citation", "nlm-citation", ...).
	Tag string

	// PublicationType is publication-type, falling back to citation-type.
	PublicationType string
}

// References returns every ref of the back matter in document order,
// including refs of nested ref-lists.
func (d *Document) References() []*Reference {
	if d.back == nil {
		return nil
	}
	var out []*Reference
	for _, el := range d.back.FindElements(".//ref-list/ref") {
		out = append(out, NewReference(el))
	}
	return out
}

// NewReference builds a Reference from a <ref> element.
func NewReference(el *etree.Element) *Reference {
	r := &Reference{
		ID:    el.SelectAttrValue("id", ""),
		Label: ChildText(el, "label"),
		Node:  el,
	}
	for _, tag := range citationTags {
		if c := el.SelectElement(tag); c != nil {
			r.Citation = c
			r.Tag = tag
			break
		}
	}
	if r.Citation != nil {
		r.PublicationType = r.Citation.SelectAttrValue("publication-type", "")
		if r.PublicationType == "" {
			r.PublicationType = r.Citation.SelectAttrValue("citation-type", "")
		}
	}
	return r
}

// Legacy reports whether the citation uses the pre-3.0 nlm-citation element.
func (r *Reference) Legacy() bool {
	return r.Tag == "nlm-citation"
}

// Field returns the first direct child of the citation named tag, or nil.
func (r *Reference) Field(tag string) *etree.Element {
	if r.Citation == nil {
		return nil
	}
	return r.Citation.SelectElement(tag)
}

// FieldText returns the normalized text of Field(tag).
func (r *Reference) FieldText(tag string) string {
	return TextOf(r.Field(tag))
}

// PersonGroups returns the person-group children of the citation.
func (r *Reference) PersonGroups() []*etree.Element {
	if r.Citation == nil {
		return nil
	}
	return r.Citation.SelectElements("person-group")
}

// PersonGroup returns the first person-group with the given
// person-group-type, or nil.
func (r *Reference) PersonGroup(groupType string) *etree.Element {
	for _, pg := range r.PersonGroups() {
		if pg.SelectAttrValue("person-group-type", "") == groupType {
			return pg
		}
	}
	return nil
}

// Collabs returns the collab children of the citation.
func (r *Reference) Collabs() []*etree.Element {
	if r.Citation == nil {
		return nil
	}
	return r.Citation.SelectElements("collab")
}

// Names returns the names of a citation without person-groups, as found in
// some legacy citations that list <name> directly.
func (r *Reference) Names() []*etree.Element {
	if r.Citation == nil {
		return nil
	}
	return r.Citation.SelectElements("name")
}

// DOI returns pub-id[@pub-id-type="doi"] of the citation.
func (r *Reference) DOI() string {
	if r.Citation == nil {
		return ""
	}
	for _, p := range r.Citation.SelectElements("pub-id") {
		if p.SelectAttrValue("pub-id-type", "") == "doi" {
			return TextOf(p)
		}
	}
	return ""
}

// labelNumber parses a reference label such as "12", "[12]" or "12." into
// its number.
func labelNumber(label string) (int, bool) {
	label = strings.Trim(strings.TrimSpace(label), "[]().")
	n, err := strconv.Atoi(label)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortByLabel orders refs numerically by label. Refs without a numeric
// label keep their relative order after the numbered ones.
func SortByLabel(refs []*Reference) {
	sort.SliceStable(refs, func(i, j int) bool {
		ni, oki := labelNumber(refs[i].Label)
		nj, okj := labelNumber(refs[j].Label)
		switch {
		case oki && okj:
			return ni < nj
		case oki:
			return true
		default:
			return false
		}
	})
}
