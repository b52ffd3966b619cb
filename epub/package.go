package epub

import (
	"fmt"
	"strings"
)

// Well-known package paths.
const (
	// OPFDir is the directory holding the OPF file and every manifest item.
	OPFDir = "OEBPS"

	opfName = "content.opf"
	ncxName = "toc.ncx"
	ncxID   = "ncx"
)

// Package is an ePub 2 publication under construction.
//
// Items are kept in insertion order, so the manifest and spine of two
// packages built from the same input are identical. A Package is not safe
// for concurrent use.
type Package struct {
	Metadata Metadata

	// DocTitle is the NCX docTitle. It defaults to Metadata.Title.
	DocTitle string

	// DocAuthor is the NCX docAuthor. It is omitted when empty.
	DocAuthor string

	// Nav is the NCX navMap.
	Nav []NavPoint

	// Lists are written as NCX navLists after the navMap.
	Lists []NavList

	items  []Item
	byID   map[string]int
	byHref map[string]int
	spine  []SpineRef
}

// NewPackage creates an empty package described by md.
func NewPackage(md Metadata) *Package {
	return &Package{
		Metadata: md,
		byID:     make(map[string]int),
		byHref:   make(map[string]int),
	}
}

// AddDocument adds an XHTML document to the manifest and appends it to the
// spine. Non-linear documents are reachable by links only. It returns the
// manifest id.
func (p *Package) AddDocument(href string, data []byte, linear bool) (string, error) {
	id, err := p.AddResource(href, MediaTypeXHTML, data)
	if err != nil {
		return "", err
	}
	p.spine = append(p.spine, SpineRef{IDRef: id, Linear: linear})
	return id, nil
}

// AddResource adds a file to the manifest. An empty mediaType is derived
// from the extension of href. It returns the manifest id.
func (p *Package) AddResource(href, mediaType string, data []byte) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" || !isSafePath(href) || strings.HasPrefix(href, "/") {
		return "", fmt.Errorf("epub: invalid item path %q", href)
	}
	if href == opfName || href == ncxName {
		return "", fmt.Errorf("epub: item path %q is reserved", href)
	}
	if mediaType == "" {
		mediaType = MediaTypeByExt(href)
	}
	if mediaType == "" {
		return "", fmt.Errorf("epub: unknown media type for %s", href)
	}
	if _, ok := p.byHref[href]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateItem, href)
	}
	id := ItemID(href)
	if _, ok := p.byID[id]; ok || id == ncxID {
		return "", fmt.Errorf("%w: id %s (%s)", ErrDuplicateItem, id, href)
	}

	p.items = append(p.items, Item{ID: id, Href: href, MediaType: mediaType, Data: data})
	p.byID[id] = len(p.items) - 1
	p.byHref[href] = len(p.items) - 1
	return id, nil
}

// HasItem reports whether a manifest item with the given href exists.
func (p *Package) HasItem(href string) bool {
	_, ok := p.byHref[href]
	return ok
}

// Items returns the manifest items in insertion order.
func (p *Package) Items() []Item {
	return append([]Item(nil), p.items...)
}

// Spine returns the reading order.
func (p *Package) Spine() []SpineRef {
	return append([]SpineRef(nil), p.spine...)
}

// ItemID derives the manifest id of href: path separators and dots become
// dashes, and ids that would not start with a letter get an "x" prefix.
//
//	images-journal.pone.0012345/g001.png -> images-journal-pone-0012345-g001-png
func ItemID(href string) string {
	id := strings.Map(func(r rune) rune {
		switch r {
		case '/', '.', ' ', '#', '%':
			return '-'
		}
		return r
	}, href)
	if id == "" || !isLetter(id[0]) {
		id = "x" + id
	}
	return id
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

// Validate checks the invariants every written package must satisfy: a
// title, a unique identifier, at least one spine entry, spine entries that
// are manifest items, a navigation map, and navigation targets that resolve
// to anchors of spine documents. It returns an *IncompleteEpubError listing
// every violation.
func (p *Package) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Metadata.Title) == "" {
		problems = append(problems, "no title")
	}
	if strings.TrimSpace(p.Metadata.Identifier.Value) == "" {
		problems = append(problems, "no unique identifier")
	}
	if len(p.spine) == 0 {
		problems = append(problems, "no spine entries")
	}
	if len(p.Nav) == 0 {
		problems = append(problems, "empty navigation map")
	}

	inSpine := make(map[string]bool, len(p.spine))
	for _, ref := range p.spine {
		i, ok := p.byID[ref.IDRef]
		if !ok {
			problems = append(problems, fmt.Sprintf("spine entry %s is not in the manifest", ref.IDRef))
			continue
		}
		inSpine[p.items[i].Href] = true
	}

	anchors := make(map[string]map[string]bool)
	check := func(src string) {
		file, frag, _ := strings.Cut(src, "#")
		if !inSpine[file] {
			problems = append(problems, fmt.Sprintf("navigation target %s is not a spine document", src))
			return
		}
		if frag == "" {
			return
		}
		ids, ok := anchors[file]
		if !ok {
			ids = anchorIDs(p.items[p.byHref[file]].Data)
			anchors[file] = ids
		}
		if !ids[frag] {
			problems = append(problems, fmt.Sprintf("navigation target %s has no matching anchor", src))
		}
	}
	walkNav(p.Nav, func(np NavPoint, _ int) { check(np.Src) })
	for _, l := range p.Lists {
		for _, t := range l.Targets {
			check(t.Src)
		}
	}

	if len(problems) > 0 {
		return &IncompleteEpubError{Problems: problems}
	}
	return nil
}

// walkNav calls fn for every navigation point in document order with its
// depth, starting at 1.
func walkNav(points []NavPoint, fn func(NavPoint, int)) {
	var walk func([]NavPoint, int)
	walk = func(points []NavPoint, depth int) {
		for _, np := range points {
			fn(np, depth)
			walk(np.Children, depth+1)
		}
	}
	walk(points, 1)
}
