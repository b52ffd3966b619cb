package epub

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// xhtmlScan is what the checker needs from a content document.
type xhtmlScan struct {
	// ids holds every id attribute value, plus the name of <a name>.
	ids map[string]bool

	// images holds the src of every <img> and the href of every SVG
	// <image>, as written.
	images []string

	// links holds the href of every <a>, as written.
	links []string
}

// scanXHTML tokenizes a content document. Tokenizing is lenient, so a
// malformed document yields whatever was seen before the error.
func scanXHTML(data []byte) xhtmlScan {
	s := xhtmlScan{ids: make(map[string]bool)}
	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return s
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := z.TagName()
			if !hasAttr {
				continue
			}
			a := atom.Lookup(tn)
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				if len(val) == 0 {
					continue
				}
				switch k := string(key); {
				case k == "id":
					s.ids[string(val)] = true
				case k == "name" && a == atom.A:
					s.ids[string(val)] = true
				case k == "src" && a == atom.Img:
					s.images = append(s.images, string(val))
				case (k == "href" || k == "xlink:href") && a == atom.Image:
					s.images = append(s.images, string(val))
				case k == "href" && a == atom.A:
					s.links = append(s.links, string(val))
				}
			}
		}
	}
}

// anchorIDs returns the anchor ids of a content document.
func anchorIDs(data []byte) map[string]bool {
	return scanXHTML(data).ids
}
