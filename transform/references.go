package transform

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
)

// renderReferences builds the bibliography document. References are
// ordered by their numeric label.
func (e *Engine) renderReferences(title string, refs []*jpts.Reference) *etree.Document {
	saved := e.cur
	e.cur = DocBiblio
	defer func() { e.cur = saved }()

	doc, body := NewXHTML(title + " - References")
	h := body.CreateElement("h2")
	h.CreateAttr("id", e.Reserve("references"))
	h.SetText("References")

	sorted := make([]*jpts.Reference, len(refs))
	copy(sorted, refs)
	jpts.SortByLabel(sorted)

	for _, ref := range sorted {
		div := e.Element(body, "div", ref.Node)
		div.CreateAttr("class", "ref")
		p := div.CreateElement("p")
		if ref.Label != "" {
			label := ref.Label
			if !strings.HasSuffix(label, ".") {
				label += "."
			}
			e.Text(p.CreateElement("b"), label)
			e.Text(p, " ")
		}
		e.RenderCitation(p, ref, e.opts.Citation(ref))
		if e.opts.ReferenceLinks != nil {
			e.opts.ReferenceLinks(e, p, ref)
		}
	}
	return doc
}
