package transform

// untitledHeading labels an untitled section that has titled subsections.
const untitledHeading = "Item title not found!"

type outlineNode struct {
	heading Heading
	kids    []*outlineNode
}

func (n *outlineNode) headings() []Heading {
	var out []Heading
	for _, k := range n.kids {
		h := k.heading
		h.Children = k.headings()
		if h.Title == "" {
			if len(h.Children) == 0 {
				continue
			}
			h.Title = untitledHeading
		}
		out = append(out, h)
	}
	return out
}

func (e *Engine) pushHeading(id, title string) {
	n := &outlineNode{heading: Heading{
		ID:    id,
		Title: title,
		Href:  e.opts.Files.Main + "#" + id,
	}}
	top := e.stack[len(e.stack)-1]
	top.kids = append(top.kids, n)
	e.stack = append(e.stack, n)
}

func (e *Engine) popHeading() {
	e.stack = e.stack[:len(e.stack)-1]
}
