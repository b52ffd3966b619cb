// Package transform renders the body and back matter of a JPTS article into
// XHTML documents.
//
// Rendering is table driven: each source element is matched against a
// [Table] of [Rule] values and the winning rule writes its output. Before
// rendering, every anchorable node of the article is assigned a stable id
// (see [Anchors]) so that cross-references resolve to the document their
// target lands in.
package transform

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/report"
)

// Hook writes publisher-specific content into dst.
type Hook func(e *Engine, dst *etree.Element)

// ReferenceHook decorates the rendered entry of one reference.
type ReferenceHook func(e *Engine, dst *etree.Element, ref *jpts.Reference)

// ImageSet maps graphic references to package paths. A reference that is
// absent was not found by the image resolver.
type ImageSet map[string]string

// Lookup returns the package path of ref.
func (s ImageSet) Lookup(ref string) (string, bool) {
	p, ok := s[ref]
	return p, ok
}

// Options configures an Engine.
type Options struct {
	// Files names the output documents. Defaults to FilesFor(DOI fragment).
	Files Files

	// Rules are appended after DefaultRules and win ties against them.
	Rules []Rule

	// Images holds the resolved graphic references.
	Images ImageSet

	// Citation picks the citation branch of a reference. Defaults to
	// SelectBranch.
	Citation func(*jpts.Reference) Branch

	// ReferenceLinks, when set, decorates every bibliography entry.
	ReferenceLinks ReferenceHook

	Report *report.Report
	Logger *zap.Logger
}

// Engine renders one article. An Engine is single use and not safe for
// concurrent use.
type Engine struct {
	doc     *jpts.Document
	opts    Options
	rules   *Table
	anchors *Anchors
	report  *report.Report
	log     *zap.Logger

	cur DocKind

	depth   int
	inBody  bool
	outline outlineNode
	stack   []*outlineNode

	figures []Target
	tables  []Target

	// sections outside the body, split at the body.
	front, back []Heading
	bodyDone    bool

	tablesDoc  *etree.Document
	tablesBody *etree.Element
}

// New prepares an engine for doc and assigns anchors to every anchorable
// node.
func New(doc *jpts.Document, opts Options) *Engine {
	if opts.Files == (Files{}) {
		opts.Files = FilesFor(doc.DOIFragment())
	}
	if opts.Citation == nil {
		opts.Citation = SelectBranch
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Report == nil {
		opts.Report = report.New(doc.DOI(), opts.Logger)
	}
	e := &Engine{
		doc:     doc,
		opts:    opts,
		rules:   NewTable(DefaultRules()...),
		anchors: BuildAnchors(doc),
		report:  opts.Report,
		log:     opts.Logger,
	}
	e.rules.Add(opts.Rules...)
	return e
}

// Doc returns the article being rendered.
func (e *Engine) Doc() *jpts.Document { return e.doc }

// Report returns the warning sink.
func (e *Engine) Report() *report.Report { return e.report }

// Files returns the output document names.
func (e *Engine) Files() Files { return e.opts.Files }

// Anchors returns the anchor assignment of the article.
func (e *Engine) Anchors() *Anchors { return e.anchors }

// Render produces the documents of an article from its content tree.
// Heading, ArticleInfo and BackMatter are optional hooks run at their place
// in the main document.
func (e *Engine) Render(t *Tree) *Result {
	title := e.doc.Title()
	mainDoc, body := NewXHTML(title)
	e.tablesDoc, e.tablesBody = NewXHTML(title + " - Tables")
	e.stack = []*outlineNode{&e.outline}

	e.cur = DocMain
	if t.Heading != nil {
		t.Heading(e, body)
	}
	for _, s := range t.Abstracts {
		e.RenderSection(body, s)
	}
	if t.ArticleInfo != nil {
		t.ArticleInfo(e, body)
	}
	if t.Body != nil {
		e.inBody = true
		e.RenderChildren(body, t.Body)
		e.inBody = false
	}
	e.bodyDone = true
	if t.BackMatter != nil {
		t.BackMatter(e, body)
	}
	for _, s := range t.Back {
		e.RenderSection(body, s)
	}

	res := &Result{
		Files:     e.opts.Files,
		Main:      mainDoc,
		Outline:   e.outline.headings(),
		Front:     e.front,
		Back:      e.back,
		Figures:   e.figures,
		TableList: e.tables,
	}
	if len(t.References) > 0 {
		res.Biblio = e.renderReferences(title, t.References)
		res.References = true
	}
	if len(e.tablesBody.ChildElements()) > 0 {
		res.Tables = e.tablesDoc
		res.HasTables = true
	}
	e.log.Debug("article rendered",
		zap.String("doi", e.doc.DOI()),
		zap.Int("figures", len(e.figures)),
		zap.Int("tables", len(e.tables)),
		zap.Int("references", len(t.References)))
	return res
}

// RenderSection renders a titled block as a div with an h2 heading. Titled
// blocks of the main document are listed in Result.Front or Result.Back.
func (e *Engine) RenderSection(dst *etree.Element, s Section) {
	if s.Node == nil {
		return
	}
	div := dst.CreateElement("div")
	id := e.AnchorID(s.Node)
	if s.ID != "" {
		id = e.anchors.Reserve(s.ID)
	}
	if id != "" {
		div.CreateAttr("id", id)
	}
	if s.Title != "" && id != "" && e.cur == DocMain {
		h := Heading{ID: id, Title: s.Title, Href: e.opts.Files.Main + "#" + id}
		if e.bodyDone {
			e.back = append(e.back, h)
		} else {
			e.front = append(e.front, h)
		}
	}
	if s.Class != "" {
		div.CreateAttr("class", s.Class)
	}
	if nodeID := e.sourceAnchor(s.Node); nodeID != "" && nodeID != id {
		// Cross-references resolve to the node's anchor, not the fixed id.
		e.anchorTarget(div, nodeID)
	}
	if s.Title != "" {
		e.Text(div.CreateElement("h2"), s.Title)
	}
	saved := e.depth
	e.depth = 0
	e.RenderChildrenExcept(div, s.Node, "title", "label")
	e.depth = saved
}

// RenderNode renders src into dst using the rule table. Elements without a
// rule are unwrapped: their children are rendered in place and a warning is
// recorded.
func (e *Engine) RenderNode(dst, src *etree.Element) {
	rule, ok := e.rules.Match(src)
	if !ok {
		e.report.Add(report.UnmatchedNode, fmt.Sprintf("no rule for <%s>; content passed through", src.FullTag()), PathID(src))
		e.RenderChildren(dst, src)
		return
	}
	if rule.Render != nil {
		rule.Render(e, dst, src)
	}
}

// RenderChildren renders the character data and child elements of src in
// document order.
func (e *Engine) RenderChildren(dst, src *etree.Element) {
	e.RenderChildrenExcept(dst, src)
}

// RenderChildrenExcept is RenderChildren skipping child elements with the
// given names.
func (e *Engine) RenderChildrenExcept(dst, src *etree.Element, skip ...string) {
	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			e.Text(dst, t.Data)
		case *etree.Element:
			if contains(skip, t.Tag) {
				continue
			}
			e.RenderNode(dst, t)
		}
	}
}

// Text appends s to dst, soft-breaking over-long words.
func (e *Engine) Text(dst *etree.Element, s string) {
	if s == "" {
		return
	}
	dst.CreateText(SoftBreak(s))
}

// Element creates a child of dst named tag carrying the anchor of src.
func (e *Engine) Element(dst *etree.Element, tag string, src *etree.Element) *etree.Element {
	el := dst.CreateElement(tag)
	if id := e.AnchorID(src); id != "" {
		el.CreateAttr("id", id)
	}
	return el
}

// KeepAnchor writes the anchor of src as an empty <a> in dst, for source
// elements with an id whose content is rendered without a wrapper of their
// own.
func (e *Engine) KeepAnchor(dst, src *etree.Element) {
	if id := e.sourceAnchor(src); id != "" {
		e.anchorTarget(dst, id)
	}
}

// sourceAnchor is AnchorID for elements that carry a source id, the only
// ones a cross-reference can target.
func (e *Engine) sourceAnchor(src *etree.Element) string {
	if src.SelectAttrValue("id", "") == "" {
		return ""
	}
	return e.AnchorID(src)
}

func (e *Engine) anchorTarget(dst *etree.Element, id string) {
	a := dst.CreateElement("a")
	a.CreateAttr("id", id)
}

// AnchorID returns the id assigned to src, or "" when src is not anchorable.
func (e *Engine) AnchorID(src *etree.Element) string {
	if an, ok := e.anchors.For(src); ok {
		return an.ID
	}
	return ""
}

// Reserve registers a handler-chosen id and returns its unique form.
func (e *Engine) Reserve(id string) string {
	return e.anchors.Reserve(id)
}

// Href returns the link to an anchor from the document being rendered.
func (e *Engine) Href(an Anchor) string {
	if an.Doc == e.cur {
		return "#" + an.ID
	}
	return e.opts.Files.Name(an.Doc) + "#" + an.ID
}

// LinkTo returns the href of the element with source id rid. Unknown ids
// yield a local fragment and an UnresolvedCrossReference warning.
func (e *Engine) LinkTo(rid, location string) string {
	if an, ok := e.anchors.Resolve(rid); ok {
		return e.Href(an)
	}
	e.report.Add(report.UnresolvedCrossReference, fmt.Sprintf("cross-reference target %q not found", rid), location)
	return "#" + SanitizeID(rid)
}

// Image appends an <img> for the graphic src, or a placeholder span when
// the image was not resolved.
func (e *Engine) Image(dst, src *etree.Element, alt, class string) {
	ref := jpts.Href(src)
	path, ok := e.opts.Images.Lookup(ref)
	if !ok {
		span := dst.CreateElement("span")
		span.CreateAttr("class", "missing-image")
		e.Text(span, "[Image not available: "+ref+"]")
		return
	}
	img := dst.CreateElement("img")
	img.CreateAttr("src", path)
	img.CreateAttr("alt", alt)
	if class != "" {
		img.CreateAttr("class", class)
	}
}

// ImageRefs returns the distinct graphic references below root, in
// document order.
func ImageRefs(root *etree.Element) []string {
	if root == nil {
		return nil
	}
	seen := make(map[string]bool)
	var refs []string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.Tag == "graphic" || el.Tag == "inline-graphic" {
			if ref := jpts.Href(el); ref != "" && !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(root)
	return refs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// isBlank reports whether el has no child elements and only whitespace text.
func isBlank(el *etree.Element) bool {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			return false
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return false
			}
		}
	}
	return true
}
