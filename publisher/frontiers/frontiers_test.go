package frontiers

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/report"
	"github.com/simp-lee/oaepub/transform"
)

func loadArticle(t *testing.T) *jpts.Document {
	t.Helper()
	doc, err := jpts.ParseFile(filepath.Join("..", "..", "testdata", "frontiers_article.xml"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	return doc
}

func render(t *testing.T, doc *jpts.Document) (*transform.Result, *report.Report) {
	t.Helper()
	rep := report.New(doc.DOI(), nil)
	h := New(rep).(*Handler)
	md, err := h.ExtractMetadata(doc)
	if err != nil {
		t.Fatalf("ExtractMetadata() error = %v", err)
	}
	tree, err := h.ExtractBody(doc)
	if err != nil {
		t.Fatalf("ExtractBody() error = %v", err)
	}
	tree.Heading = func(e *transform.Engine, dst *etree.Element) { h.RenderHeading(e, dst, md) }
	tree.ArticleInfo = func(e *transform.Engine, dst *etree.Element) { h.RenderArticleInfo(e, dst, md) }
	e := transform.New(doc, transform.Options{Citation: h.FormatCitation, Report: rep})
	return e.Render(tree), rep
}

func serialize(t *testing.T, doc *etree.Document) string {
	t.Helper()
	b, err := transform.Serialize(doc)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return string(b)
}

func TestExtractMetadata(t *testing.T) {
	rep := report.New("", nil)
	md, err := New(rep).ExtractMetadata(loadArticle(t))
	if err != nil {
		t.Fatalf("ExtractMetadata() error = %v", err)
	}
	if md.JournalID != "Front. Psychol." || md.Journal != "Frontiers in Psychology" {
		t.Errorf("journal = %q / %q", md.JournalID, md.Journal)
	}
	if md.Dates.EPreprint.Month != 2 || md.Dates.Published.Day != 21 {
		t.Errorf("dates = %+v", md.Dates)
	}
	if len(md.Authors) != 2 || md.Authors[1].FileAs != "Okafor, C" {
		t.Errorf("authors = %+v", md.Authors)
	}
	if md.Funding != "" {
		t.Errorf("Funding = %q, want empty", md.Funding)
	}
	if rep.Len() != 0 {
		t.Errorf("unexpected warnings: %v", rep.Warnings())
	}
}

func TestCitationAuthors(t *testing.T) {
	person := func(s, g string) jpts.Contrib {
		return jpts.Contrib{Type: "author", Name: jpts.Name{Surname: s, GivenNames: g}}
	}
	tests := []struct {
		name    string
		authors []jpts.Contrib
		want    string
	}{
		{"none", nil, "Anonymous."},
		{"one", []jpts.Contrib{person("Martin", "Laura")}, "Martin, L."},
		{"two", []jpts.Contrib{person("Martin", "Laura"), person("Okafor", "Chidi")}, "Martin, L., and Okafor, C."},
		{"three", []jpts.Contrib{person("Martin", "Laura"), person("Okafor", "Chidi"), person("Ng", "A")}, "Martin, L., et al."},
		{"anonymous", []jpts.Contrib{{Anonymous: true}}, "Anonymous."},
		{"no given names", []jpts.Contrib{person("Plato", "")}, "Plato"},
	}
	for _, tt := range tests {
		if got := CitationAuthors(tt.authors); got != tt.want {
			t.Errorf("%s: CitationAuthors() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRenderFrontMatter(t *testing.T) {
	res, _ := render(t, loadArticle(t))
	out := serialize(t, res.Main)
	for _, want := range []string{
		`<h1 id="title" class="article-title">Attention and Memory in Everyday Tasks</h1>`,
		`<h3 class="authors">Laura Martin<sup><a href="#aff1">1</a></sup>, Chidi Okafor<sup><a href="#aff2">2</a></sup></h3>`,
		`<p id="aff1" class="affiliation"><sup>1</sup>University of Lyon, France</p>`,
		`<p id="keywords"><b>Keywords: </b>attention, memory</p>`,
		`<p id="article-citation"><b>Citation: </b>Martin, L., and Okafor, C. (2011). Attention and Memory in Everyday Tasks. <i>Front. Psychol.</i> <b>2</b>:42. 10.3389/fpsyg.2011.00042</p>`,
		`<p id="article-dates"><b>Received: </b>5 January 2011; <b>Paper pending published: </b>10 February 2011; <b>Accepted: </b>1 March 2011; <b>Published online: </b>21 March 2011.</p>`,
		`<p><b>Edited by: </b>Peter Novak, Charles University, Czech Republic</p>`,
		`<p><b>Reviewed by: </b>Ana Silva, University of Porto, Portugal</p>`,
		`<p id="copyright"><b>Copyright: </b>© 2011 Martin and Okafor. This is an open-access article subject to a non-exclusive license.</p>`,
		`<p id="fn001"><b>*Correspondence: </b>Laura Martin, University of Lyon, France. e-mail: laura.martin@example.fr</p>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("main document missing %q", want)
		}
	}
	if !strings.Contains(out, `<div id="abstract" class="abstract">`) {
		t.Error("abstract missing")
	}
}

func TestMixedReferences(t *testing.T) {
	res, rep := render(t, loadArticle(t))
	if !res.References {
		t.Fatal("no bibliography document")
	}
	out := serialize(t, res.Biblio)
	if !strings.Contains(out, "Attention in the wild") || !strings.Contains(out, "Cogn. Sci.") {
		t.Errorf("mixed citation not rendered verbatim:\n%s", out)
	}
	main := serialize(t, res.Main)
	if !strings.Contains(main, `href="biblio.fpsyg-2011-00042.xhtml#B1"`) {
		t.Error("bibliography cross-reference not linked to the biblio document")
	}
	if n := rep.Count(report.UnresolvedCrossReference); n != 0 {
		t.Errorf("unresolved cross-references = %d", n)
	}
}

func TestFormatCitation(t *testing.T) {
	h := New(nil)
	doc := loadArticle(t)
	refs := doc.References()
	if len(refs) != 1 {
		t.Fatalf("references = %d", len(refs))
	}
	if got := h.FormatCitation(refs[0]); got != transform.BranchMixed {
		t.Errorf("FormatCitation() = %v, want mixed", got)
	}
}

func TestExtractBody_Back(t *testing.T) {
	doc, err := jpts.ParseBytes([]byte(`<article><front><article-meta>
<article-id pub-id-type="doi">10.3389/fnins.2012.1</article-id>
<title-group><article-title>T</article-title></title-group>
</article-meta></front>
<body><p>x</p></body>
<back>
<ack><p>Thanks.</p></ack>
<sec id="s9"><title>Conflict of Interest Statement</title><p>None.</p></sec>
<bio><p>Who we are.</p></bio>
</back></article>`))
	if err != nil {
		t.Fatal(err)
	}
	rep := report.New(doc.DOI(), nil)
	tree, err := New(rep).ExtractBody(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Back) != 2 || tree.Back[0].ID != "acknowledgments" || tree.Back[1].Title != "Conflict of Interest Statement" {
		t.Errorf("back sections = %+v", tree.Back)
	}
	if rep.Count(report.SkippedContent) != 1 {
		t.Errorf("SkippedContent = %d, want 1 for <bio>", rep.Count(report.SkippedContent))
	}

	e := transform.New(doc, transform.Options{Report: rep})
	out := serialize(t, e.Render(tree).Main)
	if !strings.Contains(out, `<div id="s9" class="back-sec"><h2>Conflict of Interest Statement</h2>`) {
		t.Errorf("back section lost its source id:\n%s", out)
	}
}

func TestImageName(t *testing.T) {
	doc := loadArticle(t)
	got := New(nil).(*Handler).ImageName(doc, "fpsyg-02-00042-g001.tif")
	if want := "images-fpsyg.2011.00042/fpsyg-02-00042-g001"; got != want {
		t.Errorf("ImageName() = %q, want %q", got, want)
	}
}

func TestSplitMarker(t *testing.T) {
	tests := []struct{ in, marker, rest string }{
		{"*Correspondence: Jo", "*", "Jo"},
		{" †Correspondence:Jo", "†", "Jo"},
		{"Jo Smith", "", "Jo Smith"},
	}
	for _, tt := range tests {
		m, r := splitMarker(tt.in)
		if m != tt.marker || r != tt.rest {
			t.Errorf("splitMarker(%q) = %q, %q, want %q, %q", tt.in, m, r, tt.marker, tt.rest)
		}
	}
}
