package oaepub

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/simp-lee/oaepub/config"
	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/images"
	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/report"
)

const (
	plosInput      = "testdata/plos_article.xml"
	frontiersInput = "testdata/frontiers_article.xml"
	plosDOI        = "10.1371/journal.pone.0012345"
	frontiersDOI   = "10.3389/fpsyg.2011.00042"
)

// pngBytes returns a small valid PNG image.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// plosImages serves every graphic of the PLoS fixture.
func plosImages(t *testing.T) images.MapResolver {
	data := pngBytes(t)
	return images.MapResolver{"g001": data, "t001": data, "e001": data}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.Workers = 2
	return cfg
}

// writeArticle writes a minimal article with the given DOI to dir.
func writeArticle(t *testing.T, dir, name, doi string) string {
	t.Helper()
	id := ""
	if doi != "" {
		id = `<article-id pub-id-type="doi">` + doi + `</article-id>`
	}
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<article xmlns:xlink="http://www.w3.org/1999/xlink"><front><article-meta>` + id + `
<title-group><article-title>Stub</article-title></title-group></article-meta></front>
<body><sec><title>Only</title><p>Text.</p></sec></body></article>`
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(xml), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// unexpectedErrors returns the error issues other than the dangling link
// the PLoS fixture makes on purpose.
func unexpectedErrors(issues []epub.Issue) []epub.Issue {
	var out []epub.Issue
	for _, i := range issues {
		if i.Severity != epub.SeverityError {
			continue
		}
		if i.Code == "RSC-012" && strings.Contains(i.Message, "#missing-ref") {
			continue
		}
		out = append(out, i)
	}
	return out
}

func countCode(issues []epub.Issue, code string) int {
	n := 0
	for _, i := range issues {
		if i.Code == code {
			n++
		}
	}
	return n
}

func countKind(ws []report.Warning, kind report.Kind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

func TestConvertFile_PLoS(t *testing.T) {
	cfg := testConfig(t)
	c := New(cfg, WithResolver(plosImages(t)))

	res, err := c.ConvertFile(context.Background(), plosInput)
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if !res.OK() {
		t.Fatalf("OK() = false, Err = %v", res.Err)
	}
	if want := filepath.Join(cfg.OutputDir, "journal.pone.0012345.epub"); res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if res.DOI != plosDOI || res.Publisher != "plos" {
		t.Errorf("DOI, Publisher = %q, %q", res.DOI, res.Publisher)
	}
	if n := countKind(res.Warnings, report.ImageNotFound); n != 0 {
		t.Errorf("ImageNotFound warnings = %d, want 0", n)
	}
	if errs := unexpectedErrors(res.Issues); len(errs) > 0 {
		t.Errorf("validation issues: %v", errs)
	}
	if n := countCode(res.Issues, "RSC-012"); n != 1 {
		t.Errorf("RSC-012 issues = %d, want 1 for the dangling citation", n)
	}

	a, err := epub.Open(res.Output)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	md := a.Metadata()
	if md.Identifier.Value != plosDOI {
		t.Errorf("identifier = %q", md.Identifier.Value)
	}
	if md.Language != "en" {
		t.Errorf("language = %q", md.Language)
	}

	spine := a.Spine()
	if len(spine) != 3 {
		t.Fatalf("spine has %d entries, want 3", len(spine))
	}
	for i, want := range []bool{true, true, false} {
		if spine[i].Linear != want {
			t.Errorf("spine[%d].Linear = %v, want %v", i, spine[i].Linear, want)
		}
		if _, ok := a.Item(spine[i].IDRef); !ok {
			t.Errorf("spine[%d] %q is not in the manifest", i, spine[i].IDRef)
		}
	}

	var hasImage, hasCSS bool
	for _, it := range a.Items() {
		switch it.Href {
		case "images-journal.pone.0012345/g001.png":
			hasImage = it.MediaType == "image/png"
		case "css/article.css":
			hasCSS = true
		}
	}
	if !hasImage || !hasCSS {
		t.Errorf("manifest image = %v, stylesheet = %v", hasImage, hasCSS)
	}

	nav := a.Nav()
	if len(nav) < 3 {
		t.Fatalf("nav has %d entries", len(nav))
	}
	if nav[0].ID != "titlepage" || nav[0].Label != "Title Page" {
		t.Errorf("nav[0] = %+v", nav[0])
	}
	if last := nav[len(nav)-1]; last.ID != "references" || !strings.HasPrefix(last.Src, "biblio.") {
		t.Errorf("last nav entry = %+v", last)
	}

	var figures int
	for _, l := range a.Lists() {
		if l.ID == "lof" {
			figures = len(l.Targets)
		}
	}
	if figures != 1 {
		t.Errorf("list of figures has %d targets, want 1", figures)
	}
}

func TestConvertFile_MissingImages(t *testing.T) {
	c := New(testConfig(t))

	res, err := c.ConvertFile(context.Background(), plosInput)
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if n := countKind(res.Warnings, report.ImageNotFound); n != 3 {
		t.Errorf("ImageNotFound warnings = %d, want 3", n)
	}

	a, err := epub.Open(res.Output)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()
	for _, it := range a.Items() {
		if strings.HasPrefix(it.MediaType, "image/") {
			t.Errorf("unexpected image item %s", it.Href)
		}
	}
}

func TestConvertFile_Frontiers(t *testing.T) {
	c := New(testConfig(t))

	res, err := c.ConvertFile(context.Background(), frontiersInput)
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if res.Publisher != "frontiers" {
		t.Errorf("Publisher = %q", res.Publisher)
	}
	if !strings.HasSuffix(res.Output, "fpsyg.2011.00042.epub") {
		t.Errorf("Output = %q", res.Output)
	}
	if epub.HasErrors(res.Issues) {
		t.Errorf("validation issues: %v", res.Issues)
	}
}

func TestConvertFile_Deterministic(t *testing.T) {
	var outputs [][]byte
	for i := 0; i < 2; i++ {
		c := New(testConfig(t), WithResolver(plosImages(t)))
		res, err := c.ConvertFile(context.Background(), plosInput)
		if err != nil {
			t.Fatalf("ConvertFile() error = %v", err)
		}
		data, err := os.ReadFile(res.Output)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("two conversions of the same input differ")
	}
}

func TestConvertFile_UnknownEntity(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "entity.xml")
	xml := `<article><front><article-meta><article-id pub-id-type="doi">10.9999/other.2</article-id>
<title-group><article-title>A &notit; B</article-title></title-group></article-meta></front></article>`
	if err := os.WriteFile(input, []byte(xml), 0o644); err != nil {
		t.Fatal(err)
	}

	res, _ := New(testConfig(t)).ConvertFile(context.Background(), input)
	if res.DOI != "10.9999/other.2" {
		t.Fatalf("DOI = %q; the document did not parse", res.DOI)
	}
	if n := countKind(res.Warnings, report.UnknownEntity); n != 1 {
		t.Errorf("UnknownEntity warnings = %d, want 1", n)
	}
}

func TestConvertFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unsupported publisher", writeArticle(t, dir, "other.xml", "10.9999/other.1"), publisher.ErrUnsupportedPublisher},
		{"missing DOI", writeArticle(t, dir, "nodoi.xml", ""), publisher.ErrMalformedArticle},
		{"missing file", filepath.Join(dir, "absent.xml"), os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			res, err := New(cfg).ConvertFile(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if res == nil || res.OK() || res.Err != err {
				t.Errorf("result = %+v", res)
			}
			entries, _ := os.ReadDir(cfg.OutputDir)
			if len(entries) != 0 {
				t.Errorf("output dir has %d entries", len(entries))
			}
		})
	}

	t.Run("not an article", func(t *testing.T) {
		p := filepath.Join(dir, "book.xml")
		if err := os.WriteFile(p, []byte("<book/>"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := New(testConfig(t)).ConvertFile(context.Background(), p)
		if !errors.Is(err, jpts.ErrNotArticle) {
			t.Errorf("error = %v, want ErrNotArticle", err)
		}
	})
}

func TestConvertFile_Overwrite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Overwrite = false
	c := New(cfg)

	if _, err := c.ConvertFile(context.Background(), frontiersInput); err != nil {
		t.Fatalf("first ConvertFile() error = %v", err)
	}
	_, err := c.ConvertFile(context.Background(), frontiersInput)
	if !errors.Is(err, ErrOutputExists) {
		t.Errorf("second ConvertFile() error = %v, want ErrOutputExists", err)
	}
}

func TestConvertFile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testConfig(t)).ConvertFile(ctx, plosInput)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestConvertFile_CustomRegistry(t *testing.T) {
	dir := t.TempDir()
	input := writeArticle(t, dir, "custom.xml", "10.9999/custom.7")

	reg := DefaultRegistry()
	reg.Register("10.9999", func(r *report.Report) publisher.Handler {
		f, _ := DefaultRegistry().Resolve("10.3389")
		return f(r)
	})
	res, err := New(testConfig(t), WithRegistry(reg)).ConvertFile(context.Background(), input)
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if res.Publisher != "frontiers" {
		t.Errorf("Publisher = %q", res.Publisher)
	}

	if _, err := DefaultRegistry().ResolveDOI("10.9999/custom.7"); !errors.Is(err, publisher.ErrUnsupportedPublisher) {
		t.Errorf("registration leaked into a new default registry: %v", err)
	}
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	bad := writeArticle(t, dir, "other.xml", "10.9999/other.1")
	inputs := []string{plosInput, bad, frontiersInput}

	results := New(testConfig(t)).ConvertBatch(context.Background(), inputs)
	if len(results) != len(inputs) {
		t.Fatalf("got %d results, want %d", len(results), len(inputs))
	}
	for i, r := range results {
		if r.Input != inputs[i] {
			t.Errorf("results[%d].Input = %q, want %q", i, r.Input, inputs[i])
		}
	}
	if !results[0].OK() || results[1].OK() || !results[2].OK() {
		t.Errorf("OK = %v %v %v", results[0].OK(), results[1].OK(), results[2].OK())
	}
	if f := Failed(results); len(f) != 1 || f[0].Input != bad {
		t.Errorf("Failed() = %+v", f)
	}
	for _, r := range []Result{results[0], results[2]} {
		if _, err := os.Stat(r.Output); err != nil {
			t.Errorf("output of %s: %v", r.Input, err)
		}
	}
}

func TestConvertCollection(t *testing.T) {
	dir := t.TempDir()
	bad := writeArticle(t, dir, "other.xml", "10.9999/other.1")
	abs := func(p string) string {
		a, err := filepath.Abs(p)
		if err != nil {
			t.Fatal(err)
		}
		return a
	}
	order := filepath.Join(dir, "order.txt")
	content := "# reading order\n" + abs(frontiersInput) + "\n\nother.xml\n" + abs(plosInput) + "\n"
	if err := os.WriteFile(order, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	c := New(cfg, WithResolver(plosImages(t)))
	res, err := c.ConvertCollection(context.Background(), nil, CollectionOptions{Name: "Soil and Mind", OrderFile: order})
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}
	if want := filepath.Join(cfg.OutputDir, "soil-and-mind.epub"); res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if !strings.HasPrefix(res.ID, "urn:uuid:") {
		t.Errorf("ID = %q", res.ID)
	}
	if len(res.Articles) != 3 {
		t.Fatalf("got %d article results, want 3", len(res.Articles))
	}
	if res.Articles[1].Input != bad || res.Articles[1].OK() {
		t.Errorf("Articles[1] = %+v, want the failed stub", res.Articles[1])
	}
	if errs := unexpectedErrors(res.Issues); len(errs) > 0 {
		t.Errorf("validation issues: %v", errs)
	}

	a, err := epub.Open(res.Output)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	if a.DocTitle() != CollectionDocTitle {
		t.Errorf("DocTitle() = %q", a.DocTitle())
	}
	md := a.Metadata()
	if md.Title != "Soil and Mind" || md.Identifier.Value != res.ID {
		t.Errorf("title, identifier = %q, %q", md.Title, md.Identifier.Value)
	}
	nav := a.Nav()
	if len(nav) != 2 {
		t.Fatalf("nav has %d entries, want 2", len(nav))
	}
	if nav[0].ID != "article-fpsyg-2011-00042" || nav[1].ID != "article-journal-pone-0012345" {
		t.Errorf("nav ids = %q, %q", nav[0].ID, nav[1].ID)
	}
	if len(a.Spine()) != 5 {
		t.Errorf("spine has %d entries, want 5", len(a.Spine()))
	}

	// Same articles in the same order give the same identifier.
	again, err := c.ConvertCollection(context.Background(), nil, CollectionOptions{Name: "Soil and Mind", OrderFile: order})
	if err != nil {
		t.Fatalf("second ConvertCollection() error = %v", err)
	}
	if again.ID != res.ID {
		t.Errorf("ID changed between runs: %q, %q", res.ID, again.ID)
	}
}

func TestConvertCollection_DefaultOrder(t *testing.T) {
	c := New(testConfig(t))
	res, err := c.ConvertCollection(context.Background(), []string{plosInput, frontiersInput}, CollectionOptions{})
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}
	if filepath.Base(res.Output) != "article-collection.epub" {
		t.Errorf("Output = %q", res.Output)
	}
	if res.Articles[0].Input != frontiersInput || res.Articles[1].Input != plosInput {
		t.Errorf("inputs not sorted: %q, %q", res.Articles[0].Input, res.Articles[1].Input)
	}
}

func TestConvertCollection_Duplicates(t *testing.T) {
	c := New(testConfig(t))
	res, err := c.ConvertCollection(context.Background(), []string{plosInput, frontiersInput, plosInput}, CollectionOptions{})
	if err != nil {
		t.Fatalf("ConvertCollection() error = %v", err)
	}
	if len(res.Articles) != 3 {
		t.Fatalf("got %d article results, want 3", len(res.Articles))
	}
	dup := res.Articles[2]
	if !dup.OK() {
		t.Errorf("repeated article failed: %v", dup.Err)
	}
	if n := countKind(dup.Warnings, report.SkippedContent); n != 1 {
		t.Errorf("SkippedContent warnings on the repeated article = %d, want 1", n)
	}
	if n := countKind(res.Articles[1].Warnings, report.SkippedContent); n != 0 {
		t.Errorf("first copy has %d SkippedContent warnings", n)
	}

	a, err := epub.Open(res.Output)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()
	if n := len(a.Nav()); n != 2 {
		t.Errorf("nav has %d entries, want 2", n)
	}
}

func TestConvertCollection_Empty(t *testing.T) {
	dir := t.TempDir()
	bad := writeArticle(t, dir, "other.xml", "10.9999/other.1")

	res, err := New(testConfig(t)).ConvertCollection(context.Background(), []string{bad}, CollectionOptions{})
	if !errors.Is(err, ErrEmptyCollection) {
		t.Fatalf("error = %v, want ErrEmptyCollection", err)
	}
	if res.Output != "" || len(res.Articles) != 1 || res.Articles[0].OK() {
		t.Errorf("result = %+v", res)
	}
}

func TestReadOrderFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	got, err := ReadOrderFile(write("order.txt", "# first\n  b.xml  \n\n/abs/a.xml\n"))
	if err != nil {
		t.Fatalf("ReadOrderFile() error = %v", err)
	}
	want := []string{filepath.Join(dir, "b.xml"), "/abs/a.xml"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := ReadOrderFile(write("empty.txt", "# nothing\n\n")); err == nil {
		t.Error("empty order file: want error")
	}
	if _, err := ReadOrderFile(filepath.Join(dir, "absent.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing order file: error = %v", err)
	}
}

func TestCollectionMetadata(t *testing.T) {
	mk := func(doi, lang, pub string, authors ...string) *article {
		md := &publisher.Metadata{DOI: doi, Title: doi, Language: lang, Publisher: pub, Keywords: []string{"shared"}}
		for _, a := range authors {
			md.Authors = append(md.Authors, publisher.Person{Name: a, Role: "aut"})
		}
		return &article{md: md}
	}
	a := mk("10.1/a", "fr", "Pub A", "Ann", "Bob")
	b := mk("10.1/b", "en", "Pub B", "Bob", "Cy")

	md := collectionMetadata("Both", []*article{a, b}, "en")
	if md.Title != "Both" || md.Identifier.Scheme != "UUID" {
		t.Errorf("title, scheme = %q, %q", md.Title, md.Identifier.Scheme)
	}
	if md.Language != "fr" {
		t.Errorf("Language = %q, want the first article's", md.Language)
	}
	if md.Publisher != "Pub A; Pub B" {
		t.Errorf("Publisher = %q", md.Publisher)
	}
	var names []string
	for _, c := range md.Creators {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "Ann,Bob,Cy" {
		t.Errorf("Creators = %v", names)
	}
	if len(md.Subjects) != 1 {
		t.Errorf("Subjects = %v", md.Subjects)
	}
	if !strings.Contains(md.Description, "2 articles") {
		t.Errorf("Description = %q", md.Description)
	}

	same := collectionMetadata("Other name", []*article{a, b}, "en")
	reversed := collectionMetadata("Both", []*article{b, a}, "en")
	if same.Identifier != md.Identifier {
		t.Error("identifier depends on the collection name")
	}
	if reversed.Identifier == md.Identifier {
		t.Error("identifier does not depend on reading order")
	}
}

func TestCanonicalLanguage(t *testing.T) {
	tests := []struct {
		tag, fallback, want string
	}{
		{"en", "", "en"},
		{"EN-us", "", "en-US"},
		{"", "de", "de"},
		{"  ", "", "en"},
		{"not a tag!", "fr", "fr"},
		{"", "", "en"},
	}
	for _, tt := range tests {
		if got := canonicalLanguage(tt.tag, tt.fallback); got != tt.want {
			t.Errorf("canonicalLanguage(%q, %q) = %q, want %q", tt.tag, tt.fallback, got, tt.want)
		}
	}
}

func TestPackageMetadata(t *testing.T) {
	md := &publisher.Metadata{
		DOI:      plosDOI,
		Title:    "Café",
		Authors:  []publisher.Person{{Name: "Jane Smith", FileAs: "Smith, J", Role: "aut"}},
		Editors:  []publisher.Person{{Name: "Ed Itor", FileAs: "Itor, E", Role: "edt"}},
		License:  "CC BY",
		Subjects: []string{"Ecology", ""},
		Keywords: []string{"soil", "Ecology"},
		Dates: publisher.Dates{
			Published: jpts.Date{Year: 2010, Month: 7, Day: 14},
			Received:  jpts.Date{Year: 2010, Month: 3},
		},
	}
	got := packageMetadata(md, "de")

	if got.Identifier != (epub.Identifier{Value: plosDOI, Scheme: "DOI"}) {
		t.Errorf("Identifier = %+v", got.Identifier)
	}
	if got.Title != "Café" {
		t.Errorf("Title = %q, want NFC", got.Title)
	}
	if got.Language != "de" {
		t.Errorf("Language = %q", got.Language)
	}
	if got.Rights != "CC BY" {
		t.Errorf("Rights = %q, want the license", got.Rights)
	}
	if strings.Join(got.Subjects, ",") != "Ecology,soil" {
		t.Errorf("Subjects = %v", got.Subjects)
	}
	if len(got.Creators) != 1 || got.Contributors[0].Role != "edt" {
		t.Errorf("Creators, Contributors = %+v, %+v", got.Creators, got.Contributors)
	}
	wantDates := []epub.Date{{Event: "publication", Value: "2010-07-14"}, {Event: "received", Value: "2010-03"}}
	if len(got.Dates) != len(wantDates) {
		t.Fatalf("Dates = %+v", got.Dates)
	}
	for i := range wantDates {
		if got.Dates[i] != wantDates[i] {
			t.Errorf("Dates[%d] = %+v, want %+v", i, got.Dates[i], wantDates[i])
		}
	}
	if got.Generator != Generator {
		t.Errorf("Generator = %q", got.Generator)
	}
	if a := docAuthor(md); a != "Jane Smith" {
		t.Errorf("docAuthor() = %q", a)
	}
}
