package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const mainXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Main</title></head>
<body><div id="title"><h1>Soil Microbes</h1></div>
<div id="abstract"><h2>Abstract</h2><p id="abstract-p1">Text <a href="biblio.x.xhtml#B1">[1]</a>, <a href="#fig1">Figure 1</a>, <a href="http://example.org/a#b">site</a>.</p></div>
<div id="s1"><h3>Introduction</h3>
<div id="s1-1"><h4>Background</h4>
<div id="s1-1-1"><h5>History</h5><div id="s1-1-1-1"><span class="extendedheader6">Deep</span></div></div></div></div>
<div id="fig1"><img src="images-x/g001.png" alt="Figure 1"/></div>
</body></html>`

const biblioXHTML = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>References</title></head>
<body><div id="references"><h2>References</h2><p id="B1">1. A ref.</p></div></body></html>`

// newTestPackage returns a valid two-document package with an image.
func newTestPackage(t *testing.T) *Package {
	t.Helper()
	p := NewPackage(Metadata{
		Identifier:   Identifier{Value: "10.1371/journal.pone.0012345", Scheme: "DOI"},
		Title:        "Soil Microbes",
		Language:     "en",
		Creators:     []Author{{Name: "Jane A. Smith", FileAs: "Smith, JA"}},
		Contributors: []Author{{Name: "Ed Itor", FileAs: "Itor, E"}},
		Publisher:    "Public Library of Science",
		Rights:       "© 2010 Smith.",
		Subjects:     []string{"Ecology"},
		Dates:        []Date{{Event: "publication", Value: "2010-07-21"}},
		Generator:    "oaepub",
	})
	mustAdd := func(_ string, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	mustAdd(p.AddDocument("main.x.xhtml", []byte(mainXHTML), true))
	mustAdd(p.AddDocument("biblio.x.xhtml", []byte(biblioXHTML), false))
	mustAdd(p.AddResource("images-x/g001.png", "", []byte("\x89PNG\r\n\x1a\n")))
	mustAdd(p.AddResource("css/article.css", "", []byte("body{}")))

	p.Nav = []NavPoint{
		{ID: "titlepage", Label: "Title Page", Src: "main.x.xhtml#title"},
		{ID: "abstract", Label: "Abstract", Src: "main.x.xhtml#abstract"},
		{ID: "s1", Label: "Introduction", Src: "main.x.xhtml#s1", Children: []NavPoint{
			{ID: "s1-1", Label: "Background", Src: "main.x.xhtml#s1-1", Children: []NavPoint{
				{ID: "s1-1-1", Label: "History", Src: "main.x.xhtml#s1-1-1", Children: []NavPoint{
					{ID: "s1-1-1-1", Label: "Deep", Src: "main.x.xhtml#s1-1-1-1"},
				}},
			}},
		}},
		{ID: "references", Label: "References", Src: "biblio.x.xhtml#references"},
	}
	p.Lists = []NavList{
		{ID: "lof", Class: "lof", Label: "List of Figures", Targets: []NavTarget{
			{ID: "lof-fig1", Label: "Figure 1", Src: "main.x.xhtml#fig1"},
		}},
		{ID: "lot", Class: "lot", Label: "List of Tables"},
	}
	return p
}

// writeTestPackage writes p to a temporary directory and returns the path.
func writeTestPackage(t *testing.T, p *Package) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "out", "test.epub")
	if err := WriteFile(t.Context(), p, name); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return name
}

// buildTestZip creates an in-memory ZIP archive from the provided files map
// (path → content) and returns a *zip.Reader over the resulting bytes.
func buildTestZip(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	data := zipBytes(t, files, zip.Deflate)
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

// buildTestEPubFile writes an archive to a temporary file and returns its
// path. The mimetype entry, when present, is written first with the given
// compression method.
func buildTestEPubFile(t *testing.T, files map[string]string, mimetypeMethod uint16) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, zipBytes(t, files, mimetypeMethod), 0o644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

func zipBytes(t *testing.T, files map[string]string, mimetypeMethod uint16) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	write := func(name, content string, method uint16) {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if mt, ok := files["mimetype"]; ok {
		write("mimetype", mt, mimetypeMethod)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		if name != "mimetype" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		write(name, files[name], zip.Deflate)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes()
}

// readArchiveFiles returns the entries of the archive at name in order.
func readArchiveFiles(t *testing.T, name string) []*zip.File {
	t.Helper()
	zrc, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	t.Cleanup(func() { zrc.Close() })
	return zrc.File
}
