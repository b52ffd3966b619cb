package epub

import (
	"strings"
	"testing"
)

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"OEBPS/toc.ncx", "main.x.xhtml#s1", "OEBPS/main.x.xhtml"},
		{"OEBPS/main.x.xhtml", "images-x/g001.png", "OEBPS/images-x/g001.png"},
		{"OEBPS/text/a.xhtml", "../css/a.css", "OEBPS/css/a.css"},
		{"OEBPS/a.xhtml", "my%20image.png", "OEBPS/my image.png"},
		{"OEBPS/a.xhtml", "#local", ""},
		{"OEBPS/a.xhtml", "/abs.png", ""},
		{"OEBPS/a.xhtml", "http://example.com/a.png", ""},
		{"OEBPS/a.xhtml", "../../escape.png", ""},
	}
	for _, tt := range tests {
		if got := resolveRelativePath(tt.base, tt.href); got != tt.want {
			t.Errorf("resolveRelativePath(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestZipIndex(t *testing.T) {
	zr := buildTestZip(t, map[string]string{"OEBPS/Main.xhtml": "x"})
	idx := newZipIndex(zr)
	if idx.find("OEBPS/main.xhtml") == nil {
		t.Error("find() did not fall back to case-insensitive lookup")
	}
	if idx.has("OEBPS/main.xhtml") {
		t.Error("has() matched a differently cased name")
	}
	if !idx.has("OEBPS/Main.xhtml") {
		t.Error("has() missed the exact name")
	}
}

func TestReadZipFileWithLimit(t *testing.T) {
	zr := buildTestZip(t, map[string]string{"big.txt": strings.Repeat("a", 100)})
	if _, err := readZipFileWithLimit(zr.File[0], 10); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("readZipFileWithLimit() error = %v, want size error", err)
	}
	data, err := readZipFileWithLimit(zr.File[0], 100)
	if err != nil || len(data) != 100 {
		t.Errorf("readZipFileWithLimit() = %d bytes, %v", len(data), err)
	}
}

func TestParseContainer(t *testing.T) {
	t.Run("fallback", func(t *testing.T) {
		zr := buildTestZip(t, map[string]string{"book/package.opf": "<package/>"})
		got, fallback, err := parseContainer(zr, newZipIndex(zr))
		if err != nil || got != "book/package.opf" || !fallback {
			t.Errorf("parseContainer() = %q, %v, %v", got, fallback, err)
		}
	})
	t.Run("rootfile", func(t *testing.T) {
		doc := buildContainer()
		data, err := doc.WriteToString()
		if err != nil {
			t.Fatal(err)
		}
		zr := buildTestZip(t, map[string]string{containerPath: data})
		got, fallback, err := parseContainer(zr, newZipIndex(zr))
		if err != nil || got != "OEBPS/content.opf" || fallback {
			t.Errorf("parseContainer() = %q, %v, %v", got, fallback, err)
		}
	})
}

func TestScanXHTML(t *testing.T) {
	s := scanXHTML([]byte(`<html><body>
<div id="s1"><a name="old"></a><a href="biblio.x.xhtml#B1">1</a>
<img src="images-x/g001.png"/>
<svg><image xlink:href="images-x/g002.png"/></svg></div></body></html>`))
	for _, id := range []string{"s1", "old"} {
		if !s.ids[id] {
			t.Errorf("id %q not found", id)
		}
	}
	if strings.Join(s.images, ",") != "images-x/g001.png,images-x/g002.png" {
		t.Errorf("images = %v", s.images)
	}
	if len(s.links) != 1 || s.links[0] != "biblio.x.xhtml#B1" {
		t.Errorf("links = %v", s.links)
	}
}
