package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeTIFF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestName(t *testing.T) {
	tests := []struct{ href, want string }{
		{"fpsyg-02-00042-g001.tif", "fpsyg-02-00042-g001"},
		{"figures/g002.PNG", "g002"},
		{"info:doi/10.1371/journal.pone.0012345.g001", "journal.pone.0012345.g001"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Name(tt.href); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestRefBase(t *testing.T) {
	r := Ref{DOI: "10.1371/journal.pone.0012345", Href: "x.g001", Name: "images-journal.pone.0012345/g001"}
	if got := r.Base(); got != "g001" {
		t.Errorf("Base() = %q", got)
	}
	if got := r.DOISuffix(); got != "journal.pone.0012345" {
		t.Errorf("DOISuffix() = %q", got)
	}
	r.Name = ""
	if got := r.Base(); got != "x.g001" {
		t.Errorf("Base() without name = %q", got)
	}
}

func TestDirResolver(t *testing.T) {
	root := t.TempDir()
	pngData := encodePNG(t)
	writeFile(t, filepath.Join(root, "journal.pone.0012345", "g001.png"), pngData)
	writeFile(t, filepath.Join(root, "shared", "g002.jpg"), []byte("jpeg"))
	if err := os.MkdirAll(filepath.Join(root, "shared", "g003.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewDirResolver(filepath.Join(root, "*"), filepath.Join(root, "shared"))
	ref := func(name string) Ref {
		return Ref{DOI: "10.1371/journal.pone.0012345", Href: "journal.pone.0012345." + name, Name: "images-journal.pone.0012345/" + name}
	}

	data, err := r.Resolve(context.Background(), ref("g001"))
	if err != nil {
		t.Fatalf("Resolve(g001) error = %v", err)
	}
	if !bytes.Equal(data, pngData) {
		t.Error("Resolve(g001) returned different bytes")
	}

	if data, err := r.Resolve(context.Background(), ref("g002")); err != nil || string(data) != "jpeg" {
		t.Errorf("Resolve(g002) = %q, %v", data, err)
	}

	for _, name := range []string{"g003", "g404"} {
		_, err := r.Resolve(context.Background(), ref(name))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%s) error = %v, want ErrNotFound", name, err)
		}
	}
}

func TestDirResolver_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirResolver(t.TempDir()).Resolve(ctx, Ref{Href: "g001.png"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestReadFileWithLimit(t *testing.T) {
	name := filepath.Join(t.TempDir(), "big.png")
	writeFile(t, name, make([]byte, 100))
	if _, err := readFileWithLimit(name, 10); err == nil {
		t.Error("expected size limit error")
	}
	if data, err := readFileWithLimit(name, 100); err != nil || len(data) != 100 {
		t.Errorf("readFileWithLimit() = %d bytes, %v", len(data), err)
	}
}

func TestMapResolverAndChain(t *testing.T) {
	m := MapResolver{"a.png": []byte("A"), "g002": []byte("B")}
	ctx := context.Background()

	if data, err := m.Resolve(ctx, Ref{Href: "a.png"}); err != nil || string(data) != "A" {
		t.Errorf("by href = %q, %v", data, err)
	}
	if data, err := m.Resolve(ctx, Ref{Href: "x", Name: "images-x/g002"}); err != nil || string(data) != "B" {
		t.Errorf("by base = %q, %v", data, err)
	}

	failing := ResolverFunc(func(context.Context, Ref) ([]byte, error) {
		return nil, errors.New("boom")
	})
	c := Chain{MapResolver{}, m}
	if data, err := c.Resolve(ctx, Ref{Href: "a.png"}); err != nil || string(data) != "A" {
		t.Errorf("chain = %q, %v", data, err)
	}
	if _, err := (Chain{failing, m}).Resolve(ctx, Ref{Href: "a.png"}); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("chain with failing resolver error = %v", err)
	}
	if _, err := c.Resolve(ctx, Ref{Href: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("chain miss error = %v", err)
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", encodePNG(t), "image/png"},
		{"tiff", encodeTIFF(t), "image/tiff"},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "image/gif"},
		{"jpeg", []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF\x00"), "image/jpeg"},
		{"svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"/>`), "image/svg+xml"},
		{"text", []byte("hello"), ""},
	}
	for _, tt := range tests {
		if got := Sniff(tt.data); got != tt.want {
			t.Errorf("%s: Sniff() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	ref := Ref{Href: "fig1.tif", Name: "images-x/fig1"}
	img, err := Prepare(ref, encodeTIFF(t))
	if err != nil {
		t.Fatalf("Prepare(tiff) error = %v", err)
	}
	if img.Path != "images-x/fig1.png" || img.MediaType != "image/png" {
		t.Errorf("Prepare(tiff) = %s %s", img.Path, img.MediaType)
	}
	if _, err := png.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Errorf("converted data is not PNG: %v", err)
	}

	img, err = Prepare(Ref{Href: "g1.gif"}, []byte("GIF89a\x01\x00\x01\x00"))
	if err != nil || img.Path != "g1.gif" {
		t.Errorf("Prepare(gif) = %+v, %v", img, err)
	}

	if _, err := Prepare(ref, []byte("not an image")); err == nil {
		t.Error("expected error for non-image data")
	}
}
