package images

import (
	"bytes"
	"fmt"
	"image/png"
	"net/http"
	"strings"

	"golang.org/x/image/tiff"
)

var mediaTypeExt = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// IsImageMediaType reports whether mt is an image type ePub 2 reading
// systems are required to display.
func IsImageMediaType(mt string) bool {
	_, ok := mediaTypeExt[mt]
	return ok
}

// Sniff returns the media type of image data, or "" when the data is not a
// recognised image. TIFF is reported as "image/tiff".
func Sniff(data []byte) string {
	if isTIFF(data) {
		return "image/tiff"
	}
	mt := http.DetectContentType(data)
	if IsImageMediaType(mt) {
		return mt
	}
	if isSVG(data) {
		return "image/svg+xml"
	}
	return ""
}

func isTIFF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*"))
}

func isSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// Prepare turns resolved bytes into a package image named after ref.Name.
// TIFF images are re-encoded as PNG. Data that is not a supported image
// yields an error.
func Prepare(ref Ref, data []byte) (Image, error) {
	mt := Sniff(data)
	switch mt {
	case "":
		return Image{}, fmt.Errorf("images: %s: unrecognised image data", ref.Href)
	case "image/tiff":
		converted, err := tiffToPNG(data)
		if err != nil {
			return Image{}, fmt.Errorf("images: %s: %w", ref.Href, err)
		}
		data, mt = converted, "image/png"
	}
	name := ref.Name
	if name == "" {
		name = Name(ref.Href)
	}
	return Image{
		Path:      strings.TrimSuffix(name, ".") + mediaTypeExt[mt],
		MediaType: mt,
		Data:      data,
	}, nil
}

func tiffToPNG(data []byte) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode tiff: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
