package epub

import (
	"path"
	"strings"
)

// Media types of the files this package writes.
const (
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypeNCX   = "application/x-dtbncx+xml"
	MediaTypeOPF   = "application/oebps-package+xml"
	MediaTypeCSS   = "text/css"
)

var extMediaTypes = map[string]string{
	".xhtml": MediaTypeXHTML,
	".html":  MediaTypeXHTML,
	".xml":   MediaTypeXHTML,
	".ncx":   MediaTypeNCX,
	".css":   MediaTypeCSS,
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".tif":   "image/tiff",
	".tiff":  "image/tiff",
	".otf":   "application/vnd.ms-opentype",
	".ttf":   "application/x-font-truetype",
}

// MediaTypeByExt returns the media type for the extension of name, or ""
// when the extension is unknown. The lookup is case-insensitive.
func MediaTypeByExt(name string) string {
	return extMediaTypes[strings.ToLower(path.Ext(name))]
}

// isImageMediaType returns true if the media type starts with "image/".
func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// isCoreMediaType reports whether mt may appear in an ePub 2 spine or be
// referenced without a fallback.
func isCoreMediaType(mt string) bool {
	switch mt {
	case MediaTypeXHTML, MediaTypeNCX, MediaTypeCSS,
		"image/jpeg", "image/png", "image/gif", "image/svg+xml":
		return true
	}
	return false
}
