package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// maxEntrySize is the maximum decompressed size read from a single archive
// entry. Defaults to 256 MB.
const maxEntrySize int64 = 256 * 1024 * 1024

// zipIndex looks up archive entries by exact name, then case-insensitively.
type zipIndex struct {
	exact map[string]*zip.File
	lower map[string]*zip.File
}

func newZipIndex(zr *zip.Reader) zipIndex {
	idx := zipIndex{
		exact: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if _, ok := idx.exact[f.Name]; !ok {
			idx.exact[f.Name] = f
		}
		lower := strings.ToLower(f.Name)
		if _, ok := idx.lower[lower]; !ok {
			idx.lower[lower] = f
		}
	}
	return idx
}

// find returns the entry called name, or nil.
func (idx zipIndex) find(name string) *zip.File {
	if f, ok := idx.exact[name]; ok {
		return f
	}
	return idx.lower[strings.ToLower(name)]
}

// has reports whether an entry called exactly name exists. Package paths
// are case-sensitive, so the checker does not fall back to case folding.
func (idx zipIndex) has(name string) bool {
	_, ok := idx.exact[name]
	return ok
}

// resolveRelativePath resolves href relative to the directory of basePath.
// Both are archive-internal, slash-separated paths. The fragment of href is
// dropped. An empty string is returned for absolute hrefs, hrefs with a
// scheme, and results escaping the archive root.
func resolveRelativePath(basePath, href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if href == "" || strings.HasPrefix(href, "/") || strings.Contains(href, ":") {
		return ""
	}
	if decoded, err := url.PathUnescape(href); err == nil {
		href = decoded
	}
	cleaned := path.Clean(path.Join(path.Dir(basePath), href))
	if !isSafePath(cleaned) {
		return ""
	}
	return cleaned
}

// isSafePath checks whether p stays inside the archive root.
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}

// stripBOM removes a leading UTF-8 BOM from data.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// readZipFile reads an entry of at most maxEntrySize bytes.
func readZipFile(f *zip.File) ([]byte, error) {
	return readZipFileWithLimit(f, maxEntrySize)
}

// readZipFileWithLimit reads an entry, failing when its declared or actual
// decompressed size exceeds limit or its name escapes the archive root.
func readZipFileWithLimit(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("epub: unsafe zip entry path: %s", f.Name)
	}
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("epub: zip entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// The declared size may be forged; read one byte past the limit.
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("epub: read zip entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("epub: zip entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}
	return data, nil
}
