package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxImageSize is the largest image file a DirResolver reads. Defaults to
// 64 MB.
const maxImageSize int64 = 64 * 1024 * 1024

// DirResolver finds images on the local filesystem.
//
// Each pattern names a directory; a "*" in it is replaced by the DOI suffix
// of the article, so "images/*" finds the graphics of
// 10.1371/journal.pone.0012345 under images/journal.pone.0012345. Patterns
// are searched in order for the base name of the reference, first as given
// and then with each of Extensions appended.
type DirResolver struct {
	Patterns []string
}

// NewDirResolver creates a resolver searching patterns in order.
func NewDirResolver(patterns ...string) *DirResolver {
	return &DirResolver{Patterns: patterns}
}

// Resolve implements Resolver.
func (r *DirResolver) Resolve(ctx context.Context, ref Ref) ([]byte, error) {
	base := ref.Base()
	if base == "" {
		return nil, notFound(ref)
	}
	suffix := ref.DOISuffix()
	for _, pattern := range r.Patterns {
		dir := strings.ReplaceAll(pattern, "*", suffix)
		for _, name := range candidates(base, ref.Href) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			data, err := readFileWithLimit(filepath.Join(dir, name), maxImageSize)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}
	return nil, notFound(ref)
}

// candidates lists the file names tried for base: the href's own base name
// when it carries an extension, then base with every known extension.
func candidates(base, href string) []string {
	var out []string
	if own := filepath.Base(filepath.FromSlash(href)); filepath.Ext(own) != "" {
		out = append(out, own)
	}
	for _, ext := range Extensions {
		out = append(out, base+ext)
	}
	return out
}

// readFileWithLimit reads a regular file of at most limit bytes.
func readFileWithLimit(name string, limit int64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("images: stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("images: %s: %w", name, fs.ErrNotExist)
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("images: %s too large: %d bytes (max %d)", name, info.Size(), limit)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("images: read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("images: %s exceeds size limit (%d bytes)", name, limit)
	}
	return data, nil
}
