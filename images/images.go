// Package images locates the graphics referenced by an article and prepares
// their bytes for packaging.
//
// A [Resolver] maps a graphic reference to raw bytes. [Prepare] sniffs the
// media type and converts formats that ePub reading systems cannot show
// (TIFF) to PNG.
package images

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned by resolvers that have no bytes for a reference.
var ErrNotFound = errors.New("images: not found")

// Extensions are the file extensions tried, in order, when a reference has
// none of its own.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".tif", ".tiff"}

// Ref identifies one graphic of an article.
type Ref struct {
	// DOI is the DOI of the article.
	DOI string

	// Href is the xlink:href of the graphic as written in the source.
	Href string

	// Name is the package path of the image without extension
	// ("images-journal.pone.0012345/g001").
	Name string
}

// Base returns the file name the resolvers search for: the last element of
// Name, or of Href when Name is empty.
func (r Ref) Base() string {
	if r.Name != "" {
		return path.Base(r.Name)
	}
	return Name(r.Href)
}

// DOISuffix returns the part of the DOI after the first slash.
func (r Ref) DOISuffix() string {
	_, suffix, _ := strings.Cut(r.DOI, "/")
	return suffix
}

// Resolver returns the raw bytes of a graphic. Implementations return an
// error wrapping ErrNotFound when the graphic does not exist.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref) ([]byte, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ref Ref) ([]byte, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, ref Ref) ([]byte, error) {
	return f(ctx, ref)
}

// Image is a graphic ready to be added to a package.
type Image struct {
	// Path is the package path including the extension.
	Path      string
	MediaType string
	Data      []byte
}

// Name returns the default image name of a graphic reference: its last path
// element with a known extension removed.
func Name(href string) string {
	base := path.Base(strings.TrimSpace(href))
	if base == "." || base == "/" {
		return ""
	}
	ext := strings.ToLower(path.Ext(base))
	for _, known := range Extensions {
		if ext == known {
			return strings.TrimSuffix(base, path.Ext(base))
		}
	}
	return base
}

// Chain tries each resolver in order and returns the first success. A
// resolver failing with anything other than ErrNotFound stops the chain.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, ref Ref) ([]byte, error) {
	for _, r := range c {
		data, err := r.Resolve(ctx, ref)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, notFound(ref)
}

// MapResolver serves pre-fetched images keyed by href or base name.
type MapResolver map[string][]byte

// Resolve implements Resolver.
func (m MapResolver) Resolve(ctx context.Context, ref Ref) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if data, ok := m[ref.Href]; ok {
		return data, nil
	}
	if data, ok := m[ref.Base()]; ok {
		return data, nil
	}
	return nil, notFound(ref)
}

func notFound(ref Ref) error {
	return &NotFoundError{Href: ref.Href}
}

// NotFoundError reports a graphic that no resolver could supply.
type NotFoundError struct {
	Href string
}

func (e *NotFoundError) Error() string {
	return "images: not found: " + e.Href
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
