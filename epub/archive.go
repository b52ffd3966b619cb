package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
)

// Archive is an ePub package read back from disk. Use Open to create one
// and Close to release it.
//
// An Archive is not safe for concurrent use by multiple goroutines.
type Archive struct {
	zip     *zip.Reader
	idx     zipIndex
	closer  io.Closer
	opfPath string
	opfDir  string
	opf     *opfPackage
	ncxPath string
	ncx     *ncxDocument

	metadata Metadata
	items    []Item
	spine    []SpineRef
	nav      []NavPoint
	lists    []NavList
	warnings []string
}

// Open reads the container, OPF and NCX of the ePub at name.
func Open(name string) (*Archive, error) {
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", name, err)
	}
	a, err := newArchive(&zrc.Reader, zrc)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return a, nil
}

// NewReader reads a package from r. The caller is responsible for the
// lifetime of r.
func NewReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epub: open zip: %w", err)
	}
	return newArchive(zr, nil)
}

func newArchive(zr *zip.Reader, closer io.Closer) (*Archive, error) {
	a := &Archive{zip: zr, idx: newZipIndex(zr), closer: closer}

	opfPath, fallback, err := parseContainer(zr, a.idx)
	if err != nil {
		return nil, err
	}
	if fallback {
		a.warnings = append(a.warnings, "container.xml missing; OPF located by scanning the archive")
	}
	a.opfPath = opfPath
	a.opfDir = path.Dir(opfPath)

	f := a.idx.find(opfPath)
	if f == nil {
		return nil, fmt.Errorf("epub: OPF file not found in archive: %s: %w", opfPath, ErrInvalidEPub)
	}
	data, err := readZipFile(f)
	if err != nil {
		return nil, fmt.Errorf("epub: read OPF file: %w", err)
	}
	if a.opf, err = parseOPF(data); err != nil {
		return nil, err
	}

	a.metadata = extractMetadata(a.opf)
	for _, it := range a.opf.Manifest.Items {
		a.items = append(a.items, Item{ID: it.ID, Href: it.Href, MediaType: it.MediaType})
	}
	for _, ref := range a.opf.Spine.ItemRefs {
		a.spine = append(a.spine, SpineRef{IDRef: ref.IDRef, Linear: ref.Linear != "no"})
	}

	a.readNCX()
	return a, nil
}

// readNCX locates the NCX through the spine toc attribute. A missing or
// unreadable NCX is recorded as a warning.
func (a *Archive) readNCX() {
	it, ok := a.Item(a.opf.Spine.Toc)
	if !ok {
		a.warnings = append(a.warnings, "spine has no toc attribute naming a manifest item")
		return
	}
	a.ncxPath = a.resolve(it.Href)
	data, err := a.ReadFile(a.ncxPath)
	if err != nil {
		a.warnings = append(a.warnings, fmt.Sprintf("failed to read NCX file: %v", err))
		return
	}
	doc, err := parseNCX(data)
	if err != nil {
		a.warnings = append(a.warnings, fmt.Sprintf("failed to parse NCX file: %v", err))
		return
	}
	a.ncx = doc
	a.nav = convertNavPoints(doc.NavMap.NavPoints)
	a.lists = convertNavLists(doc.NavLists)
}

// Close releases the underlying file when the Archive was created by Open.
// Close is idempotent.
func (a *Archive) Close() error {
	if a.closer != nil {
		err := a.closer.Close()
		a.closer = nil
		return err
	}
	return nil
}

// ReadFile reads an archive entry by its archive-internal path.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	f := a.idx.find(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return readZipFile(f)
}

// ReadItem reads the manifest item with the given href.
func (a *Archive) ReadItem(href string) ([]byte, error) {
	return a.ReadFile(a.resolve(href))
}

// AnchorIDs returns the anchor ids of the content document at href,
// relative to the OPF directory.
func (a *Archive) AnchorIDs(href string) (map[string]bool, error) {
	data, err := a.ReadItem(href)
	if err != nil {
		return nil, err
	}
	return anchorIDs(data), nil
}

// Metadata returns the OPF metadata.
func (a *Archive) Metadata() Metadata { return a.metadata }

// Items returns the manifest in document order.
func (a *Archive) Items() []Item { return append([]Item(nil), a.items...) }

// Item returns the manifest item with the given id.
func (a *Archive) Item(id string) (Item, bool) {
	if id == "" {
		return Item{}, false
	}
	for _, it := range a.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Spine returns the reading order.
func (a *Archive) Spine() []SpineRef { return append([]SpineRef(nil), a.spine...) }

// Nav returns the NCX navMap.
func (a *Archive) Nav() []NavPoint { return a.nav }

// Lists returns the NCX navLists.
func (a *Archive) Lists() []NavList { return a.lists }

// DocTitle returns the NCX docTitle.
func (a *Archive) DocTitle() string {
	if a.ncx == nil {
		return ""
	}
	return a.ncx.DocTitle
}

// Warnings returns the non-fatal problems found while reading.
func (a *Archive) Warnings() []string {
	return append([]string(nil), a.warnings...)
}

// resolve maps an OPF-relative href to an archive path.
func (a *Archive) resolve(href string) string {
	if href == "" || a.opfDir == "." {
		return href
	}
	return path.Join(a.opfDir, href)
}
