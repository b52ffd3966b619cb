package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"path"
	"strings"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Issue is a single finding of Check.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
}

func (i Issue) String() string {
	if i.Location != "" {
		return fmt.Sprintf("%s(%s): %s [%s]", i.Severity, i.Code, i.Message, i.Location)
	}
	return fmt.Sprintf("%s(%s): %s", i.Severity, i.Code, i.Message)
}

// HasErrors reports whether issues contains an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Checker runs Check. It satisfies the validator contract of the
// conversion pipeline.
type Checker struct{}

// Validate implements the pipeline validator contract.
func (Checker) Validate(ctx context.Context, name string) ([]Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Check(name)
}

// Check runs the structural checks of an ePub 2 package:
//
//   - the mimetype entry is first, stored, without extra field, and holds
//     exactly "application/epub+zip";
//   - container.xml points at an OPF file;
//   - manifest ids are unique and every manifest file exists;
//   - every spine entry is a manifest item;
//   - the NCX exists, its dtb:uid matches the OPF unique identifier, and
//     every navigation target resolves to an anchor;
//   - images referenced by content documents exist;
//   - links between content documents reach an existing file and anchor;
//   - no resource is encrypted.
//
// The error is non-nil only when name cannot be read as a zip archive.
func Check(name string) ([]Issue, error) {
	zrc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", name, err)
	}
	defer zrc.Close()
	return checkArchive(&zrc.Reader), nil
}

func checkArchive(zr *zip.Reader) []Issue {
	c := &checker{}
	c.mimetype(zr)

	a, err := newArchive(zr, nil)
	if err != nil {
		c.add(SeverityError, "OCF-001", err.Error(), containerPath)
		return c.issues
	}
	c.issues = append(c.issues, checkEncryption(a.idx)...)
	c.manifest(a)
	c.spine(a)
	c.ncx(a)
	c.content(a)
	return c.issues
}

type checker struct {
	issues []Issue
}

func (c *checker) add(sev Severity, code, msg, location string) {
	c.issues = append(c.issues, Issue{Severity: sev, Code: code, Message: msg, Location: location})
}

func (c *checker) mimetype(zr *zip.Reader) {
	if len(zr.File) == 0 || zr.File[0].Name != "mimetype" {
		c.add(SeverityError, "PKG-001", `first zip entry is not "mimetype"`, "")
		return
	}
	first := zr.File[0]
	if first.Method != zip.Store {
		c.add(SeverityError, "PKG-002", "mimetype entry is compressed", "mimetype")
	}
	if len(first.Extra) > 0 {
		c.add(SeverityWarning, "PKG-004", "mimetype entry has an extra field", "mimetype")
	}
	data, err := readZipFile(first)
	if err != nil {
		c.add(SeverityError, "PKG-003", err.Error(), "mimetype")
		return
	}
	if string(data) != expectedMimetype {
		c.add(SeverityError, "PKG-003", fmt.Sprintf("unexpected mimetype: %q", string(data)), "mimetype")
	}
}

func (c *checker) manifest(a *Archive) {
	seen := make(map[string]bool, len(a.items))
	for _, it := range a.items {
		if seen[it.ID] {
			c.add(SeverityError, "OPF-001", fmt.Sprintf("duplicate manifest id %q", it.ID), a.opfPath)
		}
		seen[it.ID] = true
		if !a.idx.has(a.resolve(it.Href)) {
			c.add(SeverityError, "OPF-003", fmt.Sprintf("manifest item %s is missing from the archive", it.Href), a.opfPath)
		}
	}

	if a.opf.UniqueIdentifier == "" {
		c.add(SeverityError, "OPF-004", "package has no unique-identifier attribute", a.opfPath)
		return
	}
	for _, id := range a.opf.Metadata.Identifiers {
		if id.ID == a.opf.UniqueIdentifier {
			return
		}
	}
	c.add(SeverityError, "OPF-004", fmt.Sprintf("unique-identifier %q names no dc:identifier", a.opf.UniqueIdentifier), a.opfPath)
}

func (c *checker) spine(a *Archive) {
	if len(a.spine) == 0 {
		c.add(SeverityError, "OPF-002", "spine is empty", a.opfPath)
	}
	for _, ref := range a.spine {
		it, ok := a.Item(ref.IDRef)
		if !ok {
			c.add(SeverityError, "OPF-002", fmt.Sprintf("spine entry %q is not in the manifest", ref.IDRef), a.opfPath)
			continue
		}
		if it.MediaType != MediaTypeXHTML {
			c.add(SeverityWarning, "OPF-006", fmt.Sprintf("spine entry %q has media type %s", ref.IDRef, it.MediaType), a.opfPath)
		}
	}
}

func (c *checker) ncx(a *Archive) {
	if a.ncx == nil {
		c.add(SeverityError, "NCX-001", "package has no readable NCX", a.opfPath)
		return
	}
	if uid := a.ncx.uid(); uid != a.metadata.Identifier.Value {
		c.add(SeverityError, "NCX-002",
			fmt.Sprintf("NCX identifier %q does not match OPF identifier %q", uid, a.metadata.Identifier.Value), a.ncxPath)
	}

	ids := make(map[string]bool)
	anchors := make(map[string]map[string]bool)
	target := func(id, src string) {
		if id != "" {
			if ids[id] {
				c.add(SeverityError, "NCX-004", fmt.Sprintf("duplicate NCX id %q", id), a.ncxPath)
			}
			ids[id] = true
		}
		file := resolveRelativePath(a.ncxPath, src)
		if file == "" || !a.idx.has(file) {
			c.add(SeverityError, "NCX-003", fmt.Sprintf("navigation target %s could not be found", src), a.ncxPath)
			return
		}
		_, frag, _ := strings.Cut(src, "#")
		if frag == "" {
			return
		}
		found, ok := anchors[file]
		if !ok {
			data, err := a.ReadFile(file)
			if err != nil {
				c.add(SeverityError, "NCX-003", err.Error(), a.ncxPath)
				return
			}
			found = anchorIDs(data)
			anchors[file] = found
		}
		if !found[frag] {
			c.add(SeverityError, "NCX-005", fmt.Sprintf("navigation target %s has no matching anchor", src), a.ncxPath)
		}
	}
	walkNav(a.nav, func(np NavPoint, _ int) { target(np.ID, np.Src) })
	for _, l := range a.lists {
		for _, t := range l.Targets {
			target(t.ID, t.Src)
		}
	}
}

// content checks that images and links of spine documents resolve.
func (c *checker) content(a *Archive) {
	anchors := make(map[string]map[string]bool)
	idsOf := func(file string) (map[string]bool, bool) {
		if ids, ok := anchors[file]; ok {
			return ids, true
		}
		data, err := a.ReadFile(file)
		if err != nil {
			return nil, false
		}
		ids := anchorIDs(data)
		anchors[file] = ids
		return ids, true
	}

	for _, ref := range a.spine {
		it, ok := a.Item(ref.IDRef)
		if !ok || it.MediaType != MediaTypeXHTML {
			continue
		}
		file := a.resolve(it.Href)
		data, err := a.ReadFile(file)
		if err != nil {
			continue
		}
		scan := scanXHTML(data)
		anchors[file] = scan.ids

		for _, src := range scan.images {
			target := resolveRelativePath(file, src)
			if target == "" {
				continue
			}
			if !a.idx.has(target) {
				c.add(SeverityError, "RSC-001", fmt.Sprintf("image %s could not be found", src), file)
			} else if !isImageMediaType(MediaTypeByExt(target)) {
				c.add(SeverityWarning, "RSC-002", fmt.Sprintf("%s is not an image", src), file)
			} else if !isCoreMediaType(MediaTypeByExt(target)) {
				c.add(SeverityWarning, "RSC-003", fmt.Sprintf("image %s has no ePub 2 core media type", path.Base(target)), file)
			}
		}

		for _, href := range scan.links {
			rel, frag, _ := strings.Cut(strings.TrimSpace(href), "#")
			target := file
			if rel != "" {
				if target = resolveRelativePath(file, rel); target == "" {
					continue
				}
				if !a.idx.has(target) {
					c.add(SeverityError, "RSC-007", fmt.Sprintf("link target %s could not be found", href), file)
					continue
				}
			}
			if frag == "" || MediaTypeByExt(target) != MediaTypeXHTML {
				continue
			}
			if ids, ok := idsOf(target); ok && !ids[frag] {
				c.add(SeverityError, "RSC-012", fmt.Sprintf("fragment identifier of %s is not defined", href), file)
			}
		}
	}
}
