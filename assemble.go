package oaepub

import (
	_ "embed"
	"fmt"

	"github.com/beevik/etree"

	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/transform"
)

//go:embed assets/article.css
var stylesheet []byte

// articlePackage builds the package of a single article.
func (c *Converter) articlePackage(a *article) (*epub.Package, error) {
	pkg, err := c.assemble(packageMetadata(a.md, c.cfg.Language), []*article{a})
	if err != nil {
		return nil, err
	}
	pkg.DocAuthor = docAuthor(a.md)
	pkg.Nav = articleNav(a.result)
	return pkg, nil
}

// assemble creates a package described by md holding the documents,
// images and navigation lists of articles, in order. The caller sets the
// navigation map.
func (c *Converter) assemble(md epub.Metadata, articles []*article) (*epub.Package, error) {
	pkg := epub.NewPackage(md)
	if _, err := pkg.AddResource(transform.StylesheetHref, epub.MediaTypeCSS, stylesheet); err != nil {
		return nil, err
	}

	var figures, tables []epub.NavTarget
	for _, a := range articles {
		if err := addDocuments(pkg, a.result); err != nil {
			return nil, err
		}
		for _, img := range a.images {
			// Two references may name the same file.
			if pkg.HasItem(img.Path) {
				continue
			}
			if _, err := pkg.AddResource(img.Path, img.MediaType, img.Data); err != nil {
				return nil, fmt.Errorf("oaepub: %s: %w", a.doc.DOI(), err)
			}
		}
		figures = append(figures, navTargets("lof", a.result.Figures)...)
		tables = append(tables, navTargets("lot", a.result.TableList)...)
	}
	pkg.Lists = navLists(figures, tables)
	return pkg, nil
}

// addDocuments adds the rendered documents of one article to the spine:
// main, bibliography, then the non-linear tables document.
func addDocuments(pkg *epub.Package, res *transform.Result) error {
	docs := []struct {
		name   string
		doc    *etree.Document
		linear bool
	}{
		{res.Files.Main, res.Main, true},
		{res.Files.Biblio, res.Biblio, true},
		{res.Files.Tables, res.Tables, false},
	}
	for _, d := range docs {
		if d.doc == nil {
			continue
		}
		data, err := transform.Serialize(d.doc)
		if err != nil {
			return fmt.Errorf("oaepub: serialize %s: %w", d.name, err)
		}
		if _, err := pkg.AddDocument(d.name, data, d.linear); err != nil {
			return err
		}
	}
	return nil
}
