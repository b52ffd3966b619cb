// Package epub assembles ePub 2 packages and reads them back.
//
// # Writing
//
// A [Package] collects the manifest items, the spine and the navigation of
// one publication. Documents are added in reading order:
//
//	p := epub.NewPackage(epub.Metadata{
//		Identifier: epub.Identifier{Value: "10.1371/journal.pone.0012345", Scheme: "DOI"},
//		Title:      "Soil Microbes Shape Plant Communities",
//		Language:   "en",
//	})
//	p.AddDocument("main.journal-pone-0012345.xhtml", data, true)
//	p.Nav = append(p.Nav, epub.NavPoint{Label: "Title", Src: "main.journal-pone-0012345.xhtml#title"})
//	err := epub.WriteFile(ctx, p, "out/journal.pone.0012345.epub")
//
// [WriteFile] validates the package first and returns an
// *[IncompleteEpubError] without touching the file system when an invariant
// is violated. The archive is written to a temporary file in the target
// directory and renamed into place on success, so an aborted write never
// leaves a partial archive behind.
//
// # Archive layout
//
//	mimetype                  stored, "application/epub+zip"
//	META-INF/container.xml    points at OEBPS/content.opf
//	OEBPS/content.opf         metadata, manifest, spine
//	OEBPS/toc.ncx             navMap and navLists
//	OEBPS/...                 documents and resources
//
// # Reading and checking
//
// [Open] reads a package back (container, OPF, NCX). [Check] runs the
// structural checks a conformance checker would run on a generated package
// and returns the findings as [Issue] values. Checking is advisory; it never
// modifies the archive.
package epub
