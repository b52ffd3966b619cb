// Package oaepub converts journal articles marked up in the Journal
// Publishing Tag Set (JPTS) into ePub 2 packages.
//
// # Converting an article
//
// A [Converter] is built from a [config.Config] and runs the whole
// pipeline for one input file: parse, pick the publisher handler by DOI
// prefix, extract metadata and content, resolve images, render XHTML,
// assemble and write the package, then check it:
//
//	conv := oaepub.New(config.Default())
//	res, err := conv.ConvertFile(ctx, "journal.pone.0012345.xml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Output, len(res.Warnings))
//
// # Batches and collections
//
// [Converter.ConvertBatch] converts independent articles in parallel, one
// package each. A failing article never stops the others; every input gets
// a [Result] in input order.
//
// [Converter.ConvertCollection] combines several articles into a single
// package whose table of contents has one entry per article. The reading
// order comes from an ordering file, or is alphabetical by input path.
//
// # Publishers
//
// Handlers for PLoS (10.1371) and Frontiers (10.3389) are registered by
// [DefaultRegistry]. Other publishers are added with
// [publisher.Registry.Register] and passed in with [WithRegistry].
//
// # Errors and warnings
//
// Fatal problems of one article are returned as errors that can be
// classified with errors.Is and errors.As:
//   - [publisher.ErrUnsupportedPublisher]: no handler for the DOI prefix
//   - [publisher.ErrMalformedArticle]: no title or DOI
//   - [epub.ErrIncomplete]: the assembled package violates an invariant
//
// Everything else (unresolved cross-references, missing images, omitted
// optional fields) is collected as [report.Warning] values in the result.
package oaepub
