package oaepub

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/images"
	"github.com/simp-lee/oaepub/jpts"
	"github.com/simp-lee/oaepub/publisher"
	"github.com/simp-lee/oaepub/report"
	"github.com/simp-lee/oaepub/transform"
)

// article is one input rendered and ready to be packaged.
type article struct {
	input     string
	doc       *jpts.Document
	publisher string
	md        *publisher.Metadata
	result    *transform.Result
	images    []images.Image
	report    *report.Report
}

// ConvertFile converts the article at input into
// {OutputDir}/{DOI suffix}.epub. The returned Result is never nil; on
// failure its Err equals the returned error.
func (c *Converter) ConvertFile(ctx context.Context, input string) (*Result, error) {
	res := &Result{Input: input}
	fail := func(err error) (*Result, error) {
		res.Err = err
		c.log.Error("conversion failed", zap.String("input", input), zap.Error(err))
		return res, err
	}

	a, err := c.render(ctx, input)
	if a != nil {
		res.DOI = a.doc.DOI()
		res.Publisher = a.publisher
		res.Warnings = a.report.Warnings()
	}
	if err != nil {
		return fail(err)
	}

	pkg, err := c.articlePackage(a)
	if err != nil {
		return fail(err)
	}
	out := filepath.Join(c.cfg.OutputDir, a.doc.DOISuffix()+".epub")
	if err := c.write(ctx, pkg, out); err != nil {
		return fail(err)
	}
	res.Output = out
	res.Issues = c.validate(ctx, out)

	c.log.Info("article converted",
		zap.String("doi", res.DOI),
		zap.String("output", out),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("issues", len(res.Issues)))
	return res, nil
}

// render runs every stage before assembly. The article is returned with
// its report even when a later stage fails, so that warnings recorded up to
// the failure reach the caller.
func (c *Converter) render(ctx context.Context, input string) (*article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := jpts.ParseFile(input)
	if err != nil {
		return nil, err
	}
	a := &article{
		input:  input,
		doc:    doc,
		report: report.New(doc.DOI(), c.log),
	}
	for _, name := range doc.UnknownEntities() {
		a.report.Add(report.UnknownEntity, "unknown entity &"+name+"; kept as text", "")
	}
	if doc.DOI() == "" {
		return a, &publisher.MalformedArticleError{Field: "DOI"}
	}

	factory, err := c.registry.ResolveDOI(doc.DOI())
	if err != nil {
		return a, err
	}
	h := factory(a.report)
	a.publisher = h.Name()

	a.md, err = h.ExtractMetadata(doc)
	if err != nil {
		return a, err
	}
	tree, err := h.ExtractBody(doc)
	if err != nil {
		return a, fmt.Errorf("oaepub: %s: extract body: %w", doc.DOI(), err)
	}

	set, err := c.resolveImages(ctx, a, h)
	if err != nil {
		return a, err
	}

	opts := transform.Options{
		Images:   set,
		Citation: h.FormatCitation,
		Report:   a.report,
		Logger:   c.log,
	}
	if rp, ok := h.(publisher.RuleProvider); ok {
		opts.Rules = rp.Rules()
	}
	if rl, ok := h.(publisher.ReferenceLinker); ok {
		opts.ReferenceLinks = rl.ReferenceLinks
	}
	md := a.md
	if fr, ok := h.(publisher.FrontMatterRenderer); ok {
		tree.Heading = func(e *transform.Engine, dst *etree.Element) { fr.RenderHeading(e, dst, md) }
		tree.ArticleInfo = func(e *transform.Engine, dst *etree.Element) { fr.RenderArticleInfo(e, dst, md) }
	}
	if br, ok := h.(publisher.BackMatterRenderer); ok {
		tree.BackMatter = func(e *transform.Engine, dst *etree.Element) { br.RenderBackMatter(e, dst, md) }
	}

	if err := ctx.Err(); err != nil {
		return a, err
	}
	a.result = transform.New(doc, opts).Render(tree)
	return a, nil
}

// resolveImages asks the resolvers once for every distinct graphic of the
// article. References without usable bytes are left out of the returned
// set and recorded as ImageNotFound; only cancellation is an error.
func (c *Converter) resolveImages(ctx context.Context, a *article, h publisher.Handler) (transform.ImageSet, error) {
	set := make(transform.ImageSet)
	refs := transform.ImageRefs(a.doc.Root())
	if len(refs) == 0 {
		return set, nil
	}

	namer, _ := h.(publisher.ImageNamer)
	resolver := c.imageResolver(a.input)
	for _, href := range refs {
		ref := images.Ref{DOI: a.doc.DOI(), Href: href, Name: images.Name(href)}
		if namer != nil {
			ref.Name = namer.ImageName(a.doc, href)
		}

		data, err := resolver.Resolve(ctx, ref)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, images.ErrNotFound) {
				a.report.Add(report.ImageNotFound, fmt.Sprintf("image %s not found", ref.Base()), href)
			} else {
				a.report.Add(report.ImageNotFound, err.Error(), href)
			}
			continue
		}
		img, err := images.Prepare(ref, data)
		if err != nil {
			a.report.Add(report.ImageNotFound, err.Error(), href)
			continue
		}
		set[href] = img.Path
		a.images = append(a.images, img)
	}
	return set, nil
}

// imageResolver returns the resolvers consulted for input: the configured
// resolver, the configured patterns, then the images-{DOI suffix}
// directory and the directory next to the input file.
func (c *Converter) imageResolver(input string) images.Resolver {
	var chain images.Chain
	if c.resolver != nil {
		chain = append(chain, c.resolver)
	}
	if len(c.cfg.ImagePatterns) > 0 {
		chain = append(chain, images.NewDirResolver(c.cfg.ImagePatterns...))
	}
	dir := filepath.Dir(input)
	return append(chain, images.NewDirResolver(filepath.Join(dir, "images-*"), dir))
}

// write writes pkg to name, honoring the overwrite setting.
func (c *Converter) write(ctx context.Context, pkg *epub.Package, name string) error {
	if !c.cfg.Overwrite {
		if _, err := os.Stat(name); err == nil {
			return fmt.Errorf("%w: %s", ErrOutputExists, name)
		}
	}
	return epub.WriteFile(ctx, pkg, name)
}

// validate runs the validator on a written package. A validator failure is
// logged and otherwise ignored.
func (c *Converter) validate(ctx context.Context, name string) []epub.Issue {
	if c.validator == nil {
		return nil
	}
	issues, err := c.validator.Validate(ctx, name)
	if err != nil {
		c.log.Warn("validation failed", zap.String("output", name), zap.Error(err))
		return nil
	}
	for _, i := range issues {
		if i.Severity == epub.SeverityError {
			c.log.Warn("validation issue", zap.String("output", name), zap.Stringer("issue", i))
		}
	}
	return issues
}
