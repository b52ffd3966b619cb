package oaepub

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/report"
)

// CollectionDocTitle is the NCX docTitle of every collection.
const CollectionDocTitle = "NCX For: Article Collection"

const defaultCollectionName = "Article Collection"

// ErrEmptyCollection is returned when no article of a collection could be
// converted.
var ErrEmptyCollection = errors.New("oaepub: collection has no convertible articles")

// CollectionOptions names and orders a collection.
type CollectionOptions struct {
	// Name is the title of the collection. The output file is named after
	// its slug. Defaults to "Article Collection".
	Name string

	// OrderFile lists the inputs in reading order, one path per line.
	// Blank lines and lines starting with "#" are skipped; relative paths
	// are relative to the file. When empty, the inputs are read in
	// alphabetical order.
	OrderFile string
}

// CollectionResult is the outcome of ConvertCollection.
type CollectionResult struct {
	Output string `json:"output,omitempty"`

	// ID is the unique identifier of the package.
	ID string `json:"id,omitempty"`

	// Articles holds one result per input in reading order. Articles that
	// failed carry an error and are not part of the package. Repeated
	// articles are kept once; later copies carry a SkippedContent warning.
	Articles []Result    `json:"articles"`
	Issues   []epub.Issue `json:"issues,omitempty"`
	Err      error        `json:"-"`
}

// ConvertCollection combines articles into one package. Articles that
// cannot be converted are skipped and reported in the result; the package
// is written as long as one article remains.
func (c *Converter) ConvertCollection(ctx context.Context, inputs []string, opts CollectionOptions) (*CollectionResult, error) {
	res := &CollectionResult{}
	fail := func(err error) (*CollectionResult, error) {
		res.Err = err
		c.log.Error("collection failed", zap.String("name", opts.Name), zap.Error(err))
		return res, err
	}

	if opts.OrderFile != "" {
		var err error
		if inputs, err = ReadOrderFile(opts.OrderFile); err != nil {
			return fail(err)
		}
	} else {
		inputs = append([]string(nil), inputs...)
		sort.Strings(inputs)
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = defaultCollectionName
	}

	arts := make([]*article, len(inputs))
	res.Articles = make([]Result, len(inputs))
	c.forEach(ctx, len(inputs), func(ctx context.Context, i int) {
		r := Result{Input: inputs[i]}
		a, err := c.render(ctx, inputs[i])
		if a != nil {
			r.DOI = a.doc.DOI()
			r.Publisher = a.publisher
			r.Warnings = a.report.Warnings()
		}
		if err != nil {
			r.Err = err
			c.log.Warn("article skipped", zap.String("input", inputs[i]), zap.Error(err))
		} else {
			arts[i] = a
		}
		res.Articles[i] = r
	})
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	dropDuplicates(arts, res.Articles)
	arts = lo.Compact(arts)
	if len(arts) == 0 {
		return fail(ErrEmptyCollection)
	}

	md := collectionMetadata(name, arts, c.cfg.Language)
	pkg, err := c.assemble(md, arts)
	if err != nil {
		return fail(err)
	}
	pkg.DocTitle = CollectionDocTitle
	pkg.Nav = collectionNav(arts)

	out := filepath.Join(c.cfg.OutputDir, slug.Make(name)+".epub")
	if err := c.write(ctx, pkg, out); err != nil {
		return fail(err)
	}
	res.Output = out
	res.ID = md.Identifier.Value
	res.Issues = c.validate(ctx, out)

	c.log.Info("collection converted",
		zap.String("output", out),
		zap.Int("articles", len(arts)),
		zap.Int("skipped", len(inputs)-len(arts)))
	return res, nil
}

// dropDuplicates leaves out every article whose DOI an earlier article of
// the collection already has, with a warning in its result.
func dropDuplicates(arts []*article, results []Result) {
	first := make(map[string]string)
	for i, a := range arts {
		if a == nil {
			continue
		}
		doi := a.doc.DOI()
		prev, dup := first[doi]
		if !dup {
			first[doi] = results[i].Input
			continue
		}
		a.report.Add(report.SkippedContent, fmt.Sprintf("duplicate of %s; left out of the collection", prev), results[i].Input)
		results[i].Warnings = a.report.Warnings()
		arts[i] = nil
	}
}

// collectionNav nests the navigation map of every article under an entry
// for the article.
func collectionNav(arts []*article) []epub.NavPoint {
	return lo.Map(arts, func(a *article, _ int) epub.NavPoint {
		nav := articleNav(a.result)
		return epub.NavPoint{
			ID:       "article-" + a.doc.DOIFragment(),
			Label:    norm.NFC.String(a.md.Title),
			Src:      a.result.Files.Main,
			Children: nav[1:],
		}
	})
}

// collectionMetadata describes a collection. The identifier is a name-based
// UUID over the DOIs in reading order, so the same articles in the same
// order always yield the same identifier.
func collectionMetadata(name string, arts []*article, fallbackLang string) epub.Metadata {
	dois := lo.Map(arts, func(a *article, _ int) string { return a.md.DOI })
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(dois, "\n")))

	var md epub.Metadata
	var publishers []string
	for i, a := range arts {
		m := packageMetadata(a.md, fallbackLang)
		if i == 0 {
			md.Language = m.Language
		}
		md.Creators = append(md.Creators, m.Creators...)
		md.Contributors = append(md.Contributors, m.Contributors...)
		md.Subjects = append(md.Subjects, m.Subjects...)
		publishers = append(publishers, m.Publisher)
	}
	byName := func(a epub.Author) string { return a.Name }
	md.Creators = lo.UniqBy(md.Creators, byName)
	md.Contributors = lo.UniqBy(md.Contributors, byName)
	md.Subjects = lo.Uniq(md.Subjects)
	md.Publisher = strings.Join(lo.Uniq(lo.Compact(publishers)), "; ")

	md.Identifier = epub.Identifier{Value: "urn:uuid:" + id.String(), Scheme: "UUID"}
	md.Title = name
	md.Description = fmt.Sprintf("A collection of %d articles: %s", len(arts), strings.Join(dois, ", "))
	md.Generator = Generator
	return md
}

// ReadOrderFile reads a collection ordering file.
func ReadOrderFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("oaepub: open order file: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(name)
	var inputs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(dir, line)
		}
		inputs = append(inputs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("oaepub: read order file %s: %w", name, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("oaepub: order file %s lists no articles", name)
	}
	return inputs, nil
}
