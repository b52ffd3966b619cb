package oaepub

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/publisher"
)

// packageMetadata maps article metadata to the Dublin Core metadata of
// the OPF. fallbackLang is used when the article declares no language.
func packageMetadata(md *publisher.Metadata, fallbackLang string) epub.Metadata {
	m := epub.Metadata{
		Identifier:   epub.Identifier{Value: md.DOI, Scheme: "DOI"},
		Title:        norm.NFC.String(md.Title),
		Creators:     lo.Map(md.Authors, toAuthor),
		Contributors: lo.Map(md.Editors, toAuthor),
		Language:     canonicalLanguage(md.Language, fallbackLang),
		Publisher:    md.Publisher,
		Rights:       md.Rights,
		Description:  norm.NFC.String(md.Description),
		Subjects:     lo.Uniq(lo.Compact(append(append([]string(nil), md.Subjects...), md.Keywords...))),
		Dates:        dublinCoreDates(md.Dates),
		Generator:    Generator,
	}
	if m.Rights == "" {
		m.Rights = md.License
	}
	return m
}

func toAuthor(p publisher.Person, _ int) epub.Author {
	return epub.Author{Name: p.Name, FileAs: p.FileAs, Role: p.Role}
}

// dublinCoreDates returns the known dates with their opf:event names.
func dublinCoreDates(d publisher.Dates) []epub.Date {
	var out []epub.Date
	for _, e := range []struct {
		event string
		value string
	}{
		{"publication", publisher.ISODate(d.Published)},
		{"received", publisher.ISODate(d.Received)},
		{"accepted", publisher.ISODate(d.Accepted)},
	} {
		if e.value != "" {
			out = append(out, epub.Date{Event: e.event, Value: e.value})
		}
	}
	return out
}

// canonicalLanguage returns the canonical BCP 47 form of the first
// parseable tag among tag, fallback and "en".
func canonicalLanguage(tag, fallback string) string {
	for _, s := range []string{tag, fallback} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if t, err := language.Parse(s); err == nil {
			return t.String()
		}
	}
	return "en"
}

// docAuthor is the NCX docAuthor: the author names joined by commas.
func docAuthor(md *publisher.Metadata) string {
	return strings.Join(lo.Map(md.Authors, func(p publisher.Person, _ int) string { return p.Name }), ", ")
}
