package oaepub

import (
	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/simp-lee/oaepub/epub"
	"github.com/simp-lee/oaepub/transform"
)

// articleNav returns the navigation map of one article: the title page,
// the titled blocks before the body, the body outline, the titled blocks
// after it, and the references.
func articleNav(res *transform.Result) []epub.NavPoint {
	nav := []epub.NavPoint{{ID: "titlepage", Label: "Title Page", Src: res.Files.Main}}
	nav = append(nav, headingPoints(res.Front)...)
	nav = append(nav, headingPoints(res.Outline)...)
	nav = append(nav, headingPoints(res.Back)...)
	if res.References {
		nav = append(nav, epub.NavPoint{ID: "references", Label: "References", Src: res.Files.Biblio})
	}
	return nav
}

func headingPoints(hs []transform.Heading) []epub.NavPoint {
	return lo.Map(hs, func(h transform.Heading, _ int) epub.NavPoint {
		return epub.NavPoint{
			ID:       h.ID,
			Label:    norm.NFC.String(h.Title),
			Src:      h.Href,
			Children: headingPoints(h.Children),
		}
	})
}

// navTargets converts figures or tables into navList targets. Target ids
// are prefixed with the list id.
func navTargets(list string, targets []transform.Target) []epub.NavTarget {
	return lo.Map(targets, func(t transform.Target, _ int) epub.NavTarget {
		label := t.Label
		if label == "" {
			label = t.ID
		}
		return epub.NavTarget{ID: list + "-" + t.ID, Label: norm.NFC.String(label), Src: t.Href}
	})
}

// navLists returns the list of figures and the list of tables. Empty lists
// are dropped by the NCX writer.
func navLists(figures, tables []epub.NavTarget) []epub.NavList {
	return []epub.NavList{
		{ID: "lof", Class: "lof", Label: "List of Figures", Targets: figures},
		{ID: "lot", Class: "lot", Label: "List of Tables", Targets: tables},
	}
}
