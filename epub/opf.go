package epub

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	opfNS     = "http://www.idpf.org/2007/opf"
	dcNS      = "http://purl.org/dc/elements/1.1/"
	primaryID = "PrimaryID"
)

// buildOPF returns the OPF 2.0 package document of p.
func buildOPF(p *Package) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	pkg := doc.CreateElement("package")
	pkg.CreateAttr("xmlns", opfNS)
	pkg.CreateAttr("version", "2.0")
	pkg.CreateAttr("unique-identifier", primaryID)

	writeMetadata(pkg.CreateElement("metadata"), p.Metadata)

	manifest := pkg.CreateElement("manifest")
	ncx := manifest.CreateElement("item")
	ncx.CreateAttr("id", ncxID)
	ncx.CreateAttr("href", ncxName)
	ncx.CreateAttr("media-type", MediaTypeNCX)
	for _, it := range p.items {
		item := manifest.CreateElement("item")
		item.CreateAttr("id", it.ID)
		item.CreateAttr("href", it.Href)
		item.CreateAttr("media-type", it.MediaType)
	}

	spine := pkg.CreateElement("spine")
	spine.CreateAttr("toc", ncxID)
	for _, ref := range p.spine {
		itemref := spine.CreateElement("itemref")
		itemref.CreateAttr("idref", ref.IDRef)
		if !ref.Linear {
			itemref.CreateAttr("linear", "no")
		}
	}
	return doc
}

func writeMetadata(metadata *etree.Element, md Metadata) {
	metadata.CreateAttr("xmlns:dc", dcNS)
	metadata.CreateAttr("xmlns:opf", opfNS)

	dc := func(tag, value string) *etree.Element {
		el := metadata.CreateElement("dc:" + tag)
		el.SetText(value)
		return el
	}

	id := dc("identifier", md.Identifier.Value)
	id.CreateAttr("id", primaryID)
	if md.Identifier.Scheme != "" {
		id.CreateAttr("opf:scheme", md.Identifier.Scheme)
	}
	dc("title", md.Title)

	lang := md.Language
	if lang == "" {
		lang = "en"
	}
	dc("language", lang)

	for _, a := range md.Creators {
		writePerson(dc("creator", a.Name), a, "aut")
	}
	for _, a := range md.Contributors {
		writePerson(dc("contributor", a.Name), a, "edt")
	}
	if md.Publisher != "" {
		dc("publisher", md.Publisher)
	}
	if md.Rights != "" {
		dc("rights", md.Rights)
	}
	if md.Description != "" {
		dc("description", md.Description)
	}
	for _, s := range md.Subjects {
		dc("subject", s)
	}
	for _, d := range md.Dates {
		el := dc("date", d.Value)
		if d.Event != "" {
			el.CreateAttr("opf:event", d.Event)
		}
	}
	if md.Generator != "" {
		meta := metadata.CreateElement("meta")
		meta.CreateAttr("name", "generator")
		meta.CreateAttr("content", md.Generator)
	}
}

func writePerson(el *etree.Element, a Author, defaultRole string) {
	role := a.Role
	if role == "" {
		role = defaultRole
	}
	el.CreateAttr("opf:role", role)
	if a.FileAs != "" {
		el.CreateAttr("opf:file-as", a.FileAs)
	}
}

// opfPackage represents the root <package> element when reading an OPF.
type opfPackage struct {
	XMLName          xml.Name    `xml:"package"`
	Version          string      `xml:"version,attr"`
	UniqueIdentifier string      `xml:"unique-identifier,attr"`
	Metadata         opfMetadata `xml:"metadata"`
	Manifest         opfManifest `xml:"manifest"`
	Spine            opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Titles       []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators     []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Contributors []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ contributor"`
	Languages    []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifiers  []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publishers   []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Dates        []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ date"`
	Descriptions []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ description"`
	Subjects     []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ subject"`
	Rights       []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ rights"`
	Metas        []opfMeta      `xml:"meta"`
}

// opfDCElement holds a Dublin Core element with its ePub 2 opf:
// attributes.
type opfDCElement struct {
	Value  string `xml:",chardata"`
	ID     string `xml:"id,attr"`
	FileAs string `xml:"file-as,attr"`
	Role   string `xml:"role,attr"`
	Scheme string `xml:"scheme,attr"`
	Event  string `xml:"event,attr"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfSpine struct {
	Toc      string            `xml:"toc,attr"`
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// parseOPF decodes an OPF document.
func parseOPF(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(stripBOM(data), &pkg); err != nil {
		return nil, fmt.Errorf("epub: parse OPF: %w", err)
	}
	if pkg.Version == "" {
		pkg.Version = "2.0"
	}
	return &pkg, nil
}

// extractMetadata converts the decoded OPF metadata to Metadata. The
// identifier is the one named by the package's unique-identifier.
func extractMetadata(opf *opfPackage) Metadata {
	om := &opf.Metadata
	var md Metadata

	for _, id := range om.Identifiers {
		if id.ID == opf.UniqueIdentifier || md.Identifier.Value == "" {
			md.Identifier = Identifier{Value: strings.TrimSpace(id.Value), Scheme: id.Scheme}
		}
	}
	md.Title = firstValue(om.Titles)
	md.Language = firstValue(om.Languages)
	md.Publisher = firstValue(om.Publishers)
	md.Rights = firstValue(om.Rights)
	md.Description = firstValue(om.Descriptions)

	people := func(els []opfDCElement) []Author {
		var out []Author
		for _, el := range els {
			if v := strings.TrimSpace(el.Value); v != "" {
				out = append(out, Author{Name: v, FileAs: el.FileAs, Role: el.Role})
			}
		}
		return out
	}
	md.Creators = people(om.Creators)
	md.Contributors = people(om.Contributors)

	for _, s := range om.Subjects {
		if v := strings.TrimSpace(s.Value); v != "" {
			md.Subjects = append(md.Subjects, v)
		}
	}
	for _, d := range om.Dates {
		if v := strings.TrimSpace(d.Value); v != "" {
			md.Dates = append(md.Dates, Date{Event: d.Event, Value: v})
		}
	}
	for _, m := range om.Metas {
		if m.Name == "generator" {
			md.Generator = m.Content
		}
	}
	return md
}

// firstValue returns the first non-empty trimmed value.
func firstValue(els []opfDCElement) string {
	for _, el := range els {
		if v := strings.TrimSpace(el.Value); v != "" {
			return v
		}
	}
	return ""
}
