package epub

// Metadata holds the Dublin Core metadata written to the OPF file.
type Metadata struct {
	// Identifier is the unique identifier of the package (the DOI of a
	// single article, a urn:uuid for a collection).
	Identifier Identifier

	// Title is the dc:title value.
	Title string

	// Creators are written as dc:creator, Contributors as dc:contributor.
	Creators     []Author
	Contributors []Author

	// Language is a BCP 47 tag (e.g., "en").
	Language string

	Publisher   string
	Rights      string
	Description string
	Subjects    []string

	// Dates are written as dc:date with an opf:event attribute.
	Dates []Date

	// Generator is written as <meta name="generator">.
	Generator string
}

// Author represents a dc:creator or dc:contributor entry.
type Author struct {
	// Name is the display name of the person.
	Name string

	// FileAs is the opf:file-as attribute value (e.g., "Smith, J").
	FileAs string

	// Role is the opf:role attribute value (e.g., "aut", "edt").
	Role string
}

// Identifier represents a dc:identifier entry.
type Identifier struct {
	// Value is the identifier text content.
	Value string

	// Scheme is the opf:scheme attribute value (e.g., "DOI", "URN").
	Scheme string
}

// Date is a dc:date entry. Value is an ISO 8601 date of any precision
// ("2010", "2010-07", "2010-07-21").
type Date struct {
	Event string
	Value string
}

// Item is an entry of the OPF manifest.
type Item struct {
	// ID is the unique identifier of this manifest item.
	ID string

	// Href is the file path relative to the OPF file location.
	Href string

	// MediaType is the MIME type of the resource.
	MediaType string

	// Data holds the file content. It is nil for items read back by Open.
	Data []byte
}

// SpineRef is an entry of the OPF <spine> element.
type SpineRef struct {
	// IDRef is the manifest id of the document.
	IDRef string

	// Linear is false for documents outside the reading order (linear="no").
	Linear bool
}

// NavPoint is an entry of the NCX navMap. Src is relative to the OPF
// directory and may carry a fragment ("main.x.xhtml#sec1").
type NavPoint struct {
	ID       string
	Label    string
	Src      string
	Children []NavPoint
}

// NavTarget is an entry of an NCX navList.
type NavTarget struct {
	ID    string
	Label string
	Src   string
}

// NavList is an NCX navList such as a list of figures.
type NavList struct {
	ID      string
	Class   string
	Label   string
	Targets []NavTarget
}

// MaxNavDepth bounds the nesting of the navMap. Deeper entries are dropped
// when the NCX is written.
const MaxNavDepth = 3
