package publisher

import (
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/oaepub/jpts"
)

// PersonName returns the display name and the file-as name of a contributor.
//
//   - a collaboration uses its text for both
//   - an anonymous contributor is "Anonymous"
//   - a surname with given names is "Given Surname", filed as "Surname, G"
//   - a bare surname is used as is
func PersonName(c jpts.Contrib) (name, fileAs string) {
	switch {
	case c.Collab != "":
		return c.Collab, c.Collab
	case c.Anonymous:
		return "Anonymous", "Anonymous"
	}
	return NameStrings(c.Name)
}

// NameStrings formats a structured name; see PersonName.
func NameStrings(n jpts.Name) (name, fileAs string) {
	given := strings.TrimSpace(n.GivenNames)
	surname := strings.TrimSpace(n.Surname)
	if given == "" {
		return surname, surname
	}
	if surname == "" {
		return given, given
	}
	r, _ := utf8.DecodeRuneInString(given)
	name = given + " " + surname
	if n.Suffix != "" {
		name += " " + n.Suffix
	}
	return name, surname + ", " + string(r)
}

// Initials abbreviates given names to their initials without periods
// ("Jane A." -> "JA", "Jean-Luc" -> "JL").
func Initials(given string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(given, func(r rune) bool {
		return r == ' ' || r == '-' || r == '.'
	}) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)
	}
	return b.String()
}
