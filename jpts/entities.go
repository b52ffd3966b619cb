package jpts

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// xmlPredefined are the entities encoding/xml resolves on its own.
var xmlPredefined = map[string]bool{
	"amp": true, "lt": true, "gt": true, "quot": true, "apos": true,
}

// namedEntityPattern matches named character references such as &ndash;.
var namedEntityPattern = regexp.MustCompile(`&([A-Za-z][A-Za-z0-9]{1,31});`)

// preprocessEntities replaces HTML named entities with numeric character
// references so the XML decoder accepts them. Publisher XML that relies on
// a DTD for entity definitions (&ndash;, &nbsp;, ...) would otherwise fail
// to parse because the DTD is never loaded. Unknown names are kept as
// literal text and returned in order of first appearance.
func preprocessEntities(data []byte) ([]byte, []string) {
	var unknown []string
	seen := make(map[string]bool)
	out := namedEntityPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(match[1 : len(match)-1])
		if xmlPredefined[name] {
			return match
		}
		decoded, ok := lookupEntity(name)
		if !ok {
			if !seen[name] {
				seen[name] = true
				unknown = append(unknown, name)
			}
			return []byte("&amp;" + name + ";")
		}
		var b strings.Builder
		for _, r := range decoded {
			b.WriteString("&#")
			b.WriteString(strconv.Itoa(int(r)))
			b.WriteByte(';')
		}
		return []byte(b.String())
	})
	return out, unknown
}

// lookupEntity resolves &name; against the HTML entity table, matching the
// whole name only. html.UnescapeString falls back to the longest legacy
// prefix ("&notit;" reads as "¬it;"), which leaves the semicolon behind.
func lookupEntity(name string) (string, bool) {
	ref := "&" + name + ";"
	decoded := html.UnescapeString(ref)
	if decoded == ref {
		return "", false
	}
	if strings.HasSuffix(decoded, ";") && name != "semi" {
		return "", false
	}
	return decoded, true
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
