package epub

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// encryptionFilePath is the standard path for the encryption descriptor.
const encryptionFilePath = "META-INF/encryption.xml"

// sinfFilePath indicates Apple FairPlay DRM.
const sinfFilePath = "META-INF/sinf.xml"

// Font obfuscation algorithm URIs. Obfuscated fonts are tolerated.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true,
	"http://ns.adobe.com/pdf/enc#RC":     true,
}

// Known DRM namespace prefixes found in KeyInfo child elements or algorithm URIs.
var drmSignatures = map[string]string{
	"http://ns.adobe.com/adept":      "Adobe ADEPT",
	"http://readium.org/2014/01/lcp": "Readium LCP",
}

type xmlEncryption struct {
	XMLName       xml.Name           `xml:"encryption"`
	EncryptedData []xmlEncryptedData `xml:"EncryptedData"`
}

type xmlEncryptedData struct {
	EncryptionMethod struct {
		Algorithm string `xml:"Algorithm,attr"`
	} `xml:"EncryptionMethod"`
	KeyInfo struct {
		InnerXML string `xml:",innerxml"`
	} `xml:"KeyInfo"`
	CipherReference struct {
		URI string `xml:"URI,attr"`
	} `xml:"CipherData>CipherReference"`
}

// checkEncryption reports encrypted resources. Packages written by this
// package never carry encryption, so any entry other than font
// obfuscation is an error.
func checkEncryption(idx zipIndex) []Issue {
	var issues []Issue
	if idx.find(sinfFilePath) != nil {
		issues = append(issues, Issue{SeverityError, "ENC-001", "package is protected by Apple FairPlay DRM", sinfFilePath})
	}

	f := idx.find(encryptionFilePath)
	if f == nil {
		return issues
	}
	data, err := readZipFile(f)
	if err != nil {
		return append(issues, Issue{SeverityError, "ENC-002", err.Error(), encryptionFilePath})
	}
	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		return append(issues, Issue{SeverityError, "ENC-002", fmt.Sprintf("encryption.xml is not well-formed: %v", err), encryptionFilePath})
	}

	for _, ed := range enc.EncryptedData {
		algo := ed.EncryptionMethod.Algorithm
		if fontObfuscationAlgorithms[algo] {
			continue
		}
		scheme := "unknown scheme"
		if s := drmScheme(algo + ed.KeyInfo.InnerXML); s != "" {
			scheme = s
		}
		issues = append(issues, Issue{SeverityError, "ENC-001",
			fmt.Sprintf("resource is encrypted (%s)", scheme), ed.CipherReference.URI})
	}
	return issues
}

// drmScheme names the DRM scheme whose namespace occurs in s.
func drmScheme(s string) string {
	for sig, name := range drmSignatures {
		if strings.Contains(s, sig) {
			return name
		}
	}
	return ""
}
