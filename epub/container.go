package epub

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"
)

// containerPath is the well-known location of container.xml.
const containerPath = "META-INF/container.xml"

const containerNS = "urn:oasis:names:tc:opendocument:xmlns:container"

// buildContainer returns the OCF container descriptor pointing at the OPF.
func buildContainer() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	container := doc.CreateElement("container")
	container.CreateAttr("version", "1.0")
	container.CreateAttr("xmlns", containerNS)

	rootfile := container.CreateElement("rootfiles").CreateElement("rootfile")
	rootfile.CreateAttr("full-path", path.Join(OPFDir, opfName))
	rootfile.CreateAttr("media-type", MediaTypeOPF)
	return doc
}

// containerXML models META-INF/container.xml when reading a package back.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// parseContainer locates the OPF path. Without a container.xml it falls
// back to the first ".opf" entry; usesFallback reports that case.
func parseContainer(zr *zip.Reader, idx zipIndex) (opfPath string, usesFallback bool, err error) {
	f := idx.find(containerPath)
	if f == nil {
		for _, zf := range zr.File {
			if strings.HasSuffix(strings.ToLower(zf.Name), ".opf") {
				return zf.Name, true, nil
			}
		}
		return "", false, fmt.Errorf("epub: no OPF file found in archive: %w", ErrInvalidEPub)
	}

	data, err := readZipFile(f)
	if err != nil {
		return "", false, fmt.Errorf("epub: read container.xml: %w", err)
	}
	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", false, fmt.Errorf("epub: parse container.xml: %w", err)
	}

	var fallback string
	for _, rf := range c.RootFiles {
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), MediaTypeOPF) {
			return fullPath, false, nil
		}
		if fallback == "" {
			fallback = fullPath
		}
	}
	if fallback == "" {
		return "", false, fmt.Errorf("epub: container.xml has no rootfile: %w", ErrInvalidEPub)
	}
	return fallback, false, nil
}
