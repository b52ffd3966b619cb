package epub

import (
	"archive/zip"
	"context"
	"io"
	"strings"
	"testing"
)

// validEntries returns the entries of a freshly written test package.
func validEntries(t *testing.T) map[string]string {
	t.Helper()
	files := make(map[string]string)
	for _, f := range readArchiveFiles(t, writeTestPackage(t, newTestPackage(t))) {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func issueCodes(issues []Issue) map[string]bool {
	codes := make(map[string]bool, len(issues))
	for _, i := range issues {
		codes[i.Code] = true
	}
	return codes
}

func TestCheck_ValidPackage(t *testing.T) {
	issues, err := Check(writeTestPackage(t, newTestPackage(t)))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("Check() = %v, want no issues", issues)
	}
}

func TestCheck_Problems(t *testing.T) {
	const adept = `<?xml version="1.0"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <EncryptedData xmlns="http://www.w3.org/2001/04/xmlenc#">
    <EncryptionMethod Algorithm="http://www.w3.org/2001/04/xmlenc#aes128-cbc"/>
    <KeyInfo><resource xmlns="http://ns.adobe.com/adept">x</resource></KeyInfo>
    <CipherData><CipherReference URI="OEBPS/main.x.xhtml"/></CipherData>
  </EncryptedData>
</encryption>`
	const obfuscated = `<?xml version="1.0"?>
<encryption xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <EncryptedData xmlns="http://www.w3.org/2001/04/xmlenc#">
    <EncryptionMethod Algorithm="http://www.idpf.org/2008/embedding"/>
    <CipherData><CipherReference URI="OEBPS/font.otf"/></CipherData>
  </EncryptedData>
</encryption>`

	tests := []struct {
		name     string
		modify   func(files map[string]string)
		method   uint16
		want     []string
		severity Severity
	}{
		{
			name:     "compressed mimetype",
			modify:   func(map[string]string) {},
			method:   zip.Deflate,
			want:     []string{"PKG-002"},
			severity: SeverityError,
		},
		{
			name:   "no mimetype",
			modify: func(f map[string]string) { delete(f, "mimetype") },
			want:   []string{"PKG-001"},
		},
		{
			name:   "wrong mimetype",
			modify: func(f map[string]string) { f["mimetype"] = "application/zip" },
			want:   []string{"PKG-003"},
		},
		{
			name:   "missing image",
			modify: func(f map[string]string) { delete(f, "OEBPS/images-x/g001.png") },
			want:   []string{"OPF-003", "RSC-001"},
		},
		{
			name: "missing anchor",
			modify: func(f map[string]string) {
				f["OEBPS/main.x.xhtml"] = strings.Replace(f["OEBPS/main.x.xhtml"], `id="abstract"`, `id="summary"`, 1)
			},
			want: []string{"NCX-005"},
		},
		{
			name: "uid mismatch",
			modify: func(f map[string]string) {
				f["OEBPS/toc.ncx"] = strings.Replace(f["OEBPS/toc.ncx"], "journal.pone.0012345", "journal.pone.0099999", 1)
			},
			want: []string{"NCX-002"},
		},
		{
			name: "missing navigation file",
			modify: func(f map[string]string) {
				f["OEBPS/toc.ncx"] = strings.ReplaceAll(f["OEBPS/toc.ncx"], "biblio.x.xhtml#", "gone.xhtml#")
			},
			want: []string{"NCX-003"},
		},
		{
			name: "dangling fragment",
			modify: func(f map[string]string) {
				f["OEBPS/main.x.xhtml"] = strings.Replace(f["OEBPS/main.x.xhtml"], "biblio.x.xhtml#B1", "biblio.x.xhtml#B2", 1)
			},
			want: []string{"RSC-012"},
		},
		{
			name: "dangling same-document fragment",
			modify: func(f map[string]string) {
				f["OEBPS/main.x.xhtml"] = strings.Replace(f["OEBPS/main.x.xhtml"], `href="#fig1"`, `href="#fig9"`, 1)
			},
			want: []string{"RSC-012"},
		},
		{
			name: "missing link target",
			modify: func(f map[string]string) {
				f["OEBPS/main.x.xhtml"] = strings.Replace(f["OEBPS/main.x.xhtml"], "biblio.x.xhtml#B1", "tables.x.xhtml#T1", 1)
			},
			want:     []string{"RSC-007"},
			severity: SeverityError,
		},
		{
			name:   "no container and no OPF",
			modify: func(f map[string]string) { delete(f, "META-INF/container.xml"); delete(f, "OEBPS/content.opf") },
			want:   []string{"OCF-001"},
		},
		{
			name:   "adobe drm",
			modify: func(f map[string]string) { f["META-INF/encryption.xml"] = adept },
			want:   []string{"ENC-001"},
		},
		{
			name:   "malformed encryption.xml",
			modify: func(f map[string]string) { f["META-INF/encryption.xml"] = "<encryption" },
			want:   []string{"ENC-002"},
		},
		{
			name: "non-image reference",
			modify: func(f map[string]string) {
				f["OEBPS/main.x.xhtml"] = strings.Replace(f["OEBPS/main.x.xhtml"], "images-x/g001.png", "css/article.css", 1)
			},
			want:     []string{"RSC-002"},
			severity: SeverityWarning,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := validEntries(t)
			tt.modify(files)
			method := tt.method
			if method == 0 {
				method = zip.Store
			}
			issues, err := Check(buildTestEPubFile(t, files, method))
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			codes := issueCodes(issues)
			for _, code := range tt.want {
				if !codes[code] {
					t.Errorf("Check() = %v, want code %s", issues, code)
				}
			}
			if tt.severity != "" {
				for _, i := range issues {
					if i.Code == tt.want[0] && i.Severity != tt.severity {
						t.Errorf("%s severity = %s, want %s", i.Code, i.Severity, tt.severity)
					}
				}
			}
		})
	}

	t.Run("font obfuscation is tolerated", func(t *testing.T) {
		files := validEntries(t)
		files["META-INF/encryption.xml"] = obfuscated
		issues, err := Check(buildTestEPubFile(t, files, zip.Store))
		if err != nil {
			t.Fatal(err)
		}
		if codes := issueCodes(issues); codes["ENC-001"] || codes["ENC-002"] {
			t.Errorf("Check() = %v, want no encryption issue", issues)
		}
	})
}

func TestCheck_NotZip(t *testing.T) {
	name := writeTestPackage(t, newTestPackage(t)) + ".missing"
	if _, err := Check(name); err == nil {
		t.Error("Check() on a missing file succeeded")
	}
}

func TestChecker_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (Checker{}).Validate(ctx, "unused.epub"); err != context.Canceled {
		t.Errorf("Validate() error = %v, want context.Canceled", err)
	}
}

func TestHasErrors(t *testing.T) {
	if HasErrors([]Issue{{Severity: SeverityWarning, Code: "RSC-003"}}) {
		t.Error("warnings reported as errors")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Error("error not reported")
	}
	got := Issue{Severity: SeverityError, Code: "NCX-005", Message: "m", Location: "OEBPS/toc.ncx"}.String()
	if got != "ERROR(NCX-005): m [OEBPS/toc.ncx]" {
		t.Errorf("String() = %q", got)
	}
}
