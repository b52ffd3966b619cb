package epub

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/beevik/etree"
)

// expectedMimetype is the content of the "mimetype" entry.
const expectedMimetype = "application/epub+zip"

// Write validates p and writes it as an ePub archive to w. Nothing is
// written when validation fails.
func Write(ctx context.Context, w io.Writer, p *Package) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return writeArchive(ctx, w, p)
}

// WriteFile validates p and writes it to name. The archive is written to a
// temporary file in the same directory and renamed on success; on any
// failure, including cancellation of ctx, the temporary file is removed and
// name is left untouched.
func WriteFile(ctx context.Context, p *Package, name string) (err error) {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("epub: create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("epub: create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := writeArchive(ctx, tmp, p); err != nil {
		return fmt.Errorf("epub: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("epub: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("epub: rename %s: %w", tmp.Name(), err)
	}
	return nil
}

func writeArchive(ctx context.Context, w io.Writer, p *Package) error {
	zw := zip.NewWriter(w)

	if err := writeMimetype(zw); err != nil {
		return fmt.Errorf("mimetype: %w", err)
	}

	docs := []struct {
		name string
		doc  *etree.Document
	}{
		{containerPath, buildContainer()},
		{path.Join(OPFDir, opfName), buildOPF(p)},
		{path.Join(OPFDir, ncxName), buildNCX(p)},
	}
	for _, d := range docs {
		d.doc.Indent(2)
		data, err := d.doc.WriteToBytes()
		if err != nil {
			return fmt.Errorf("serialize %s: %w", d.name, err)
		}
		if err := writeEntry(zw, d.name, data); err != nil {
			return err
		}
	}

	for _, it := range p.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeEntry(zw, path.Join(OPFDir, it.Href), it.Data); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

// writeMimetype writes the first entry: stored, and with a zero
// modification time so that no extra field is emitted.
func writeMimetype(zw *zip.Writer) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, expectedMimetype)
	return err
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
