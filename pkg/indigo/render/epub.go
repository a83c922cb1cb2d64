package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
)

// EPUB renders one or more expressions as an ePUB 3 archive: one XHTML
// chapter per document.
type EPUB struct {
	html *HTML
}

// NewEPUB creates the ePUB renderer.
func NewEPUB() *EPUB { return &EPUB{html: NewHTML()} }

func (r *EPUB) MediaType() string { return "application/epub+zip" }

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

func (r *EPUB) Render(ctx context.Context, w io.Writer, in Input) error {
	if len(in.Documents) == 0 {
		return errors.New("epub output requires at least one document")
	}

	archive := zip.NewWriter(w)

	// The mimetype entry must come first and be stored uncompressed.
	mimetype, err := archive.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	if _, err := mimetype.Write([]byte("application/epub+zip")); err != nil {
		return err
	}

	if err := writeZipFile(archive, "META-INF/container.xml", []byte(containerXML)); err != nil {
		return err
	}

	if err := r.writePackage(archive, in.Documents); err != nil {
		return err
	}

	for i, doc := range in.Documents {
		chapter, err := r.chapter(ctx, doc, in)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("OEBPS/doc-%d.xhtml", i+1)
		if err := writeZipFile(archive, name, chapter); err != nil {
			return err
		}
	}

	return archive.Close()
}

func (r *EPUB) writePackage(archive *zip.Writer, docs []*indigo.Document) error {
	title := docs[0].Title
	if len(docs) > 1 {
		title = fmt.Sprintf("%s and %d more", title, len(docs)-1)
	}

	var opf bytes.Buffer
	opf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	opf.WriteString(`<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">` + "\n")
	opf.WriteString("<metadata xmlns:dc=\"http://purl.org/dc/elements/1.1/\">\n")
	fmt.Fprintf(&opf, "<dc:identifier id=\"uid\">%s</dc:identifier>\n", html.EscapeString(docs[0].ExpressionURI()))
	fmt.Fprintf(&opf, "<dc:title>%s</dc:title>\n", html.EscapeString(title))
	fmt.Fprintf(&opf, "<dc:language>%s</dc:language>\n", html.EscapeString(docs[0].Language))
	opf.WriteString("</metadata>\n<manifest>\n")
	for i := range docs {
		fmt.Fprintf(&opf, "<item id=\"doc-%d\" href=\"doc-%d.xhtml\" media-type=\"application/xhtml+xml\"/>\n", i+1, i+1)
	}
	opf.WriteString("</manifest>\n<spine>\n")
	for i := range docs {
		fmt.Fprintf(&opf, "<itemref idref=\"doc-%d\"/>\n", i+1)
	}
	opf.WriteString("</spine>\n</package>\n")

	return writeZipFile(archive, "OEBPS/content.opf", opf.Bytes())
}

func (r *EPUB) chapter(ctx context.Context, doc *indigo.Document, in Input) ([]byte, error) {
	var body bytes.Buffer
	single := in
	single.Documents = []*indigo.Document{doc}
	single.Standalone = false
	if err := r.html.Render(ctx, &body, single); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	page.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	page.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml">` + "\n<head>\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(doc.Title))
	page.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&page, "<h1>%s</h1>\n", html.EscapeString(doc.Title))
	page.Write(body.Bytes())
	page.WriteString("\n</body>\n</html>\n")
	return page.Bytes(), nil
}

func writeZipFile(archive *zip.Writer, name string, data []byte) error {
	f, err := archive.Create(name)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}
