package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/akn"
)

// HTML renders an expression as HTML. By default it emits only the document
// body; with Input.Standalone it wraps the body in a complete page with a
// colophon and table of contents.
type HTML struct{}

// NewHTML creates the HTML renderer.
func NewHTML() *HTML { return &HTML{} }

func (r *HTML) MediaType() string { return "text/html" }

func (r *HTML) Render(ctx context.Context, w io.Writer, in Input) error {
	if len(in.Documents) != 1 {
		return errors.New("html output requires exactly one document")
	}
	doc := in.Documents[0]

	parsed, node, err := portion(doc, in)
	if err != nil {
		return err
	}

	var body []byte
	if node != nil {
		body = akn.ToHTML(node)
	} else {
		body = parsed.ToHTML()
	}

	if !in.Standalone {
		_, err = w.Write(body)
		return err
	}
	return writeStandalone(w, doc, parsed, body)
}

func writeStandalone(w io.Writer, doc *indigo.Document, parsed *akn.Document, body []byte) error {
	var buf bytes.Buffer
	title := html.EscapeString(doc.Title)

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", title)
	buf.WriteString("</head>\n<body>\n")

	// colophon
	buf.WriteString("<header class=\"colophon\">\n")
	fmt.Fprintf(&buf, "<h1>%s</h1>\n", title)
	fmt.Fprintf(&buf, "<p class=\"expression-frbr-uri\">%s</p>\n", html.EscapeString(doc.ExpressionURI()))
	fmt.Fprintf(&buf, "<p class=\"expression-date\">as at %s</p>\n", doc.ExpressionDate.String())
	buf.WriteString("</header>\n")

	if toc := parsed.TableOfContents(); len(toc) > 0 {
		buf.WriteString("<nav class=\"toc\">\n")
		writeTOCList(&buf, toc)
		buf.WriteString("</nav>\n")
	}

	buf.WriteString("<main>\n")
	buf.Write(body)
	buf.WriteString("\n</main>\n</body>\n</html>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeTOCList(buf *bytes.Buffer, entries []*akn.TOCElement) {
	buf.WriteString("<ol>\n")
	for _, entry := range entries {
		fmt.Fprintf(buf, "<li><a href=\"#%s\">%s</a>", html.EscapeString(entry.ID), html.EscapeString(entry.Title))
		if len(entry.Children) > 0 {
			buf.WriteString("\n")
			writeTOCList(buf, entry.Children)
		}
		buf.WriteString("</li>\n")
	}
	buf.WriteString("</ol>\n")
}
