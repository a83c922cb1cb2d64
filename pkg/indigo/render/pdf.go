package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmlpkg "html"
	"io"
	"os/exec"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
)

// PDF renders expressions to PDF by piping standalone HTML through an
// external HTML-to-PDF converter such as wkhtmltopdf or weasyprint. For a
// multi-document rendition the documents are converted in sequence into one
// output.
type PDF struct {
	converterPath string
	converterArgs []string
	html          *HTML
}

// NewPDF creates a PDF renderer using the converter binary at path. Extra
// args are passed before the input and output arguments, which are both "-"
// (stdin and stdout).
func NewPDF(path string, args ...string) *PDF {
	return &PDF{
		converterPath: path,
		converterArgs: args,
		html:          NewHTML(),
	}
}

func (r *PDF) MediaType() string { return "application/pdf" }

func (r *PDF) Render(ctx context.Context, w io.Writer, in Input) error {
	if r.converterPath == "" {
		return errors.New("no HTML-to-PDF converter configured")
	}
	if len(in.Documents) == 0 {
		return errors.New("pdf output requires at least one document")
	}

	var html bytes.Buffer
	if len(in.Documents) == 1 {
		single := in
		single.Standalone = true
		if err := r.html.Render(ctx, &html, single); err != nil {
			return err
		}
		return r.convert(ctx, w, &html)
	}

	// Multiple documents share one page with a break between them.
	html.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"></head>\n<body>\n")
	for i, doc := range in.Documents {
		if i > 0 {
			html.WriteString("\n<div style=\"page-break-before: always\"></div>\n")
		}
		fmt.Fprintf(&html, "<h1>%s</h1>\n", htmlpkg.EscapeString(doc.Title))
		single := in
		single.Documents = []*indigo.Document{doc}
		single.Standalone = false
		if err := r.html.Render(ctx, &html, single); err != nil {
			return err
		}
	}
	html.WriteString("\n</body>\n</html>\n")

	return r.convert(ctx, w, &html)
}

func (r *PDF) convert(ctx context.Context, w io.Writer, html io.Reader) error {
	args := append(append([]string{}, r.converterArgs...), "-", "-")
	cmd := exec.CommandContext(ctx, r.converterPath, args...)
	cmd.Stdin = html
	cmd.Stdout = w

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pdf conversion failed: %w: %s", err, stderr.String())
	}
	return nil
}
