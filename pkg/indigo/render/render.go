// Package render turns resolved expressions into output formats: raw Akoma
// Ntoso XML, HTML, PDF, ePUB and ZIP renditions.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/akn"
)

// ErrUnknownFormat indicates no renderer is registered for a format.
var ErrUnknownFormat = errors.New("unknown output format")

// MediaFile is one attachment included in a ZIP rendition.
type MediaFile struct {
	Filename string
	Content  io.ReadCloser
}

// MediaFetcher streams the media attachments of a document, for renditions
// that bundle them.
type MediaFetcher func(ctx context.Context, doc *indigo.Document) ([]MediaFile, error)

// Input is what a renderer works from. Documents holds one expression for
// single-document output, or several for a listing rendition.
type Input struct {
	Documents []*indigo.Document

	// Component and Subcomponent narrow the output to a portion of the
	// document, e.g. "schedule1" or "main" + "section/2".
	Component    string
	Subcomponent string

	// Standalone wraps HTML output in a complete page.
	Standalone bool

	// Media supplies attachment streams for ZIP renditions.
	Media MediaFetcher
}

// Renderer renders one or more expressions to an output format.
type Renderer interface {
	// MediaType is the Content-Type of the rendered output.
	MediaType() string

	Render(ctx context.Context, w io.Writer, in Input) error
}

// Registry maps format names to renderers.
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry creates a registry with the built-in formats registered:
// json, xml, html, epub and zip. PDF requires an external converter and is
// registered separately.
func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[string]Renderer)}
	r.Register("json", NewJSON())
	r.Register("xml", NewXML())
	r.Register("html", NewHTML())
	r.Register("epub", NewEPUB())
	r.Register("zip", NewZIP())
	return r
}

// Register adds or replaces the renderer for a format.
func (r *Registry) Register(format string, renderer Renderer) {
	r.renderers[format] = renderer
}

// Get returns the renderer for a format.
func (r *Registry) Get(format string) (Renderer, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return renderer, nil
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.renderers))
	for format := range r.renderers {
		formats = append(formats, format)
	}
	return formats
}

// portion parses a document's XML and returns the node selected by the
// input's component and subcomponent. The node is nil when no component is
// set and the whole document applies.
func portion(doc *indigo.Document, in Input) (*akn.Document, *xmlquery.Node, error) {
	parsed, err := akn.Parse([]byte(doc.XML))
	if err != nil {
		return nil, nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	if in.Component == "" {
		return parsed, nil, nil
	}

	var node *xmlquery.Node
	if in.Subcomponent != "" {
		node = parsed.Subcomponent(in.Component, in.Subcomponent)
	} else {
		node = parsed.Component(in.Component)
	}
	if node == nil {
		return nil, nil, indigo.ErrDocumentNotFound
	}
	return parsed, node, nil
}
