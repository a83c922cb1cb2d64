package render

import (
	"context"
	"errors"
	"io"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/akn"
)

// XML renders the raw Akoma Ntoso of an expression, or of a component or
// subcomponent of it.
type XML struct{}

// NewXML creates the XML renderer.
func NewXML() *XML { return &XML{} }

func (r *XML) MediaType() string { return "application/xml" }

func (r *XML) Render(ctx context.Context, w io.Writer, in Input) error {
	if len(in.Documents) != 1 {
		return errors.New("xml output requires exactly one document")
	}

	parsed, node, err := portion(in.Documents[0], in)
	if err != nil {
		return err
	}

	var out []byte
	if node != nil {
		out = akn.NodeXML(node)
	} else {
		out = parsed.XML()
	}
	_, err = w.Write(out)
	return err
}
