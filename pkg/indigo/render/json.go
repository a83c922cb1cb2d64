package render

import (
	"context"
	"encoding/json"
	"io"
)

// JSON renders expression metadata as JSON: a single object for one
// document, an array for several.
type JSON struct{}

// NewJSON creates the JSON renderer.
func NewJSON() *JSON { return &JSON{} }

func (r *JSON) MediaType() string { return "application/json" }

func (r *JSON) Render(ctx context.Context, w io.Writer, in Input) error {
	enc := json.NewEncoder(w)
	if len(in.Documents) == 1 {
		return enc.Encode(in.Documents[0])
	}
	return enc.Encode(in.Documents)
}
