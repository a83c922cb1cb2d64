package render

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ZIP renders expressions as a ZIP archive of their Akoma Ntoso XML plus,
// when a MediaFetcher is supplied, their media attachments.
type ZIP struct{}

// NewZIP creates the ZIP renderer.
func NewZIP() *ZIP { return &ZIP{} }

func (r *ZIP) MediaType() string { return "application/zip" }

func (r *ZIP) Render(ctx context.Context, w io.Writer, in Input) error {
	if len(in.Documents) == 0 {
		return errors.New("zip output requires at least one document")
	}

	archive := zip.NewWriter(w)

	for _, doc := range in.Documents {
		name := xmlFilename(doc.ExpressionURI())
		if err := writeZipFile(archive, name, []byte(doc.XML)); err != nil {
			return err
		}

		if in.Media == nil {
			continue
		}
		media, err := in.Media(ctx, doc)
		if err != nil {
			return err
		}
		mediaDir := strings.TrimSuffix(name, ".xml") + "/media"
		if err := writeMedia(archive, mediaDir, media); err != nil {
			return err
		}
	}

	return archive.Close()
}

// writeMedia bundles media files into the archive. Every reader is closed,
// including those not reached after an error.
func writeMedia(archive *zip.Writer, dir string, media []MediaFile) error {
	var firstErr error
	for _, file := range media {
		if firstErr == nil {
			f, err := archive.Create(path.Join(dir, file.Filename))
			if err != nil {
				firstErr = err
			} else if _, err := io.Copy(f, file.Content); err != nil {
				firstErr = fmt.Errorf("bundling %s: %w", file.Filename, err)
			}
		}
		file.Content.Close()
	}
	return firstErr
}

// xmlFilename flattens an expression URI into an archive entry name, e.g.
// /za/act/2014/10/eng@2014-02-12 becomes za-act-2014-10-eng@2014-02-12.xml.
func xmlFilename(expressionURI string) string {
	name := strings.Trim(expressionURI, "/")
	name = strings.ReplaceAll(name, "/", "-")
	return name + ".xml"
}
