package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArchitectOnNet/indigo/pkg/indigo"
	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

const actFixture = `<akomaNtoso xmlns="http://www.akomantoso.org/2.0"><act contains="originalVersion"><meta><identification source="#indigo"><FRBRWork><FRBRthis value="/za/act/2014/10/main"/><FRBRuri value="/za/act/2014/10"/><FRBRdate date="2014" name="Generation"/><FRBRcountry value="za"/></FRBRWork><FRBRExpression><FRBRthis value="/za/act/2014/10/eng@2014-02-12/main"/><FRBRuri value="/za/act/2014/10/eng@2014-02-12"/><FRBRdate date="2014-02-12" name="Generation"/><FRBRlanguage language="eng"/></FRBRExpression><FRBRManifestation><FRBRuri value="/za/act/2014/10/eng@2014-02-12"/></FRBRManifestation></identification></meta><body><section id="section-1"><num>1.</num><content><p>tester</p></content></section></body></act><components><component id="component-schedule1"><doc name="schedule1" showAs="Schedule 1"><mainBody><p id="schedule1-p">schedule content</p></mainBody></doc></component></components></akomaNtoso>`

func fixtureDocument() *indigo.Document {
	return &indigo.Document{
		ID:             uuid.New(),
		WorkID:         uuid.New(),
		FrbrURI:        "/za/act/2014/10",
		Title:          "Water Act, 2014",
		Language:       "eng",
		ExpressionDate: frbr.NewDate(2014, time.February, 12),
		XML:            actFixture,
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	for _, format := range []string{"json", "xml", "html", "epub", "zip"} {
		_, err := registry.Get(format)
		assert.NoError(t, err, format)
	}

	_, err := registry.Get("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	registry.Register("pdf", NewPDF("/usr/bin/wkhtmltopdf"))
	renderer, err := registry.Get("pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", renderer.MediaType())
}

func TestXMLWholeDocument(t *testing.T) {
	var buf bytes.Buffer
	err := NewXML().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{fixtureDocument()},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<akomaNtoso")
	assert.Contains(t, buf.String(), "tester")
}

func TestXMLSubcomponent(t *testing.T) {
	var buf bytes.Buffer
	err := NewXML().Render(context.Background(), &buf, Input{
		Documents:    []*indigo.Document{fixtureDocument()},
		Component:    "main",
		Subcomponent: "section/1",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<section"), out)
	assert.Contains(t, out, "tester")
	assert.NotContains(t, out, "<akomaNtoso")
}

func TestXMLMissingSubcomponent(t *testing.T) {
	var buf bytes.Buffer
	err := NewXML().Render(context.Background(), &buf, Input{
		Documents:    []*indigo.Document{fixtureDocument()},
		Component:    "main",
		Subcomponent: "section/99",
	})
	assert.ErrorIs(t, err, indigo.ErrDocumentNotFound)
}

func TestHTMLBody(t *testing.T) {
	var buf bytes.Buffer
	err := NewHTML().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{fixtureDocument()},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `class="akn-section"`)
	assert.NotContains(t, out, "<html>")
}

func TestHTMLStandalone(t *testing.T) {
	var buf bytes.Buffer
	err := NewHTML().Render(context.Background(), &buf, Input{
		Documents:  []*indigo.Document{fixtureDocument()},
		Standalone: true,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Water Act, 2014</title>")
	assert.Contains(t, out, `class="colophon"`)
	assert.Contains(t, out, "/za/act/2014/10/eng@2014-02-12")
	assert.Contains(t, out, `class="toc"`)
	assert.Contains(t, out, `href="#section-1"`)
}

func TestHTMLComponentFragment(t *testing.T) {
	var buf bytes.Buffer
	err := NewHTML().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{fixtureDocument()},
		Component: "schedule1",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "schedule content")
	assert.NotContains(t, buf.String(), "tester")
}

func TestEPUBStructure(t *testing.T) {
	var buf bytes.Buffer
	err := NewEPUB().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{fixtureDocument()},
	})
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	require.NotEmpty(t, reader.File)
	first := reader.File[0]
	assert.Equal(t, "mimetype", first.Name)
	assert.Equal(t, zip.Store, first.Method)

	names := make(map[string]bool)
	for _, f := range reader.File {
		names[f.Name] = true
	}
	assert.True(t, names["META-INF/container.xml"])
	assert.True(t, names["OEBPS/content.opf"])
	assert.True(t, names["OEBPS/doc-1.xhtml"])

	chapter := readZipEntry(t, reader, "OEBPS/doc-1.xhtml")
	assert.Contains(t, chapter, "Water Act, 2014")
	assert.Contains(t, chapter, "akn-section")
}

func TestEPUBMultipleDocuments(t *testing.T) {
	second := fixtureDocument()
	second.Title = "Another Act, 2015"

	var buf bytes.Buffer
	err := NewEPUB().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{fixtureDocument(), second},
	})
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	opf := readZipEntry(t, reader, "OEBPS/content.opf")
	assert.Contains(t, opf, "doc-1.xhtml")
	assert.Contains(t, opf, "doc-2.xhtml")
	assert.Contains(t, opf, "and 1 more")
}

func TestZIPRendition(t *testing.T) {
	doc := fixtureDocument()

	media := func(ctx context.Context, d *indigo.Document) ([]MediaFile, error) {
		return []MediaFile{
			{Filename: "logo.png", Content: io.NopCloser(strings.NewReader("image bytes"))},
		}, nil
	}

	var buf bytes.Buffer
	err := NewZIP().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{doc},
		Media:     media,
	})
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range reader.File {
		names[f.Name] = true
	}
	assert.True(t, names["za-act-2014-10-eng@2014-02-12.xml"], names)
	assert.True(t, names["za-act-2014-10-eng@2014-02-12/media/logo.png"], names)

	xml := readZipEntry(t, reader, "za-act-2014-10-eng@2014-02-12.xml")
	assert.Contains(t, xml, "<akomaNtoso")
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream truncated")
}

func TestZIPClosesMediaOnError(t *testing.T) {
	first := &closeTracker{Reader: strings.NewReader("one")}
	broken := &closeTracker{Reader: failingReader{}}
	last := &closeTracker{Reader: strings.NewReader("three")}

	media := func(ctx context.Context, d *indigo.Document) ([]MediaFile, error) {
		return []MediaFile{
			{Filename: "one.png", Content: first},
			{Filename: "broken.png", Content: broken},
			{Filename: "three.png", Content: last},
		}, nil
	}

	var buf bytes.Buffer
	err := NewZIP().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{fixtureDocument()},
		Media:     media,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.png")

	assert.True(t, first.closed)
	assert.True(t, broken.closed)
	assert.True(t, last.closed)
}

func TestJSONSingleAndList(t *testing.T) {
	doc := fixtureDocument()

	var buf bytes.Buffer
	require.NoError(t, NewJSON().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{doc},
	}))
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"frbr_uri":"/za/act/2014/10"`)

	buf.Reset()
	require.NoError(t, NewJSON().Render(context.Background(), &buf, Input{
		Documents: []*indigo.Document{doc, doc},
	}))
	assert.True(t, strings.HasPrefix(buf.String(), "["))
}

func readZipEntry(t *testing.T, reader *zip.Reader, name string) string {
	t.Helper()
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}
