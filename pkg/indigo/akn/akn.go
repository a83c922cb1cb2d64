// Package akn reads and transforms Akoma Ntoso documents: the XML encoding
// used for legislation bodies. It exposes the pieces the rest of the system
// needs: FRBR metadata, named components, subcomponent lookup by citation
// path, table-of-contents extraction and an HTML rendition.
package akn

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// MainComponent is the name of the primary component of a document. Other
// components (schedules and similar) are named after their doc elements.
const MainComponent = "main"

// Document is a parsed Akoma Ntoso document.
type Document struct {
	root *xmlquery.Node
}

// Parse parses an Akoma Ntoso XML body.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing akoma ntoso: %w", err)
	}
	if n := xmlquery.FindOne(root, "//akomaNtoso"); n == nil {
		return nil, fmt.Errorf("not an akoma ntoso document: no akomaNtoso root")
	}
	return &Document{root: root}, nil
}

// XML serializes the document, excluding the XML declaration.
func (d *Document) XML() []byte {
	var buf bytes.Buffer
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			buf.WriteString(child.OutputXML(true))
		}
	}
	return buf.Bytes()
}

// NodeXML serializes a single node.
func NodeXML(n *xmlquery.Node) []byte {
	if n == nil {
		return nil
	}
	return []byte(n.OutputXML(true))
}

func (d *Document) metaValue(xpath string) string {
	if n := xmlquery.FindOne(d.root, xpath); n != nil {
		return n.SelectAttr("value")
	}
	return ""
}

// WorkURI returns the FRBR work URI from the document metadata.
func (d *Document) WorkURI() string {
	return d.metaValue("//meta/identification/FRBRWork/FRBRuri")
}

// ExpressionURI returns the FRBR expression URI from the document metadata.
func (d *Document) ExpressionURI() string {
	return d.metaValue("//meta/identification/FRBRExpression/FRBRuri")
}

// Language returns the three-letter expression language code.
func (d *Document) Language() string {
	if n := xmlquery.FindOne(d.root, "//meta/identification/FRBRExpression/FRBRlanguage"); n != nil {
		return n.SelectAttr("language")
	}
	return ""
}

// ExpressionDate returns the expression date from the document metadata.
func (d *Document) ExpressionDate() (frbr.Date, bool) {
	n := xmlquery.FindOne(d.root, "//meta/identification/FRBRExpression/FRBRdate")
	if n == nil {
		return frbr.Date{}, false
	}
	date, err := frbr.ParseDate(n.SelectAttr("date"))
	if err != nil {
		return frbr.Date{}, false
	}
	return date, true
}

// SetExpression updates the FRBRExpression metadata in place. Used when a
// new point in time is created from an existing expression body.
func (d *Document) SetExpression(uri string, date frbr.Date, language string) {
	if n := xmlquery.FindOne(d.root, "//meta/identification/FRBRExpression/FRBRuri"); n != nil {
		setAttr(n, "value", uri)
	}
	if n := xmlquery.FindOne(d.root, "//meta/identification/FRBRExpression/FRBRthis"); n != nil {
		setAttr(n, "value", uri+"/"+MainComponent)
	}
	if n := xmlquery.FindOne(d.root, "//meta/identification/FRBRExpression/FRBRdate"); n != nil {
		setAttr(n, "date", date.String())
	}
	if n := xmlquery.FindOne(d.root, "//meta/identification/FRBRExpression/FRBRlanguage"); n != nil {
		setAttr(n, "language", language)
	}
}

func setAttr(n *xmlquery.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Name.Local == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{
		Name:  xml.Name{Local: name},
		Value: value,
	})
}

// NamedComponent pairs a component name with its root element.
type NamedComponent struct {
	Name string
	Node *xmlquery.Node
}

// ComponentList returns the named components of the document in document
// order: "main" for the principal element (act, bill, etc.), then one entry
// per attached doc component, named after its name attribute.
func (d *Document) ComponentList() []NamedComponent {
	var components []NamedComponent

	akn := xmlquery.FindOne(d.root, "//akomaNtoso")
	if akn == nil {
		return components
	}
	for child := akn.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if child.Data == "components" {
			for _, doc := range xmlquery.Find(child, "./component/doc") {
				name := doc.SelectAttr("name")
				if name != "" {
					components = append(components, NamedComponent{Name: name, Node: doc})
				}
			}
			continue
		}
		components = append(components, NamedComponent{Name: MainComponent, Node: child})
	}
	return components
}

// Components returns the named components keyed by name.
func (d *Document) Components() map[string]*xmlquery.Node {
	components := make(map[string]*xmlquery.Node)
	for _, component := range d.ComponentList() {
		components[component.Name] = component.Node
	}
	return components
}

// Component returns a single named component, or nil.
func (d *Document) Component(name string) *xmlquery.Node {
	return d.Components()[name]
}

// Subcomponent finds an element within a component by its citation path,
// e.g. ("main", "section/1") finds the element with id "section-1".
// Nested paths like "chapter/2/section/1" resolve to "section-1" within
// the component.
func (d *Document) Subcomponent(component, path string) *xmlquery.Node {
	root := d.Component(component)
	if root == nil {
		return nil
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return nil
	}
	// The last element type and number form the id.
	id := parts[len(parts)-2] + "-" + strings.TrimSuffix(parts[len(parts)-1], ".")

	return xmlquery.FindOne(root, fmt.Sprintf(".//*[@id=%q]", id))
}
