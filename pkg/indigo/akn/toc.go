package akn

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// TOCElement is one entry in a document's table of contents.
type TOCElement struct {
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Num          string        `json:"num,omitempty"`
	Heading      string        `json:"heading,omitempty"`
	Title        string        `json:"title"`
	Component    string        `json:"component"`
	Subcomponent string        `json:"subcomponent,omitempty"`
	URL          string        `json:"url,omitempty"`
	Children     []*TOCElement `json:"children,omitempty"`
}

// tocElements are the structural elements that appear in a table of
// contents, in any component.
var tocElements = map[string]bool{
	"coverpage":   true,
	"preface":     true,
	"preamble":    true,
	"part":        true,
	"chapter":     true,
	"section":     true,
	"conclusions": true,
	"doc":         true,
}

// TableOfContents walks the document's components and builds a table of
// contents from its structural elements.
func (d *Document) TableOfContents() []*TOCElement {
	var toc []*TOCElement

	// The main component comes first, followed by attachments in document
	// order.
	for _, component := range d.ComponentList() {
		if component.Name == MainComponent {
			toc = append(toc, tocChildren(component.Node, MainComponent, "")...)
			continue
		}
		entry := tocEntry(component.Node, component.Name, "")
		entry.Children = tocChildren(component.Node, component.Name, "")
		toc = append(toc, entry)
	}

	return toc
}

func tocChildren(n *xmlquery.Node, component, parentPath string) []*TOCElement {
	var entries []*TOCElement
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode || child.Data == "meta" {
			continue
		}
		if tocElements[child.Data] && child.Data != "doc" {
			entry := tocEntry(child, component, parentPath)
			entry.Children = tocChildren(child, component, entry.Subcomponent)
			entries = append(entries, entry)
		} else {
			entries = append(entries, tocChildren(child, component, parentPath)...)
		}
	}
	return entries
}

func tocEntry(n *xmlquery.Node, component, parentPath string) *TOCElement {
	entry := &TOCElement{
		ID:        n.SelectAttr("id"),
		Type:      n.Data,
		Component: component,
	}

	if num := xmlquery.FindOne(n, "./num"); num != nil {
		entry.Num = strings.TrimSpace(num.InnerText())
	}
	if heading := xmlquery.FindOne(n, "./heading"); heading != nil {
		entry.Heading = strings.TrimSpace(heading.InnerText())
	}
	if n.Data == "doc" {
		entry.Heading = n.SelectAttr("showAs")
	}

	entry.Subcomponent = subcomponentPath(entry, parentPath)
	entry.Title = tocTitle(entry)
	return entry
}

// subcomponentPath builds the citation path for a TOC entry, such as
// "section/1" or "chapter/2/section/3".
func subcomponentPath(entry *TOCElement, parentPath string) string {
	if entry.Type == "doc" {
		return ""
	}
	name := entry.Type
	if entry.Num != "" {
		name += "/" + strings.TrimSuffix(entry.Num, ".")
	}
	if parentPath != "" {
		return parentPath + "/" + name
	}
	return name
}

// tocTitle builds a human-friendly title for a TOC entry: the heading when
// there is one, otherwise the element type and number, e.g. "Section 1.".
func tocTitle(entry *TOCElement) string {
	typeName := strings.ToUpper(entry.Type[:1]) + entry.Type[1:]

	switch {
	case entry.Heading != "" && entry.Num != "":
		return typeName + " " + strings.TrimSuffix(entry.Num, ".") + " – " + entry.Heading
	case entry.Heading != "":
		return entry.Heading
	case entry.Num != "":
		return typeName + " " + entry.Num
	default:
		return typeName
	}
}
