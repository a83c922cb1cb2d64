package akn

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Elements rendered as HTML sectioning containers. Everything else becomes
// an inline span carrying its Akoma Ntoso class.
var htmlContainers = map[string]bool{
	"act":         true,
	"bill":        true,
	"doc":         true,
	"body":        true,
	"mainBody":    true,
	"preface":     true,
	"preamble":    true,
	"part":        true,
	"chapter":     true,
	"section":     true,
	"conclusions": true,
	"components":  true,
	"component":   true,
}

// ToHTML renders an Akoma Ntoso element tree as HTML. Element names are
// carried through as "akn-<name>" classes so stylesheets can target the
// original structure. Numbered containers get their num and heading folded
// into a leading h3.
func ToHTML(n *xmlquery.Node) []byte {
	var buf bytes.Buffer
	writeHTML(&buf, n)
	return buf.Bytes()
}

// DocumentToHTML renders the whole document body, main component first and
// attachments in document order.
func (d *Document) ToHTML() []byte {
	var buf bytes.Buffer
	for _, component := range d.ComponentList() {
		writeHTML(&buf, component.Node)
	}
	return buf.Bytes()
}

func writeHTML(buf *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.TextNode:
		buf.WriteString(escapeText(n.Data))
		return
	case xmlquery.ElementNode:
	default:
		return
	}

	switch n.Data {
	case "meta":
		// Metadata never renders.
		return
	case "akomaNtoso":
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			writeHTML(buf, child)
		}
		return
	case "num", "heading":
		// Rendered by the parent container; standalone occurrences become
		// plain spans below.
	}

	if htmlContainers[n.Data] {
		writeContainer(buf, n)
		return
	}

	writeSpan(buf, n)
}

func writeContainer(buf *bytes.Buffer, n *xmlquery.Node) {
	buf.WriteString(`<section class="akn-` + n.Data + `"`)
	writeIDAttrs(buf, n)
	buf.WriteString(">")

	num, heading := childText(n, "num"), childText(n, "heading")
	if num != "" || heading != "" {
		buf.WriteString("<h3>")
		if num != "" {
			buf.WriteString(escapeText(num) + " ")
		}
		buf.WriteString(escapeText(heading))
		buf.WriteString("</h3>")
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && (child.Data == "num" || child.Data == "heading") {
			continue
		}
		writeHTML(buf, child)
	}
	buf.WriteString("</section>")
}

func writeSpan(buf *bytes.Buffer, n *xmlquery.Node) {
	buf.WriteString(`<span class="akn-` + n.Data + `"`)
	writeIDAttrs(buf, n)
	buf.WriteString(">")
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeHTML(buf, child)
	}
	buf.WriteString("</span>")
}

func writeIDAttrs(buf *bytes.Buffer, n *xmlquery.Node) {
	if id := n.SelectAttr("id"); id != "" {
		buf.WriteString(` id="` + escapeAttr(id) + `" data-id="` + escapeAttr(id) + `"`)
	}
}

func childText(n *xmlquery.Node, name string) string {
	if child := xmlquery.FindOne(n, "./"+name); child != nil {
		return strings.TrimSpace(child.InnerText())
	}
	return ""
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeText(s string) string { return textEscaper.Replace(s) }
func escapeAttr(s string) string { return attrEscaper.Replace(s) }
