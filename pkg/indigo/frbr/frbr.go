// Package frbr parses and renders FRBR URIs, the hierarchical citation
// identifiers used to address legislation at the work, expression and
// manifestation levels.
//
// A full URI looks like:
//
//	/za-wc/act/by-law/2005/3/eng@2011-01-01/main/section/1.xml
//
// which identifies the XML manifestation of section 1 of the English
// expression, as it was on 2011-01-01, of by-law 3 of 2005 of the Western
// Cape. Most pieces are optional; the shortest valid URI is a work URI such
// as /za/act/2014/10.
package frbr

import (
	"fmt"
	"regexp"
	"strings"
)

// PointInTimeQualifier selects which expression of a work a URI refers to.
type PointInTimeQualifier int

const (
	// Latest selects the most recent expression. This is the default when
	// no date qualifier is present.
	Latest PointInTimeQualifier = iota
	// Earliest selects the first expression, written as a bare "@".
	Earliest
	// AtDate selects the expression dated exactly "@YYYY-MM-DD".
	AtDate
	// UpToDate selects the latest expression at or before ":YYYY-MM-DD".
	UpToDate
)

func (q PointInTimeQualifier) String() string {
	switch q {
	case Earliest:
		return "earliest"
	case AtDate:
		return "at"
	case UpToDate:
		return "up-to"
	default:
		return "latest"
	}
}

// URI is a parsed FRBR URI. The zero value is not valid; use Parse or
// populate at least Country, Doctype, Date and Number.
type URI struct {
	Prefix   string // optional leading "akn"
	Country  string
	Locality string
	Doctype  string
	Subtype  string
	Actor    string
	Date     string // work date: a year or a full date
	Number   string

	// Expression-level fields.
	Language       string
	Qualifier      PointInTimeQualifier
	ExpressionDate Date // valid when Qualifier is AtDate or UpToDate

	// Optional component within the expression, e.g. "main" or
	// "schedule-1", with a subcomponent path such as "section/1".
	Component    string
	Subcomponent string

	// Manifestation format from a trailing ".xml", ".html" etc.
	Format string
}

var uriRE = regexp.MustCompile(`^(?:/(?P<prefix>akn))?` +
	`/(?P<country>[a-z]{2})(?:-(?P<locality>[^/]+))?` +
	`/(?P<doctype>[^/]+?)` +
	`(?:/(?P<subtype>[^0-9/][^/]*?))?` +
	`(?:/(?P<actor>[^0-9/][^/]*?))?` +
	`/(?P<date>\d{4}(?:-\d{2}(?:-\d{2})?)?)` +
	`/(?P<number>[^/]+?)` +
	`(?:/(?P<language>[a-z]{3})(?P<exprdate>[@:][^/]*)?` +
	`(?:/(?P<component>.+?))?)?` +
	`$`)

var formatRE = regexp.MustCompile(`\.([a-z0-9]+)$`)

// MustParse is like Parse but panics on error. For use in tests and
// compile-time constants.
func MustParse(s string) *URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Parse parses an FRBR URI string. A trailing format suffix such as ".xml"
// is split off into Format.
func Parse(s string) (*URI, error) {
	if s == "" || s[0] != '/' {
		return nil, fmt.Errorf("invalid FRBR URI %q: must start with /", s)
	}

	u := &URI{}

	// The format suffix is part of the manifestation, not the citation.
	if m := formatRE.FindStringSubmatch(s); m != nil {
		u.Format = m[1]
		s = s[:len(s)-len(m[0])]
	}

	m := uriRE.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid FRBR URI %q", s)
	}
	get := func(name string) string {
		return m[uriRE.SubexpIndex(name)]
	}

	u.Prefix = get("prefix")
	u.Country = get("country")
	u.Locality = get("locality")
	u.Doctype = get("doctype")
	u.Subtype = get("subtype")
	u.Actor = get("actor")
	u.Date = get("date")
	u.Number = get("number")
	u.Language = get("language")

	if err := u.parseExpressionDate(get("exprdate")); err != nil {
		return nil, fmt.Errorf("invalid FRBR URI %q: %w", s, err)
	}

	if component := get("component"); component != "" {
		u.Component, u.Subcomponent, _ = strings.Cut(component, "/")
	}

	return u, nil
}

func (u *URI) parseExpressionDate(s string) error {
	switch {
	case s == "":
		u.Qualifier = Latest
	case s == "@":
		u.Qualifier = Earliest
	case s[0] == '@':
		d, err := ParseDate(s[1:])
		if err != nil {
			return err
		}
		u.Qualifier = AtDate
		u.ExpressionDate = d
	case s[0] == ':':
		d, err := ParseDate(s[1:])
		if err != nil {
			return err
		}
		u.Qualifier = UpToDate
		u.ExpressionDate = d
	default:
		return fmt.Errorf("invalid expression date %q", s)
	}
	return nil
}

// IsWorkURI reports whether the URI addresses only a work, with no
// expression-level detail.
func (u *URI) IsWorkURI() bool {
	return u.Language == ""
}

// Place is the country code, with the locality appended as
// "country-locality" when present.
func (u *URI) Place() string {
	if u.Locality != "" {
		return u.Country + "-" + u.Locality
	}
	return u.Country
}

// WorkURI renders the work-level URI, e.g. /za/act/2014/10.
func (u *URI) WorkURI() string {
	var b strings.Builder
	if u.Prefix != "" {
		b.WriteString("/")
		b.WriteString(u.Prefix)
	}
	b.WriteString("/")
	b.WriteString(u.Place())
	for _, part := range []string{u.Doctype, u.Subtype, u.Actor, u.Date, u.Number} {
		if part != "" {
			b.WriteString("/")
			b.WriteString(part)
		}
	}
	return b.String()
}

// qualifierSuffix renders the point-in-time qualifier that follows the
// language code.
func (u *URI) qualifierSuffix() string {
	switch u.Qualifier {
	case Earliest:
		return "@"
	case AtDate:
		return "@" + u.ExpressionDate.String()
	case UpToDate:
		return ":" + u.ExpressionDate.String()
	default:
		return ""
	}
}

// ExpressionURI renders the expression-level URI, e.g.
// /za/act/2014/10/eng@2012-02-02. The component and subcomponent are
// included when set.
func (u *URI) ExpressionURI() string {
	var b strings.Builder
	b.WriteString(u.WorkURI())
	b.WriteString("/")
	b.WriteString(u.Language)
	b.WriteString(u.qualifierSuffix())
	if u.Component != "" {
		b.WriteString("/")
		b.WriteString(u.Component)
		if u.Subcomponent != "" {
			b.WriteString("/")
			b.WriteString(u.Subcomponent)
		}
	}
	return b.String()
}

// ManifestationURI renders the manifestation-level URI, which is the
// expression URI with the format suffix appended.
func (u *URI) ManifestationURI() string {
	s := u.ExpressionURI()
	if u.Format != "" {
		s += "." + u.Format
	}
	return s
}

// String renders the most specific URI the fields allow.
func (u *URI) String() string {
	if u.IsWorkURI() {
		return u.WorkURI()
	}
	if u.Format != "" {
		return u.ManifestationURI()
	}
	return u.ExpressionURI()
}

// Clone returns a copy of the URI that can be modified independently.
func (u *URI) Clone() *URI {
	c := *u
	return &c
}
