package indigo

import (
	"context"
	"errors"
	"strings"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// ResolveURI resolves a parsed FRBR URI to a work and its best-matching
// published expression.
//
// The language defaults to the country's primary language when the URI
// carries none. The point-in-time qualifier selects among the published
// expressions in that language:
//
//   - no qualifier: the latest expression
//   - "@": the earliest expression
//   - "@date": the expression at exactly that date
//   - ":date": the latest expression at or before that date
//
// Draft and deleted documents never resolve. The returned URI is a copy
// with defaults applied.
func (s *service) ResolveURI(ctx context.Context, uri *frbr.URI) (*ResolvedDocument, error) {
	country, err := s.repository.GetCountry(ctx, uri.Country)
	if err != nil {
		return nil, err
	}
	if uri.Locality != "" && !countryHasLocality(country, uri.Locality) {
		return nil, ErrLocalityNotFound
	}

	resolved := uri.Clone()
	if resolved.Language == "" {
		resolved.Language = country.PrimaryLanguage
	}

	work, err := s.repository.GetWorkByURI(ctx, strings.ToLower(uri.WorkURI()))
	if err != nil {
		return nil, err
	}

	expressions, err := s.repository.ListPublishedExpressions(ctx, work.ID, resolved.Language)
	if err != nil {
		return nil, err
	}
	if len(expressions) == 0 {
		return nil, ErrDocumentNotFound
	}

	doc := selectExpression(expressions, resolved.Qualifier, resolved.ExpressionDate)
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	return &ResolvedDocument{URI: resolved, Work: work, Document: doc}, nil
}

// selectExpression picks the expression matching the point-in-time
// qualifier from a list ordered by expression date ascending.
func selectExpression(expressions []*Document, qualifier frbr.PointInTimeQualifier, date frbr.Date) *Document {
	switch qualifier {
	case frbr.Earliest:
		return expressions[0]

	case frbr.AtDate:
		for _, doc := range expressions {
			if doc.ExpressionDate.Equal(date) {
				return doc
			}
		}
		return nil

	case frbr.UpToDate:
		var best *Document
		for _, doc := range expressions {
			if doc.ExpressionDate.After(date) {
				break
			}
			best = doc
		}
		return best

	default:
		return expressions[len(expressions)-1]
	}
}

func countryHasLocality(country *Country, code string) bool {
	for _, locality := range country.Localities {
		if locality.Code == code {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is any of the not-found sentinels, for
// mapping to 404 responses.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCountryNotFound) ||
		errors.Is(err, ErrLocalityNotFound) ||
		errors.Is(err, ErrWorkNotFound) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrAmendmentNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrAttachmentNotFound) ||
		errors.Is(err, ErrPublicationDocumentNotFound)
}
