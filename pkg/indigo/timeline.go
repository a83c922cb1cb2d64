package indigo

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ArchitectOnNet/indigo/pkg/indigo/frbr"
)

// PointsInTime returns the dated points in time of a work: each distinct
// published expression date, with the expressions available at that date
// across languages. Ordered by date ascending.
func (s *service) PointsInTime(ctx context.Context, workID uuid.UUID) ([]*PointInTime, error) {
	docs, err := s.repository.ListDocumentsForWork(ctx, workID)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*PointInTime)
	for _, doc := range docs {
		if !doc.Published() {
			continue
		}
		key := doc.ExpressionDate.String()
		point, ok := byDate[key]
		if !ok {
			point = &PointInTime{Date: doc.ExpressionDate}
			byDate[key] = point
		}
		point.Expressions = append(point.Expressions, &ExpressionSummary{
			ExpressionFrbrURI: doc.ExpressionURI(),
			Language:          doc.Language,
			Title:             doc.Title,
			ExpressionDate:    doc.ExpressionDate,
		})
	}

	points := make([]*PointInTime, 0, len(byDate))
	for _, point := range byDate {
		sort.Slice(point.Expressions, func(i, j int) bool {
			return point.Expressions[i].Language < point.Expressions[j].Language
		})
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// WorkTimeline returns the dated events in a work's life: assent,
// publication, commencement, amendments and repeal, ordered by date
// descending.
func (s *service) WorkTimeline(ctx context.Context, workID uuid.UUID) ([]*WorkEvent, error) {
	work, err := s.repository.GetWork(ctx, workID)
	if err != nil {
		return nil, err
	}

	var events []*WorkEvent
	add := func(date frbr.Date, eventType, description, relatedURI string) {
		if !date.IsZero() {
			events = append(events, &WorkEvent{
				Date:        date,
				Type:        eventType,
				Description: description,
				RelatedURI:  relatedURI,
			})
		}
	}

	add(work.AssentDate, "assent", "Assented to", "")
	add(work.PublicationDate, "publication", publicationDescription(work), "")
	add(work.CommencementDate, "commencement", "Commenced", "")

	amendments, err := s.repository.ListAmendmentsForWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	for _, amendment := range amendments {
		description := "Amended"
		relatedURI := ""
		if amending, err := s.repository.GetWork(ctx, amendment.AmendingWorkID); err == nil {
			description = "Amended by " + amending.Title
			relatedURI = amending.FrbrURI
		}
		add(amendment.Date, "amendment", description, relatedURI)
	}

	if work.RepealingWorkID != nil {
		description := "Repealed"
		relatedURI := ""
		if repealing, err := s.repository.GetWork(ctx, *work.RepealingWorkID); err == nil {
			description = "Repealed by " + repealing.Title
			relatedURI = repealing.FrbrURI
		}
		add(work.RepealDate, "repeal", description, relatedURI)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[j].Date.Before(events[i].Date)
	})
	return events, nil
}

func publicationDescription(work *Work) string {
	description := "Published"
	if work.PublicationName != "" {
		description += " in " + work.PublicationName
		if work.PublicationNumber != "" {
			description += " no. " + work.PublicationNumber
		}
	}
	return description
}
