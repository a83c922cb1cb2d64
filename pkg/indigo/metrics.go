package indigo

import (
	"context"
)

// PlaceMetrics aggregates collection-completeness statistics for a place:
// how many works exist, how they break down, and how complete the
// points-in-time coverage of amended works is.
func (s *service) PlaceMetrics(ctx context.Context, country, locality string) (*PlaceMetrics, error) {
	if _, err := s.repository.GetCountry(ctx, country); err != nil {
		return nil, err
	}

	works, err := s.repository.ListWorks(ctx, country, locality)
	if err != nil {
		return nil, err
	}

	place := country
	if locality != "" {
		place = country + "-" + locality
	}

	metrics := &PlaceMetrics{
		Place:          place,
		WorksByYear:    make(map[string]int),
		WorksBySubtype: make(map[string]int),
		TasksByState:   make(map[string]int),
	}

	for _, work := range works {
		metrics.Works++
		if work.Stub {
			metrics.Stubs++
		}
		metrics.WorksByYear[work.Year]++
		subtype := work.Subtype
		if subtype == "" {
			subtype = work.Doctype
		}
		metrics.WorksBySubtype[subtype]++

		docs, err := s.repository.ListDocumentsForWork(ctx, work.ID)
		if err != nil {
			return nil, err
		}
		expressionDates := make(map[string]bool)
		for _, doc := range docs {
			if doc.Published() {
				metrics.Expressions++
				expressionDates[doc.ExpressionDate.String()] = true
			}
		}

		amendments, err := s.repository.ListAmendmentsForWork(ctx, work.ID)
		if err != nil {
			return nil, err
		}
		metrics.Amendments += len(amendments)

		if len(amendments) > 0 {
			metrics.PointsInTime.AmendedWorks++
			covered := true
			for _, amendment := range amendments {
				if !expressionDates[amendment.Date.String()] {
					covered = false
					break
				}
			}
			if covered {
				metrics.PointsInTime.UpToDateWorks++
			}
		}
	}

	if metrics.PointsInTime.AmendedWorks > 0 {
		metrics.PointsInTime.CompletenessPct =
			100 * float64(metrics.PointsInTime.UpToDateWorks) / float64(metrics.PointsInTime.AmendedWorks)
	}

	tasks, err := s.repository.ListTasks(ctx, TaskFilters{Country: country, Locality: locality})
	if err != nil {
		return nil, err
	}
	for _, task := range tasks {
		metrics.TasksByState[string(task.State)]++
	}

	return metrics, nil
}
