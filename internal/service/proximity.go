package service

import (
	"context"
	"sort"

	"github.com/noah-isme/eco-report-api/internal/models"
	"github.com/noah-isme/eco-report-api/pkg/geo"
)

type nearFinder interface {
	FindNear(ctx context.Context, q models.ProximityQuery) ([]models.Report, error)
}

// FindDuplicates returns reports of q.Category created at or after q.Since
// whose great-circle distance from the point is within q.RadiusMeters,
// earliest first.
func FindDuplicates(ctx context.Context, finder nearFinder, q models.ProximityQuery) ([]models.ReportMatch, error) {
	candidates, err := finder.FindNear(ctx, q)
	if err != nil {
		return nil, err
	}
	matches := confirmWithinRadius(candidates, q)
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return matches, nil
}

// confirmWithinRadius drops prefilter candidates that fail the exact checks.
func confirmWithinRadius(candidates []models.Report, q models.ProximityQuery) []models.ReportMatch {
	matches := make([]models.ReportMatch, 0, len(candidates))
	for _, r := range candidates {
		if q.Category != "" && r.Category != q.Category {
			continue
		}
		if !q.Since.IsZero() && r.CreatedAt.Before(q.Since) {
			continue
		}
		if q.ExcludeID != "" && r.ID == q.ExcludeID {
			continue
		}
		d := geo.DistanceMeters(q.Latitude, q.Longitude, r.Latitude, r.Longitude)
		if d > q.RadiusMeters {
			continue
		}
		matches = append(matches, models.ReportMatch{Report: r, DistanceMeters: d})
	}
	return matches
}

// sortByDistance orders matches nearest first.
func sortByDistance(matches []models.ReportMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceMeters < matches[j].DistanceMeters
	})
}
