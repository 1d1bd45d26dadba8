package report

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Service exposes the read-only reporting operations.
type Service struct {
	repo Repository
}

// NewService builds a Service using the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AverageRepairTime returns the mean repair duration in hours over Completed
// requests whose completion falls within the optional [start, end] range,
// along with the number of requests counted. Rows missing either work
// timestamp are excluded from both the numerator and the denominator, so the
// result never divides by zero; with no qualifying rows it is (0, 0).
func (s *Service) AverageRepairTime(ctx context.Context, start, end *time.Time) (float64, int, error) {
	intervals, err := s.repo.CompletedIntervals(ctx, start, end)
	if err != nil {
		return 0, 0, err
	}

	var total time.Duration
	counted := 0
	for _, iv := range intervals {
		if iv.Start == nil || iv.End == nil {
			continue
		}
		total += iv.End.Sub(*iv.Start)
		counted++
	}

	if counted == 0 {
		return 0, 0, nil
	}

	return total.Hours() / float64(counted), counted, nil
}

// StatusReport returns the request distribution across statuses.
func (s *Service) StatusReport(ctx context.Context) ([]StatusCount, error) {
	return s.repo.StatusCounts(ctx)
}

// MasterLoadReport returns the assigned-request count per master.
func (s *Service) MasterLoadReport(ctx context.Context) ([]MasterLoad, error) {
	return s.repo.MasterLoads(ctx)
}

// MasterPerformanceReport returns the per-request detail rows for managers.
func (s *Service) MasterPerformanceReport(ctx context.Context) ([]PerformanceRow, error) {
	return s.repo.MasterPerformance(ctx)
}

// RequestDetails returns the denormalized view of a single request.
func (s *Service) RequestDetails(ctx context.Context, requestID int64) (Details, error) {
	return s.repo.RequestDetails(ctx, requestID)
}

// Summary gathers the status distribution, master load, and all-time average
// repair time concurrently.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hours, count, err := s.AverageRepairTime(ctx, nil, nil)
		if err != nil {
			return err
		}
		out.AverageRepairHours = hours
		out.CompletedCount = count
		return nil
	})
	g.Go(func() error {
		statuses, err := s.repo.StatusCounts(ctx)
		if err != nil {
			return err
		}
		out.Statuses = statuses
		return nil
	})
	g.Go(func() error {
		loads, err := s.repo.MasterLoads(ctx)
		if err != nil {
			return err
		}
		out.MasterLoads = loads
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return out, nil
}
