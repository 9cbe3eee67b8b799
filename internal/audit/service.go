package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/accounthub/accounthub/internal/shared"
)

// Result bundles timeline rows with paging information.
type Result struct {
	Events []Event           `json:"events"`
	Paging shared.Pagination `json:"paging"`
}

// Service records events and serves the audit timeline.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the audit service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record persists an event. It is fire-and-forget for callers: failures are
// logged and never propagate, so a lost audit write cannot fail the
// operation that produced it.
func (s *Service) Record(ctx context.Context, event Event) {
	if s == nil || s.repo == nil {
		return
	}
	if event.At.IsZero() {
		event.At = s.now().UTC()
	}
	if err := s.repo.Insert(ctx, event); err != nil && s.logger != nil {
		s.logger.Error("audit record failed",
			slog.String("action", event.Action),
			slog.String("object_id", event.ObjectID),
			slog.Any("error", err))
	}
}

// Timeline returns events matching the filters with paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	page, pageSize := shared.NormalizePage(filters.Page, filters.PageSize, 50)
	offset := (page - 1) * pageSize

	events, err := s.repo.Window(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(events) > pageSize
	if hasNext {
		events = events[:pageSize]
	}
	paging := shared.Pagination{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Events: events, Paging: paging}, nil
}
