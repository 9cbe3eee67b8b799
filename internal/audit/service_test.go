package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryAuditRepo struct {
	events    []Event
	insertErr error
}

func (r *memoryAuditRepo) Insert(ctx context.Context, event Event) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *memoryAuditRepo) Window(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Event, error) {
	var matched []Event
	for _, e := range r.events {
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		if filters.ObjectType != "" && e.ObjectType != filters.ObjectType {
			continue
		}
		if filters.ActorID != 0 && e.ActorID != filters.ActorID {
			continue
		}
		matched = append(matched, e)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordStampsTime(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewService(repo, testLogger())

	svc.Record(context.Background(), Event{ActorID: 1, Action: "create", ObjectType: "user", ObjectID: "7"})
	require.Len(t, repo.events, 1)
	require.False(t, repo.events[0].At.IsZero())
}

func TestRecordKeepsExplicitTime(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewService(repo, testLogger())

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.Record(context.Background(), Event{ActorID: 1, Action: "create", ObjectType: "user", ObjectID: "7", At: at})
	require.Equal(t, at, repo.events[0].At)
}

func TestRecordSwallowsRepositoryErrors(t *testing.T) {
	repo := &memoryAuditRepo{insertErr: errors.New("db down")}
	svc := NewService(repo, testLogger())

	// Must not panic or propagate.
	svc.Record(context.Background(), Event{ActorID: 1, Action: "create", ObjectType: "user", ObjectID: "7"})
	require.Empty(t, repo.events)
}

func TestTimelineFilters(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewService(repo, testLogger())
	ctx := context.Background()

	svc.Record(ctx, Event{ActorID: 1, Action: "create", ObjectType: "user", ObjectID: "7"})
	svc.Record(ctx, Event{ActorID: 1, Action: "disable", ObjectType: "user", ObjectID: "7"})
	svc.Record(ctx, Event{ActorID: 2, Action: "create", ObjectType: "user", ObjectID: "8"})

	result, err := svc.Timeline(ctx, TimelineFilters{Action: "create"})
	require.NoError(t, err)
	require.Len(t, result.Events, 2)

	result, err = svc.Timeline(ctx, TimelineFilters{ActorID: 2})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	require.Equal(t, "8", result.Events[0].ObjectID)
}

func TestTimelinePaging(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := NewService(repo, testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Record(ctx, Event{ActorID: 1, Action: "create", ObjectType: "user", ObjectID: "7"})
	}

	result, err := svc.Timeline(ctx, TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Events, 2)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Zero(t, result.Paging.PrevPage)

	result, err = svc.Timeline(ctx, TimelineFilters{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.PrevPage)
}
