package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentaspace/backend/internal/resource"
)

// fakeRepo is an in-memory Repository sufficient for service and sweeper
// tests. The bulk operations apply the same predicates the SQL versions do.
type fakeRepo struct {
	bookings map[string]*Booking
	nextID   int

	failStatusWrite bool
	casAttempts     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bookings: make(map[string]*Booking)}
}

func (r *fakeRepo) add(b *Booking) *Booking {
	r.nextID++
	if b.ID == "" {
		b.ID = fmt.Sprintf("booking-%d", r.nextID)
	}
	r.bookings[b.ID] = b
	return b
}

func (r *fakeRepo) Create(_ context.Context, b *Booking) error {
	r.add(b)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeRepo) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	var out []*Booking
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.ResourceID != "" && b.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeRepo) HasConflict(_ context.Context, resourceID string, start, end time.Time, excludeID string) (bool, error) {
	for _, b := range r.bookings {
		if b.ResourceID != resourceID || b.ID == excludeID || !b.Status.IsBlocking() {
			continue
		}
		if Overlaps(b.StartTime, b.EndTime, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) UpdateStatusFrom(_ context.Context, id string, from, to Status) (bool, error) {
	r.casAttempts++
	if r.failStatusWrite {
		return false, errors.New("storage unavailable")
	}
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, to Status) error {
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = to
	return nil
}

func (r *fakeRepo) MarkCompleted(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, b := range r.bookings {
		if b.Status.IsBlocking() && !b.EndTime.After(now) {
			b.Status = StatusCompleted
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) MarkInProgress(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, b := range r.bookings {
		if (b.Status == StatusPending || b.Status == StatusConfirmed) &&
			!b.StartTime.After(now) && b.EndTime.After(now) {
			b.Status = StatusInProgress
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) ListReminderCandidates(_ context.Context, now time.Time, window time.Duration) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.bookings {
		if b.Status != StatusConfirmed || b.ReminderSent {
			continue
		}
		if b.StartTime.After(now) && !b.StartTime.After(now.Add(window)) {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeRepo) MarkReminderSent(_ context.Context, id string) error {
	b, ok := r.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.ReminderSent = true
	return nil
}

type fakeResources struct {
	items map[string]*resource.Resource
}

func (f *fakeResources) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	res, ok := f.items[id]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return res, nil
}

type dispatchedEvent struct {
	kind      string
	userID    string
	bookingID string
	status    string
}

type fakeDispatcher struct {
	events []dispatchedEvent
}

func (f *fakeDispatcher) BookingCreated(_ context.Context, userID, bookingID, _ string, _ time.Time) error {
	f.events = append(f.events, dispatchedEvent{kind: "created", userID: userID, bookingID: bookingID})
	return nil
}

func (f *fakeDispatcher) StatusChanged(_ context.Context, userID, bookingID, status string) error {
	f.events = append(f.events, dispatchedEvent{kind: "status", userID: userID, bookingID: bookingID, status: status})
	return nil
}

func (f *fakeDispatcher) BookingReminder(_ context.Context, userID, bookingID string, _ time.Time) error {
	f.events = append(f.events, dispatchedEvent{kind: "reminder", userID: userID, bookingID: bookingID})
	return nil
}

const testResourceID = "2f0d8f4e-5a3b-4f6c-9d1e-8b7a6c5d4e3f"

func newTestService(t *testing.T, now time.Time) (*service, *fakeRepo, *fakeDispatcher) {
	t.Helper()
	repo := newFakeRepo()
	resources := &fakeResources{items: map[string]*resource.Resource{
		testResourceID: {
			ID:           testResourceID,
			Name:         "Studio A",
			PricePerHour: 49.99,
			IsActive:     true,
		},
	}}
	dispatcher := &fakeDispatcher{}

	svc := NewService(repo, resources, dispatcher).(*service)
	svc.now = func() time.Time { return now }
	return svc, repo, dispatcher
}

func TestCreateBooking(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	start := now.Add(time.Hour)
	end := start.Add(90 * time.Minute)

	t.Run("success freezes hours and price", func(t *testing.T) {
		svc, repo, dispatcher := newTestService(t, now)

		b, err := svc.Create(context.Background(), CreateRequest{
			UserID:     "user-1",
			ResourceID: testResourceID,
			StartTime:  start,
			EndTime:    end,
			Notes:      "window seat please",
		})
		require.NoError(t, err)

		assert.Equal(t, StatusConfirmed, b.Status)
		assert.Equal(t, 1.5, b.TotalHours)
		// 1.5h * 49.99 = 74.985, rounded to cents.
		assert.Equal(t, 74.99, b.TotalPrice)
		assert.Len(t, repo.bookings, 1)

		require.Len(t, dispatcher.events, 1)
		assert.Equal(t, "created", dispatcher.events[0].kind)
		assert.Equal(t, b.ID, dispatcher.events[0].bookingID)
	})

	t.Run("price change after creation leaves booking untouched", func(t *testing.T) {
		svc, _, _ := newTestService(t, now)
		resources := svc.resources.(*fakeResources)

		b, err := svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID, StartTime: start, EndTime: end,
		})
		require.NoError(t, err)

		resources.items[testResourceID].PricePerHour = 99.0
		got, err := svc.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, 74.99, got.TotalPrice)
	})

	t.Run("rejects inverted and zero-duration intervals", func(t *testing.T) {
		svc, _, _ := newTestService(t, now)

		_, err := svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID, StartTime: end, EndTime: start,
		})
		assert.ErrorIs(t, err, ErrInvalidTimeRange)

		_, err = svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID, StartTime: start, EndTime: start,
		})
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})

	t.Run("rejects non-future start", func(t *testing.T) {
		svc, _, _ := newTestService(t, now)

		_, err := svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID, StartTime: now, EndTime: end,
		})
		assert.ErrorIs(t, err, ErrStartTimePast)

		_, err = svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID, StartTime: now.Add(-time.Hour), EndTime: end,
		})
		assert.ErrorIs(t, err, ErrStartTimePast)
	})

	t.Run("rejects unknown and inactive resources", func(t *testing.T) {
		svc, _, _ := newTestService(t, now)

		_, err := svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e", StartTime: start, EndTime: end,
		})
		assert.ErrorIs(t, err, ErrResourceNotFound)

		svc.resources.(*fakeResources).items[testResourceID].IsActive = false
		_, err = svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID, StartTime: start, EndTime: end,
		})
		assert.ErrorIs(t, err, ErrResourceInactive)
	})

	t.Run("rejects overlapping slot, allows boundary touch", func(t *testing.T) {
		svc, repo, _ := newTestService(t, now)
		repo.add(&Booking{
			UserID:     "user-2",
			ResourceID: testResourceID,
			StartTime:  start,
			EndTime:    end,
			Status:     StatusConfirmed,
		})

		_, err := svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start.Add(30 * time.Minute), EndTime: end.Add(30 * time.Minute),
		})
		assert.ErrorIs(t, err, ErrTimeConflict)

		// Back-to-back is fine.
		_, err = svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: end, EndTime: end.Add(time.Hour),
		})
		assert.NoError(t, err)
	})

	t.Run("cancelled booking does not block the slot", func(t *testing.T) {
		svc, repo, _ := newTestService(t, now)
		repo.add(&Booking{
			UserID:     "user-2",
			ResourceID: testResourceID,
			StartTime:  start,
			EndTime:    end,
			Status:     StatusCancelled,
		})

		_, err := svc.Create(context.Background(), CreateRequest{
			UserID: "user-1", ResourceID: testResourceID, StartTime: start, EndTime: end,
		})
		assert.NoError(t, err)
	})
}

func TestCheckAvailability(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc, repo, _ := newTestService(t, now)

	// Existing confirmed booking 09:00 - 10:00.
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.add(&Booking{
		UserID: "user-2", ResourceID: testResourceID,
		StartTime: start, EndTime: end, Status: StatusConfirmed,
	})

	available, err := svc.CheckAvailability(context.Background(),
		testResourceID, start.Add(30*time.Minute), start.Add(45*time.Minute))
	require.NoError(t, err)
	assert.False(t, available)

	available, err = svc.CheckAvailability(context.Background(),
		testResourceID, end, end.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, available)

	_, err = svc.CheckAvailability(context.Background(), testResourceID, end, end)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = svc.CheckAvailability(context.Background(),
		testResourceID, now.Add(-time.Minute), now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrStartTimePast)
}

func TestLazyResolution(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("read persists derived status", func(t *testing.T) {
		svc, repo, _ := newTestService(t, start.Add(30*time.Minute))
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})

		got, err := svc.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, got.Status)
		assert.Equal(t, StatusInProgress, repo.bookings[b.ID].Status)
	})

	t.Run("write-back failure still returns derived value", func(t *testing.T) {
		svc, repo, _ := newTestService(t, end.Add(time.Minute))
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})
		repo.failStatusWrite = true

		got, err := svc.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, got.Status)
		// Stored value untouched; next read will retry.
		assert.Equal(t, StatusConfirmed, repo.bookings[b.ID].Status)
	})

	t.Run("no write when status is already current", func(t *testing.T) {
		svc, repo, _ := newTestService(t, start.Add(-time.Hour))
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})

		_, err := svc.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Zero(t, repo.casAttempts)
		assert.Equal(t, StatusConfirmed, repo.bookings[b.ID].Status)
	})

	t.Run("list resolves every booking", func(t *testing.T) {
		svc, repo, _ := newTestService(t, end.Add(time.Minute))
		repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})
		repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: end.Add(time.Hour), EndTime: end.Add(2 * time.Hour), Status: StatusConfirmed,
		})

		bookings, total, err := svc.List(context.Background(), Filter{UserID: "user-1"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, StatusCompleted, bookings[0].Status)
		assert.Equal(t, StatusConfirmed, bookings[1].Status)
	})
}

func TestCancelBooking(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("owner cancels a confirmed booking", func(t *testing.T) {
		svc, repo, dispatcher := newTestService(t, start.Add(-time.Hour))
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})

		got, err := svc.Cancel(context.Background(), b.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, StatusCancelled, repo.bookings[b.ID].Status)

		require.Len(t, dispatcher.events, 1)
		assert.Equal(t, "status", dispatcher.events[0].kind)
		assert.Equal(t, string(StatusCancelled), dispatcher.events[0].status)
	})

	t.Run("non-owner cannot cancel", func(t *testing.T) {
		svc, repo, _ := newTestService(t, start.Add(-time.Hour))
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})

		_, err := svc.Cancel(context.Background(), b.ID, "user-2")
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("cannot cancel once started by the clock", func(t *testing.T) {
		// Stored status is still confirmed, but the booking has started;
		// lazy resolution runs before the cancel check.
		svc, repo, _ := newTestService(t, start.Add(10*time.Minute))
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})

		_, err := svc.Cancel(context.Background(), b.ID, "user-1")
		assert.ErrorIs(t, err, ErrCancelNotAllowed)
		assert.Equal(t, StatusInProgress, repo.bookings[b.ID].Status)
	})

	t.Run("cannot cancel a terminal booking", func(t *testing.T) {
		svc, repo, _ := newTestService(t, start.Add(-time.Hour))
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusRefunded,
		})

		_, err := svc.Cancel(context.Background(), b.ID, "user-1")
		assert.ErrorIs(t, err, ErrCancelNotAllowed)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, _, _ := newTestService(t, start)
		_, err := svc.Cancel(context.Background(), "missing", "user-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetStatus(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("admin forces early start and it is honored", func(t *testing.T) {
		now := start.Add(-10 * time.Minute)
		svc, repo, dispatcher := newTestService(t, now)
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})

		got, err := svc.SetStatus(context.Background(), b.ID, StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, got.Status)
		require.Len(t, dispatcher.events, 1)

		// A later read before the natural start time must not revert it.
		got, err = svc.GetByID(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, got.Status)
	})

	t.Run("rejects unknown status value", func(t *testing.T) {
		svc, repo, _ := newTestService(t, start)
		b := repo.add(&Booking{
			UserID: "user-1", ResourceID: testResourceID,
			StartTime: start, EndTime: end, Status: StatusConfirmed,
		})

		_, err := svc.SetStatus(context.Background(), b.ID, Status("paused"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}
