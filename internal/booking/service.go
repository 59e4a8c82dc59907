package booking

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/rentaspace/backend/internal/resource"
)

// ResourceLookup is the slice of the resource module the scheduling core
// needs: active flag and price at creation time.
type ResourceLookup interface {
	GetByID(ctx context.Context, id string) (*resource.Resource, error)
}

// Dispatcher receives booking lifecycle events. Delivery mechanics are the
// notification module's concern; failures here never fail the booking
// operation that triggered them.
type Dispatcher interface {
	BookingCreated(ctx context.Context, userID, bookingID, resourceName string, start time.Time) error
	StatusChanged(ctx context.Context, userID, bookingID, status string) error
	BookingReminder(ctx context.Context, userID, bookingID string, start time.Time) error
}

type CreateRequest struct {
	UserID     string
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time
	Notes      string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// CheckAvailability reports whether [start, end) is free on the
	// resource without creating anything.
	CheckAvailability(ctx context.Context, resourceID string, start, end time.Time) (bool, error)

	// Cancel lets the owning user cancel a booking that is still pending
	// or confirmed.
	Cancel(ctx context.Context, id, userID string) (*Booking, error)

	// SetStatus is the admin override: any valid status, no transition
	// rules applied.
	SetStatus(ctx context.Context, id string, to Status) (*Booking, error)
}

type service struct {
	repo      Repository
	resources ResourceLookup
	notifier  Dispatcher

	// Injected clock so derivation can be tested against fixed instants.
	now func() time.Time
}

func NewService(repo Repository, resources ResourceLookup, notifier Dispatcher) Service {
	return &service{
		repo:      repo,
		resources: resources,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	now := s.now()

	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	if !req.StartTime.After(now) {
		return nil, ErrStartTimePast
	}

	res, err := s.resources.GetByID(ctx, req.ResourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	if !res.IsActive {
		return nil, ErrResourceInactive
	}

	// The conflict check and the insert are separate statements; two
	// concurrent creates for the same slot can both pass the check.
	conflict, err := s.repo.HasConflict(ctx, req.ResourceID, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, ErrTimeConflict
	}

	hours := req.EndTime.Sub(req.StartTime).Hours()
	b := &Booking{
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TotalHours: hours,
		TotalPrice: math.Round(hours*res.PricePerHour*100) / 100,
		Notes:      req.Notes,
		Status:     StatusConfirmed,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	b.ResourceName = res.Name

	if s.notifier != nil {
		if err := s.notifier.BookingCreated(ctx, b.UserID, b.ID, res.Name, b.StartTime); err != nil {
			log.Printf("booking created notification failed for booking %s: %v", b.ID, err)
		}
	}

	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.resolveAndPersist(ctx, b)
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	for _, b := range bookings {
		s.resolveAndPersist(ctx, b)
	}
	return bookings, total, nil
}

// resolveAndPersist derives the status the booking should hold now and, if
// it differs from the stored one, writes it back conditionally on the
// previously-read value so a concurrent admin override is never clobbered.
// A failed or lost write is logged and swallowed; the caller still sees the
// derived value.
func (s *service) resolveAndPersist(ctx context.Context, b *Booking) {
	derived := Resolve(b.Status, b.StartTime, b.EndTime, s.now())
	if derived == b.Status {
		return
	}

	applied, err := s.repo.UpdateStatusFrom(ctx, b.ID, b.Status, derived)
	if err != nil {
		log.Printf("status write-back failed for booking %s: %v", b.ID, err)
	} else if !applied {
		log.Printf("status write-back skipped for booking %s: status changed concurrently", b.ID)
	}

	b.Status = derived
}

func (s *service) CheckAvailability(ctx context.Context, resourceID string, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, ErrInvalidTimeRange
	}
	if !start.After(s.now()) {
		return false, ErrStartTimePast
	}

	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return false, ErrResourceNotFound
		}
		return false, err
	}
	if !res.IsActive {
		return false, ErrResourceInactive
	}

	conflict, err := s.repo.HasConflict(ctx, resourceID, start, end, "")
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

func (s *service) Cancel(ctx context.Context, id, userID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrPermissionDenied
	}

	// Re-derive first so a booking that has already started or finished
	// by the clock cannot be cancelled even if its stored status is stale.
	s.resolveAndPersist(ctx, b)

	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return nil, ErrCancelNotAllowed
	}

	applied, err := s.repo.UpdateStatusFrom(ctx, b.ID, b.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race against an admin write or the sweep.
		return nil, ErrCancelNotAllowed
	}
	b.Status = StatusCancelled

	if s.notifier != nil {
		if err := s.notifier.StatusChanged(ctx, b.UserID, b.ID, string(StatusCancelled)); err != nil {
			log.Printf("cancel notification failed for booking %s: %v", b.ID, err)
		}
	}

	return b, nil
}

func (s *service) SetStatus(ctx context.Context, id string, to Status) (*Booking, error) {
	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, b.ID, to); err != nil {
		return nil, err
	}
	b.Status = to

	if s.notifier != nil {
		if err := s.notifier.StatusChanged(ctx, b.UserID, b.ID, string(to)); err != nil {
			log.Printf("status change notification failed for booking %s: %v", b.ID, err)
		}
	}

	return b, nil
}
