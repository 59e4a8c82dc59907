package booking

import (
	"net/http"
	"time"

	"github.com/rentaspace/backend/internal/pkg/apperror"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// BlockingStatuses occupy a resource's time slot and are the only
// statuses conflict detection considers.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed, StatusInProgress}

// TerminalStatuses are never transitioned out of automatically.
var TerminalStatuses = []Status{StatusCompleted, StatusCancelled, StatusRefunded}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no automatic transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRefunded
}

// IsBlocking reports whether s occupies its resource's time slot.
func (s Status) IsBlocking() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

type Booking struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ResourceID string    `json:"resource_id"`

	// Denormalized for display; populated by list/get queries.
	ResourceName string `json:"resource_name,omitempty"`
	UserName     string `json:"user_name,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Frozen at creation; resource price edits never change these.
	TotalHours float64 `json:"total_hours"`
	TotalPrice float64 `json:"total_price"`

	Notes  string `json:"notes"`
	Status Status `json:"status"`

	ReminderSent bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Filter struct {
	UserID     string
	ResourceID string
	Status     Status
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrResourceNotFound = apperror.New(http.StatusNotFound, "resource not found")
	ErrResourceInactive = apperror.New(http.StatusBadRequest, "resource is not accepting bookings")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "end time must be after start time")
	ErrStartTimePast    = apperror.New(http.StatusBadRequest, "start time must be in the future")
	ErrTimeConflict     = apperror.New(http.StatusConflict, "time slot is already booked")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrCancelNotAllowed = apperror.New(http.StatusBadRequest, "booking can no longer be cancelled")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
)
