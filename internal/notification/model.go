package notification

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("notification not found")
)

// Type categorizes a notification for client-side routing.
type Type string

const (
	TypeBookingCreated  Type = "booking_created"
	TypeBookingReminder Type = "booking_reminder"
	TypeStatusChanged   Type = "status_changed"
	TypeGeneral         Type = "general"
)

// Notification is a per-user message persisted for the in-app inbox.
type Notification struct {
	ID        string
	UserID    string
	Type      Type
	Title     string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// DeviceToken is a push token registered by a user's device.
type DeviceToken struct {
	ID        string
	UserID    string
	Token     string
	Platform  string // "ios" | "android"
	IsActive  bool
	CreatedAt time.Time
}

// Filter defines parameters for listing a user's notifications.
type Filter struct {
	UserID     string
	UnreadOnly bool
	Page       int
	PageSize   int
}
