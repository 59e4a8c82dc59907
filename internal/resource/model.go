package resource

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrInvalidType  = errors.New("invalid resource type")
	ErrInvalidPrice = errors.New("price per hour must be positive")
	ErrImageExists  = errors.New("image already attached")
)

// Kind categorizes what is being rented out.
type Kind string

const (
	KindSpace   Kind = "space"
	KindMachine Kind = "machine"
)

// ValidKinds lists the accepted resource kinds.
var ValidKinds = []Kind{KindSpace, KindMachine}

// Resource represents a rentable unit (a physical space or a machine).
// PricePerHour is the rate applied to new bookings; existing bookings keep
// the price they were created with.
type Resource struct {
	ID             string
	Name           string
	Description    string
	Kind           Kind
	PricePerHour   float64
	Location       *string
	Capacity       *int
	Specifications json.RawMessage
	IsActive       bool
	ImageIDs       []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Kind            string
	Keyword         string
	IncludeInactive bool
	Page            int
	PageSize        int
}
