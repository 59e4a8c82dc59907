package http

import (
	"time"

	"github.com/rentaspace/backend/internal/booking"
)

type ListBookingsRequest struct {
	UserID     string     `form:"user_id"`
	ResourceID string     `form:"resource_id"`
	Status     string     `form:"status"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int        `form:"page,default=1" binding:"min=1"`
	PageSize   int        `form:"page_size,default=20" binding:"min=1,max=100"`
}

type CreateBookingRequest struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Notes      string    `json:"notes"`
}

type CheckAvailabilityRequest struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
}

type CheckAvailabilityResponse struct {
	Available bool `json:"available"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type BookingResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ResourceID   string    `json:"resource_id"`
	ResourceName string    `json:"resource_name,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	TotalHours   float64   `json:"total_hours"`
	TotalPrice   float64   `json:"total_price"`
	Notes        string    `json:"notes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		ResourceID:   b.ResourceID,
		ResourceName: b.ResourceName,
		UserName:     b.UserName,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		TotalHours:   b.TotalHours,
		TotalPrice:   b.TotalPrice,
		Notes:        b.Notes,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}
