package http

import (
	"time"

	"github.com/rentaspace/backend/internal/notification"
)

type ListNotificationsRequest struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page,default=1" binding:"min=1"`
	PageSize   int  `form:"page_size,default=20" binding:"min=1,max=100"`
}

type NotificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func NewNotificationResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

type ListNotificationsResponse struct {
	Items       []NotificationResponse `json:"items"`
	Page        int                    `json:"page"`
	PageSize    int                    `json:"page_size"`
	Total       int                    `json:"total"`
	UnreadCount int                    `json:"unread_count"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android web"`
}

type DeviceTokenResponse struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
