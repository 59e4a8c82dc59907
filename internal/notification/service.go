package notification

import (
	"context"
	"fmt"
	"log"
	"time"
)

type Service interface {
	// Notify records an in-app notification and pushes it to the user's
	// active devices. Push delivery is best effort and never blocks the caller.
	Notify(ctx context.Context, userID string, t Type, title, message string, data map[string]string) error

	List(ctx context.Context, filter Filter) ([]*Notification, int, int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error

	RegisterDevice(ctx context.Context, userID, token, platform string) (*DeviceToken, error)
	UnregisterDevice(ctx context.Context, userID, token string) error

	// Booking event hooks; these satisfy the booking module's Dispatcher.
	BookingCreated(ctx context.Context, userID, bookingID, resourceName string, start time.Time) error
	StatusChanged(ctx context.Context, userID, bookingID, status string) error
	BookingReminder(ctx context.Context, userID, bookingID string, start time.Time) error
}

type service struct {
	repo Repository
	push PushSender
}

func NewService(repo Repository, push PushSender) Service {
	return &service{
		repo: repo,
		push: push,
	}
}

func (s *service) Notify(ctx context.Context, userID string, t Type, title, message string, data map[string]string) error {
	n := &Notification{
		UserID:  userID,
		Type:    t,
		Title:   title,
		Message: message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.push == nil {
		return nil
	}

	tokens, err := s.repo.ListActiveTokens(ctx, userID)
	if err != nil {
		log.Printf("failed to load device tokens for user %s: %v", userID, err)
		return nil
	}
	if len(tokens) == 0 {
		return nil
	}

	// Detach from the request context so an aborted request does not
	// cancel an already-committed notification's push.
	go func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.push.Send(pushCtx, tokens, title, message, data); err != nil {
			log.Printf("push delivery failed for user %s: %v", userID, err)
		}
	}()

	return nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Notification, int, int, error) {
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, filter.UserID)
	if err != nil {
		log.Printf("failed to count unread notifications for user %s: %v", filter.UserID, err)
		unread = 0
	}

	return list, total, unread, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *service) RegisterDevice(ctx context.Context, userID, token, platform string) (*DeviceToken, error) {
	t := &DeviceToken{
		UserID:   userID,
		Token:    token,
		Platform: platform,
		IsActive: true,
	}
	if err := s.repo.UpsertDeviceToken(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) UnregisterDevice(ctx context.Context, userID, token string) error {
	return s.repo.DeactivateDeviceToken(ctx, userID, token)
}

func (s *service) BookingCreated(ctx context.Context, userID, bookingID, resourceName string, start time.Time) error {
	return s.Notify(ctx, userID,
		TypeBookingCreated,
		"Booking created",
		fmt.Sprintf("Your booking for %s on %s was created and confirmed.", resourceName, start.Format("Jan 2 15:04")),
		map[string]string{"booking_id": bookingID},
	)
}

func (s *service) StatusChanged(ctx context.Context, userID, bookingID, status string) error {
	return s.Notify(ctx, userID,
		TypeStatusChanged,
		"Booking updated",
		fmt.Sprintf("The status of your booking changed to %s.", status),
		map[string]string{"booking_id": bookingID, "status": status},
	)
}

func (s *service) BookingReminder(ctx context.Context, userID, bookingID string, start time.Time) error {
	return s.Notify(ctx, userID,
		TypeBookingReminder,
		"Booking reminder",
		fmt.Sprintf("Your booking starts soon, on %s.", start.Format("Jan 2 15:04")),
		map[string]string{"booking_id": bookingID},
	)
}
