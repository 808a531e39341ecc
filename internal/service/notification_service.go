package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/shop-backend/internal/model"
	"github.com/iliyamo/shop-backend/internal/repository"
)

// NotificationService exposes a user's notifications.  They are written by
// OrderService.UpdateStatus only.
type NotificationService struct {
	notes NotificationStore
}

func NewNotificationService(notes NotificationStore) *NotificationService {
	return &NotificationService{notes: notes}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint64) ([]model.Notification, error) {
	out, err := s.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkRead flags one notification as read.  Notifications of other users
// are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint64) error {
	if err := s.notes.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("notification %d not found", id)
		}
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// MarkAllRead flags every unread notification of the user and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	n, err := s.notes.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}
