package service

import (
	"context"
	"time"

	"github.com/Eursukkul/consultation-booking/internal/fallback"
	"github.com/Eursukkul/consultation-booking/internal/models"
)

// EventPublisher is satisfied by *rabbitmq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// FallbackSubmitter is satisfied by *fallback.Client.
type FallbackSubmitter interface {
	Submit(ctx context.Context, formName string, fields map[string]string) error
}

// Notifier is satisfied by *notify.OwnerNotifier.
type Notifier interface {
	BookingCreated(ctx context.Context, b *models.Booking) error
	ContactCreated(ctx context.Context, c *models.Contact) error
}

func submitFallback(ctx context.Context, f FallbackSubmitter, form string, fields map[string]string) error {
	if f == nil {
		return fallback.ErrNotConfigured
	}
	return f.Submit(ctx, form, fields)
}

type BookingCreatedEvent struct {
	ID             string               `json:"id"`
	OriginDate     string               `json:"origin_date"`
	OriginTime     string               `json:"origin_time"`
	ViewerTimezone string               `json:"viewer_timezone"`
	Status         models.BookingStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

type ContactCreatedEvent struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
