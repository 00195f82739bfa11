package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusUpdater is satisfied by service.BookingService.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type StatusMessage struct {
	ID     string               `json:"id"`
	Status models.BookingStatus `json:"status"`
}

// StatusConsumer applies booking status changes sent by the administrative
// tooling over the broker.
type StatusConsumer struct {
	updater StatusUpdater
	logger  *logging.Logger
	timeout time.Duration
}

func NewStatusConsumer(updater StatusUpdater, logger *logging.Logger) *StatusConsumer {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusConsumer{updater: updater, logger: logger, timeout: 10 * time.Second}
}

// Start handles deliveries until msgs is closed. The returned channel is
// closed once the loop exits.
func (sc *StatusConsumer) Start(msgs <-chan amqp.Delivery) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			sc.handleMessage(msg)
		}
		sc.logger.Info("status consumer stopped: channel closed")
	}()
	return done
}

func (sc *StatusConsumer) handleMessage(msg amqp.Delivery) {
	var m StatusMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil || m.ID == "" {
		sc.logger.Warn("discarding malformed status message", "error", err, "body", string(msg.Body))
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sc.timeout)
	defer cancel()

	err := sc.updater.UpdateStatus(ctx, m.ID, m.Status)
	switch {
	case err == nil:
		sc.logger.Info("booking status applied", "booking_id", m.ID, "status", m.Status)
		_ = msg.Ack(false)
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrSlotTaken):
		// Retrying cannot succeed.
		sc.logger.Warn("rejecting status message", "booking_id", m.ID, "status", m.Status, "error", err)
		_ = msg.Nack(false, false)
	default:
		sc.logger.Error("status update failed, requeueing", "booking_id", m.ID, "error", err)
		_ = msg.Nack(false, true)
	}
}
