package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/consultation-booking/internal/models"
	"gorm.io/gorm"
)

// BookingFilter narrows the admin listing. Zero values mean no constraint;
// From and To are inclusive origin dates.
type BookingFilter struct {
	From   string
	To     string
	Status *models.BookingStatus
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	BookedTimes(ctx context.Context, date string) ([]string, error)
	IsSlotTaken(ctx context.Context, date, clock string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create inserts the booking. A second active booking for the same slot
// fails with ErrDuplicateSlot.
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	err := r.db.WithContext(ctx).Create(booking).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("insert booking %s %s: %w", booking.OriginDate, booking.OriginTime, ErrDuplicateSlot)
	}
	return err
}

func (r *bookingRepository) BookedTimes(ctx context.Context, date string) ([]string, error) {
	var times []string
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("origin_date = ? AND status IN ?", date, models.ActiveStatuses).
		Order("origin_time ASC").
		Pluck("origin_time", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (r *bookingRepository) IsSlotTaken(ctx context.Context, date, clock string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("origin_date = ? AND origin_time = ? AND status IN ?", date, clock, models.ActiveStatuses).
		Count(&count).Error
	return count > 0, err
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	q := r.db.WithContext(ctx)
	if filter.From != "" {
		q = q.Where("origin_date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("origin_date <= ?", filter.To)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	var bookings []models.Booking
	if err := q.Order("origin_date ASC, origin_time ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus moves a booking to a new status. Reactivating a booking whose
// slot has since been taken fails with ErrDuplicateSlot.
func (r *bookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if isUniqueViolation(res.Error) {
		return fmt.Errorf("update booking %s: %w", id, ErrDuplicateSlot)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
