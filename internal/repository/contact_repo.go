package repository

import (
	"context"

	"github.com/Eursukkul/consultation-booking/internal/models"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	List(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error)
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

// List returns inquiries newest first.
func (r *contactRepository) List(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error) {
	q := r.db.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var contacts []models.Contact
	if err := q.Order("created_at DESC").Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}
