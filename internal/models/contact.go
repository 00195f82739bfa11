package models

import "time"

type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactResponded ContactStatus = "responded"
	ContactClosed    ContactStatus = "closed"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactNew, ContactResponded, ContactClosed:
		return true
	}
	return false
}

type Contact struct {
	ID        string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string        `gorm:"type:varchar(100);not null" json:"name"`
	Email     string        `gorm:"type:varchar(254);not null" json:"email"`
	Message   string        `gorm:"type:text;not null" json:"message"`
	Status    ContactStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	UserAgent string        `gorm:"type:varchar(512)" json:"user_agent,omitempty"`
	IPAddress string        `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
