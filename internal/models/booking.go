package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// ActiveStatuses hold a slot; any other status frees it.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Booking is a consultation request. OriginDate and OriginTime are in the
// consultant's timezone; the Viewer fields record what the visitor saw.
type Booking struct {
	ID             string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name           string        `gorm:"type:varchar(100);not null" json:"name"`
	Email          string        `gorm:"type:varchar(254);not null" json:"email"`
	Phone          string        `gorm:"type:varchar(20);not null" json:"phone"`
	BusinessName   string        `gorm:"type:varchar(100);not null" json:"business_name"`
	OriginDate     string        `gorm:"type:varchar(10);not null;index" json:"origin_date"`
	OriginTime     string        `gorm:"type:varchar(5);not null" json:"origin_time"`
	ViewerDate     string        `gorm:"type:varchar(10)" json:"viewer_date"`
	ViewerTime     string        `gorm:"type:varchar(5)" json:"viewer_time"`
	ViewerTimezone string        `gorm:"type:varchar(64)" json:"viewer_timezone"`
	ViewerDisplay  string        `gorm:"type:varchar(128)" json:"viewer_display"`
	Status         BookingStatus `gorm:"type:varchar(20);not null" json:"status"`
	Notes          string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
