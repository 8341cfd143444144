package models

import (
	"time"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Reservation is a table booking created by an external workflow run.
//
// Phone is the value captured at creation and is independent of Customer.Phone.
// Workflow is fixed at creation and gates every later mutation.
// Version is bumped on every write and guards read-modify-write cycles.
type Reservation struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	Name               string            `gorm:"type:varchar(100);not null" json:"name"`
	Phone              string            `gorm:"type:varchar(20);not null;index:idx_reservations_phone_workflow,priority:1" json:"phone"`
	Date               string            `gorm:"type:varchar(10);not null" json:"date"`
	Time               string            `gorm:"type:varchar(5);not null" json:"time"`
	SeatCount          uint              `gorm:"not null" json:"seatCount"`
	Workflow           string            `gorm:"type:varchar(64);not null;index:idx_reservations_phone_workflow,priority:2" json:"workflow"`
	CustomerID         uint              `gorm:"column:customer_id;not null;index" json:"-"`
	Customer           *Customer         `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	Status             ReservationStatus `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	Notes              *string           `gorm:"type:varchar(500)" json:"notes"`
	CancellationReason *string           `gorm:"type:varchar(200)" json:"cancellationReason"`
	Version            uint              `gorm:"not null;default:1" json:"version"`
	CreatedAt          time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt          time.Time         `gorm:"not null" json:"updatedAt"`
}

// Confirm moves the reservation to CONFIRMED and drops any cancellation reason.
func (r *Reservation) Confirm() {
	r.Status = StatusConfirmed
	r.CancellationReason = nil
}

// Cancel moves the reservation to CANCELLED with an optional reason.
func (r *Reservation) Cancel(reason *string) {
	r.Status = StatusCancelled
	r.CancellationReason = reason
}
