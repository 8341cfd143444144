package models

import (
	"time"
)

// Customer is a directory entry keyed by phone number.
// Phone is not unique at the schema level; lookups return the first match.
type Customer struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"type:varchar(100);not null" json:"name"`
	Phone        string        `gorm:"type:varchar(20);index:idx_customers_phone" json:"phone,omitempty"`
	Reservations []Reservation `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"reservations,omitempty"`
	CreatedAt    time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updatedAt"`
}
