package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceRequestStatus represents the state of a merchant's request to a rider.
type ServiceRequestStatus string

const (
	ServiceRequestPending  ServiceRequestStatus = "pending"
	ServiceRequestAccepted ServiceRequestStatus = "accepted"
	ServiceRequestRejected ServiceRequestStatus = "rejected"
)

// IsResponse reports whether s is a status a rider may answer with.
func (s ServiceRequestStatus) IsResponse() bool {
	return s == ServiceRequestAccepted || s == ServiceRequestRejected
}

// ServiceRequest is a merchant's proposal addressed to a single rider.
type ServiceRequest struct {
	ID              string
	MerchantID      string
	RiderID         string
	RequestedDate   time.Time // date only, UTC midnight
	StartTime       string    // HH:MM
	DurationHours   decimal.Decimal
	Description     string
	MerchantAddress string
	Status          ServiceRequestStatus
	RiderResponse   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StartsAt combines the requested date and start time.
func (r *ServiceRequest) StartsAt() (time.Time, error) {
	clock, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	d := r.RequestedDate
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}
