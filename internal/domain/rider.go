package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VehicleType is the vehicle a rider works with.
type VehicleType string

const (
	VehicleBike    VehicleType = "bici"
	VehicleEBike   VehicleType = "e_bike"
	VehicleScooter VehicleType = "scooter"
	VehicleCar     VehicleType = "auto"
)

// Valid reports whether v is a known vehicle type.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleBike, VehicleEBike, VehicleScooter, VehicleCar:
		return true
	}
	return false
}

// DefaultActiveLocation is stored when a rider does not declare an area.
const DefaultActiveLocation = "Non specificata"

// RiderDetails holds the rider-only part of a profile.
type RiderDetails struct {
	ProfileID                string
	HourlyRate               decimal.Decimal
	VehicleType              VehicleType
	ActiveLocation           string
	StripeAccountID          string
	StripeOnboardingComplete bool
	Rating                   decimal.NullDecimal
	CompletedJobs            int
	IsVerified               bool
	IsPremium                bool
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// CanReceivePayments reports whether destination charges can target this rider.
func (r *RiderDetails) CanReceivePayments() bool {
	return r.StripeAccountID != "" && r.StripeOnboardingComplete
}
