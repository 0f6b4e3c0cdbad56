package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// hideNotFound collapses a missing row into the existence-hiding error.
func hideNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFoundOrForbidden
	}
	return err
}

func validateBookingHours(field string, hours decimal.Decimal) error {
	if !domain.ValidBookingHours(hours) {
		return invalid(field, fmt.Sprintf("must be between %s and %s hours",
			domain.MinBookingHours.String(), domain.MaxBookingHours.String()))
	}
	if !domain.HasCentPrecision(hours) {
		return invalid(field, "must have at most 2 decimal places")
	}
	return nil
}

func validateHourlyRate(rate decimal.Decimal) error {
	if !domain.ValidRiderHourlyRate(rate) {
		return invalid("hourlyRate", fmt.Sprintf("must be between %s and %s",
			domain.MinRiderHourlyRate.StringFixed(2), domain.MaxRiderHourlyRate.StringFixed(2)))
	}
	return nil
}

// parseSchedule combines a YYYY-MM-DD date and an HH:MM clock time in UTC.
func parseSchedule(date, clock string) (time.Time, time.Time, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("startDate", "must be YYYY-MM-DD")
	}
	at, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, time.Time{}, invalid("startTime", "must be HH:MM")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), at.Hour(), at.Minute(), 0, 0, time.UTC)
	return day, start, nil
}

// lookupRider resolves a rider-role profile and its details.
func lookupRider(ctx context.Context, repos repository.Repositories, riderID string) (*domain.Profile, *domain.RiderDetails, error) {
	if !validID(riderID) {
		return nil, nil, fmt.Errorf("rider %q: %w", riderID, ErrNotFound)
	}

	profile, err := repos.Profiles.GetByID(ctx, riderID)
	if err != nil {
		return nil, nil, fmt.Errorf("rider %s: %w", riderID, err)
	}
	if profile.Role != domain.RoleRider {
		return nil, nil, fmt.Errorf("rider %s: %w", riderID, ErrNotFound)
	}

	details, err := repos.Riders.GetByProfileID(ctx, riderID)
	if err != nil {
		return nil, nil, fmt.Errorf("rider %s: %w", riderID, err)
	}
	return profile, details, nil
}
