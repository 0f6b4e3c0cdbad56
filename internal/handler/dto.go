package handler

import (
	"time"

	"bemyrider/internal/domain"
)

// ServiceRequestResponse is the HTTP representation of a service request.
type ServiceRequestResponse struct {
	ID              string    `json:"id"`
	MerchantID      string    `json:"merchantId"`
	RiderID         string    `json:"riderId"`
	RequestedDate   string    `json:"requestedDate"`
	StartTime       string    `json:"startTime"`
	DurationHours   string    `json:"durationHours"`
	Description     string    `json:"description"`
	MerchantAddress string    `json:"merchantAddress"`
	Status          string    `json:"status"`
	RiderResponse   *string   `json:"riderResponse"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toServiceRequestResponse(r *domain.ServiceRequest) ServiceRequestResponse {
	resp := ServiceRequestResponse{
		ID:              r.ID,
		MerchantID:      r.MerchantID,
		RiderID:         r.RiderID,
		RequestedDate:   r.RequestedDate.Format("2006-01-02"),
		StartTime:       r.StartTime,
		DurationHours:   r.DurationHours.StringFixed(2),
		Description:     r.Description,
		MerchantAddress: r.MerchantAddress,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.RiderResponse != "" {
		resp.RiderResponse = &r.RiderResponse
	}
	return resp
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID                    string    `json:"id"`
	MerchantID            string    `json:"merchantId"`
	RiderID               string    `json:"riderId"`
	StartTime             time.Time `json:"startTime"`
	EndTime               time.Time `json:"endTime"`
	ServiceDurationHours  string    `json:"serviceDurationHours"`
	GrossAmount           string    `json:"grossAmount"`
	TaxWithholdingAmount  *string   `json:"taxWithholdingAmount"`
	NetAmount             string    `json:"netAmount"`
	Status                string    `json:"status"`
	PaymentStatus         string    `json:"paymentStatus"`
	StripePaymentIntentID *string   `json:"stripePaymentIntentId"`
	CreatedAt             time.Time `json:"createdAt"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                   b.ID,
		MerchantID:           b.MerchantID,
		RiderID:              b.RiderID,
		StartTime:            b.StartTime,
		EndTime:              b.EndTime,
		ServiceDurationHours: b.ServiceDurationHours.StringFixed(2),
		GrossAmount:          b.GrossAmount.StringFixed(2),
		NetAmount:            b.NetAmount.StringFixed(2),
		Status:               string(b.Status),
		PaymentStatus:        string(b.PaymentStatus),
		CreatedAt:            b.CreatedAt,
	}
	if b.TaxWithholdingAmount.Valid {
		v := b.TaxWithholdingAmount.Decimal.StringFixed(2)
		resp.TaxWithholdingAmount = &v
	}
	if b.StripePaymentIntentID != "" {
		resp.StripePaymentIntentID = &b.StripePaymentIntentID
	}
	return resp
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = toBookingResponse(b)
	}
	return out
}

// RiderDetailsResponse is the rider-only part of the caller's own profile.
type RiderDetailsResponse struct {
	HourlyRate               string  `json:"hourlyRate"`
	VehicleType              string  `json:"vehicleType,omitempty"`
	ActiveLocation           string  `json:"activeLocation"`
	StripeAccountID          string  `json:"stripeAccountId,omitempty"`
	StripeOnboardingComplete bool    `json:"stripeOnboardingComplete"`
	Rating                   *string `json:"rating"`
	CompletedJobs            int     `json:"completedJobs"`
	IsVerified               bool    `json:"isVerified"`
	IsPremium                bool    `json:"isPremium"`
}

func toRiderDetailsResponse(r *domain.RiderDetails) *RiderDetailsResponse {
	if r == nil {
		return nil
	}
	resp := &RiderDetailsResponse{
		HourlyRate:               r.HourlyRate.StringFixed(2),
		VehicleType:              string(r.VehicleType),
		ActiveLocation:           r.ActiveLocation,
		StripeAccountID:          r.StripeAccountID,
		StripeOnboardingComplete: r.StripeOnboardingComplete,
		CompletedJobs:            r.CompletedJobs,
		IsVerified:               r.IsVerified,
		IsPremium:                r.IsPremium,
	}
	if r.Rating.Valid {
		v := r.Rating.Decimal.StringFixed(2)
		resp.Rating = &v
	}
	return resp
}

// ReviewResponse is the HTTP representation of a review.
type ReviewResponse struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"bookingId"`
	MerchantID string    `json:"merchantId"`
	RiderID    string    `json:"riderId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toReviewResponse(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		BookingID:  r.BookingID,
		MerchantID: r.MerchantID,
		RiderID:    r.RiderID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}
