package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bemyrider/internal/domain"
	"bemyrider/internal/repository"
)

// ReceiptService issues and renders occasional-performance receipts.
type ReceiptService struct {
	repos repository.Repositories
	now   func() time.Time
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(repos repository.Repositories) *ReceiptService {
	return &ReceiptService{repos: repos, now: time.Now}
}

// IssueReceipt numbers a receipt for a completed booking. It runs inside the caller's transaction.
func (s *ReceiptService) IssueReceipt(ctx context.Context, tx repository.Repositories, booking *domain.Booking) (*domain.Receipt, error) {
	if booking.Status != domain.BookingCompleted {
		return nil, ErrInvalidState
	}

	receipt, err := tx.Receipts.Create(ctx, uuid.New().String(), booking.ID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("issue receipt for booking %s: %w", booking.ID, err)
	}
	return receipt, nil
}

// GetReceipt returns the receipt for a booking the caller is party to.
func (s *ReceiptService) GetReceipt(ctx context.Context, p *Principal, bookingID string) (*domain.Receipt, *domain.Booking, error) {
	if err := p.Authenticated(); err != nil {
		return nil, nil, err
	}
	if !validID(bookingID) {
		return nil, nil, ErrNotFoundOrForbidden
	}

	booking, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, hideNotFound(err)
	}
	if !booking.IsParty(p.ID) {
		return nil, nil, ErrNotFoundOrForbidden
	}

	receipt, err := s.repos.Receipts.GetByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return receipt, booking, nil
}

// FormatReceipt renders the receipt as plain text for download or email.
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt, booking *domain.Booking) string {
	withholding := "non applicata"
	if booking.TaxWithholdingAmount.Valid {
		withholding = "EUR " + booking.TaxWithholdingAmount.Decimal.StringFixed(2)
	}

	return `
=====================================
  RICEVUTA PRESTAZIONE OCCASIONALE
=====================================
Numero:        ` + fmt.Sprintf("%d", receipt.ReceiptNumber) + `
Data:          ` + receipt.ReceiptDate.Format("02/01/2006") + `
Prenotazione:  ` + booking.ID + `

PRESTAZIONE
-------------------------------------
Committente:   ` + booking.MerchantID + `
Prestatore:    ` + booking.RiderID + `
Inizio:        ` + booking.StartTime.Format("02/01/2006 15:04") + `
Fine:          ` + booking.EndTime.Format("02/01/2006 15:04") + `
Ore:           ` + booking.ServiceDurationHours.StringFixed(2) + `

COMPENSO
-------------------------------------
Lordo:         EUR ` + booking.GrossAmount.StringFixed(2) + `
Ritenuta:      ` + withholding + `
-------------------------------------
NETTO:         EUR ` + booking.NetAmount.StringFixed(2) + `
=====================================
`
}
