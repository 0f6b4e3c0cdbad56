package domain

import "time"

// Receipt is the occasional-performance receipt issued when a booking completes.
type Receipt struct {
	ID            string
	BookingID     string
	ReceiptNumber int64
	ReceiptDate   time.Time
}
