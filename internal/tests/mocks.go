package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"bemyrider/internal/domain"
	"bemyrider/internal/events"
	"bemyrider/internal/redis"
	"bemyrider/internal/repository"
	"bemyrider/internal/service"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore is an in-memory database shared by every mock repository.
// All repositories lock the same mutex, so guarded updates are atomic.
type MockStore struct {
	mu            sync.Mutex
	profiles      map[string]domain.Profile
	riders        map[string]domain.RiderDetails
	requests      map[string]domain.ServiceRequest
	bookings      map[string]domain.Booking
	reviews       map[string]domain.Review
	receipts      map[string]domain.Receipt // by booking id
	favorites     map[string]domain.Favorite
	receiptNumber int64

	// Error injection
	CreateSettlementError       error
	UpdateStatusError           error
	IssueReceiptError           error
	SetStripeAccountError       error
	MarkOnboardingCompleteError error

	CreateSettlementCallCount int32
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		profiles:  make(map[string]domain.Profile),
		riders:    make(map[string]domain.RiderDetails),
		requests:  make(map[string]domain.ServiceRequest),
		bookings:  make(map[string]domain.Booking),
		reviews:   make(map[string]domain.Review),
		receipts:  make(map[string]domain.Receipt),
		favorites: make(map[string]domain.Favorite),
	}
}

// Repositories returns repositories reading and writing this store.
func (s *MockStore) Repositories() repository.Repositories {
	return repository.Repositories{
		Profiles:        &MockProfileRepository{s},
		Riders:          &MockRiderRepository{s},
		ServiceRequests: &MockServiceRequestRepository{s},
		Bookings:        &MockBookingRepository{s},
		Reviews:         &MockReviewRepository{s},
		Receipts:        &MockReceiptRepository{s},
		Favorites:       &MockFavoriteRepository{s},
	}
}

type snapshot struct {
	profiles      map[string]domain.Profile
	riders        map[string]domain.RiderDetails
	requests      map[string]domain.ServiceRequest
	bookings      map[string]domain.Booking
	reviews       map[string]domain.Review
	receipts      map[string]domain.Receipt
	favorites     map[string]domain.Favorite
	receiptNumber int64
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *MockStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		profiles:      cloneMap(s.profiles),
		riders:        cloneMap(s.riders),
		requests:      cloneMap(s.requests),
		bookings:      cloneMap(s.bookings),
		reviews:       cloneMap(s.reviews),
		receipts:      cloneMap(s.receipts),
		favorites:     cloneMap(s.favorites),
		receiptNumber: s.receiptNumber,
	}
}

func (s *MockStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = snap.profiles
	s.riders = snap.riders
	s.requests = snap.requests
	s.bookings = snap.bookings
	s.reviews = snap.reviews
	s.receipts = snap.receipts
	s.favorites = snap.favorites
	s.receiptNumber = snap.receiptNumber
}

// AddMerchant seeds a merchant profile.
func (s *MockStore) AddMerchant(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[id] = domain.Profile{ID: id, FullName: name, Role: domain.RoleMerchant}
}

// AddRider seeds a rider profile with details.
func (s *MockStore) AddRider(id, name string, rate string, stripeAccountID string, onboarded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[id] = domain.Profile{ID: id, FullName: name, Role: domain.RoleRider}
	s.riders[id] = domain.RiderDetails{
		ProfileID:                id,
		HourlyRate:               decimal.RequireFromString(rate),
		VehicleType:              domain.VehicleEBike,
		ActiveLocation:           domain.DefaultActiveLocation,
		StripeAccountID:          stripeAccountID,
		StripeOnboardingComplete: onboarded,
	}
}

// AddServiceRequest seeds a service request.
func (s *MockStore) AddServiceRequest(r *domain.ServiceRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = *r
}

// AddBooking seeds a booking.
func (s *MockStore) AddBooking(b *domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = *b
}

// Rider returns a copy of a rider's details.
func (s *MockStore) Rider(id string) (domain.RiderDetails, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.riders[id]
	return r, ok
}

// ServiceRequest returns a copy of a service request.
func (s *MockStore) ServiceRequest(id string) (domain.ServiceRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	return r, ok
}

// Booking returns a copy of a booking.
func (s *MockStore) Booking(id string) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// CountBookings returns the number of stored bookings.
func (s *MockStore) CountBookings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// CountReceipts returns the number of issued receipts.
func (s *MockStore) CountReceipts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receipts)
}

// HasProfile reports whether a profile exists.
func (s *MockStore) HasProfile(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.profiles[id]
	return ok
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockUnitOfWork runs fn against the store and restores the previous state when fn fails.
// Transactions are serialized.
type MockUnitOfWork struct {
	store *MockStore
	txMu  sync.Mutex
}

// NewMockUnitOfWork creates a unit of work over store.
func NewMockUnitOfWork(store *MockStore) *MockUnitOfWork {
	return &MockUnitOfWork{store: store}
}

func (u *MockUnitOfWork) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	u.txMu.Lock()
	defer u.txMu.Unlock()

	snap := u.store.snapshot()
	if err := fn(u.store.Repositories()); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK REPOSITORIES
// ──────────────────────────────────────────────

// MockProfileRepository is a mock implementation of ProfileRepository.
type MockProfileRepository struct{ s *MockStore }

func (m *MockProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.profiles[profile.ID]; ok {
		return repository.ErrDuplicate
	}
	m.s.profiles[profile.ID] = *profile
	return nil
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *MockProfileRepository) Delete(ctx context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.profiles, id)
	return nil
}

// MockRiderRepository is a mock implementation of RiderRepository.
type MockRiderRepository struct{ s *MockStore }

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.RiderDetails) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.riders[rider.ProfileID]; ok {
		return repository.ErrDuplicate
	}
	m.s.riders[rider.ProfileID] = *rider
	return nil
}

func (m *MockRiderRepository) GetByProfileID(ctx context.Context, profileID string) (*domain.RiderDetails, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.riders[profileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m *MockRiderRepository) List(ctx context.Context, limit int) ([]*domain.RiderDetails, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make([]*domain.RiderDetails, 0, len(m.s.riders))
	for _, r := range m.s.riders {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Rating.Decimal, out[j].Rating.Decimal
		if !ri.Equal(rj) {
			return ri.GreaterThan(rj)
		}
		return out[i].ProfileID < out[j].ProfileID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRiderRepository) update(profileID string, fn func(r *domain.RiderDetails)) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.riders[profileID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&r)
	m.s.riders[profileID] = r
	return nil
}

func (m *MockRiderRepository) UpdateHourlyRate(ctx context.Context, profileID string, rate decimal.Decimal) error {
	return m.update(profileID, func(r *domain.RiderDetails) { r.HourlyRate = rate })
}

func (m *MockRiderRepository) SetStripeAccount(ctx context.Context, profileID, accountID string) error {
	if m.s.SetStripeAccountError != nil {
		return m.s.SetStripeAccountError
	}
	return m.update(profileID, func(r *domain.RiderDetails) {
		r.StripeAccountID = accountID
		r.StripeOnboardingComplete = false
	})
}

func (m *MockRiderRepository) MarkOnboardingComplete(ctx context.Context, stripeAccountID string) ([]string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.MarkOnboardingCompleteError != nil {
		return nil, m.s.MarkOnboardingCompleteError
	}
	var ids []string
	for id, r := range m.s.riders {
		if r.StripeAccountID == stripeAccountID {
			r.StripeOnboardingComplete = true
			m.s.riders[id] = r
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MockRiderRepository) IncrementCompletedJobs(ctx context.Context, profileID string) error {
	return m.update(profileID, func(r *domain.RiderDetails) { r.CompletedJobs++ })
}

func (m *MockRiderRepository) RefreshRating(ctx context.Context, profileID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.riders[profileID]
	if !ok {
		return repository.ErrNotFound
	}
	sum, n := 0, 0
	for _, rev := range m.s.reviews {
		if rev.RiderID == profileID {
			sum += rev.Rating
			n++
		}
	}
	if n > 0 {
		r.Rating = decimal.NewNullDecimal(decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(2))
	}
	m.s.riders[profileID] = r
	return nil
}

func (m *MockRiderRepository) Delete(ctx context.Context, profileID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.riders, profileID)
	return nil
}

// MockServiceRequestRepository is a mock implementation of ServiceRequestRepository.
type MockServiceRequestRepository struct{ s *MockStore }

func (m *MockServiceRequestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.requests[request.ID] = *request
	return nil
}

func (m *MockServiceRequestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

// Respond checks and writes under one lock, like the guarded UPDATE it stands in for.
func (m *MockServiceRequestRepository) Respond(ctx context.Context, id, riderID string, status domain.ServiceRequestStatus, response string, at time.Time) (*domain.ServiceRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.requests[id]
	if !ok || r.RiderID != riderID {
		return nil, repository.ErrNotFound
	}
	if r.Status != domain.ServiceRequestPending {
		return nil, repository.ErrConditionFailed
	}
	r.Status = status
	r.RiderResponse = response
	r.UpdatedAt = at
	m.s.requests[id] = r
	return &r, nil
}

func (m *MockServiceRequestRepository) list(match func(r domain.ServiceRequest) bool) []*domain.ServiceRequest {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.ServiceRequest
	for _, r := range m.s.requests {
		if match(r) {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MockServiceRequestRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*domain.ServiceRequest, error) {
	return m.list(func(r domain.ServiceRequest) bool { return r.MerchantID == merchantID }), nil
}

func (m *MockServiceRequestRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.ServiceRequest, error) {
	return m.list(func(r domain.ServiceRequest) bool { return r.RiderID == riderID }), nil
}

func (m *MockServiceRequestRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, r := range m.s.requests {
		if r.MerchantID == profileID || r.RiderID == profileID {
			delete(m.s.requests, id)
		}
	}
	return nil
}

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct{ s *MockStore }

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.bookings[booking.ID] = *booking
	return nil
}

func (m *MockBookingRepository) CreateSettlement(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	atomic.AddInt32(&m.s.CreateSettlementCallCount, 1)
	if m.s.CreateSettlementError != nil {
		return nil, m.s.CreateSettlementError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, b := range m.s.bookings {
		if b.StripePaymentIntentID != "" && b.StripePaymentIntentID == booking.StripePaymentIntentID {
			return &b, nil
		}
	}
	m.s.bookings[booking.ID] = *booking
	stored := *booking
	return &stored, nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (m *MockBookingRepository) ListByParticipant(ctx context.Context, profileID string) ([]*domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Booking
	for _, b := range m.s.bookings {
		if b.IsParty(profileID) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) error {
	if m.s.UpdateStatusError != nil {
		return m.s.UpdateStatusError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	b, ok := m.s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != from {
		return repository.ErrConditionFailed
	}
	b.Status = to
	m.s.bookings[id] = b
	return nil
}

func (m *MockBookingRepository) UpdatePaymentStatusByIntent(ctx context.Context, paymentIntentID string, from []domain.PaymentStatus, to domain.PaymentStatus) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, b := range m.s.bookings {
		if b.StripePaymentIntentID != paymentIntentID {
			continue
		}
		for _, f := range from {
			if b.PaymentStatus == f {
				b.PaymentStatus = to
				m.s.bookings[id] = b
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *MockBookingRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, b := range m.s.bookings {
		if b.IsParty(profileID) {
			delete(m.s.bookings, id)
			delete(m.s.receipts, id)
		}
	}
	return nil
}

// MockReviewRepository is a mock implementation of ReviewRepository.
type MockReviewRepository struct{ s *MockStore }

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.reviews {
		if r.BookingID == review.BookingID {
			return repository.ErrDuplicate
		}
	}
	m.s.reviews[review.ID] = *review
	return nil
}

func (m *MockReviewRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Review, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Review
	for _, r := range m.s.reviews {
		if r.RiderID == riderID {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *MockReviewRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, r := range m.s.reviews {
		if r.MerchantID == profileID || r.RiderID == profileID {
			delete(m.s.reviews, id)
		}
	}
	return nil
}

// MockReceiptRepository is a mock implementation of ReceiptRepository.
type MockReceiptRepository struct{ s *MockStore }

func (m *MockReceiptRepository) Create(ctx context.Context, id, bookingID string, date time.Time) (*domain.Receipt, error) {
	if m.s.IssueReceiptError != nil {
		return nil, m.s.IssueReceiptError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.receipts[bookingID]; ok {
		return nil, repository.ErrDuplicate
	}
	m.s.receiptNumber++
	r := domain.Receipt{ID: id, BookingID: bookingID, ReceiptNumber: m.s.receiptNumber, ReceiptDate: date}
	m.s.receipts[bookingID] = r
	return &r, nil
}

func (m *MockReceiptRepository) GetByBooking(ctx context.Context, bookingID string) (*domain.Receipt, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.receipts[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

// MockFavoriteRepository is a mock implementation of FavoriteRepository.
type MockFavoriteRepository struct{ s *MockStore }

func favoriteKey(merchantID, riderID string) string { return merchantID + "/" + riderID }

func (m *MockFavoriteRepository) Add(ctx context.Context, merchantID, riderID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := favoriteKey(merchantID, riderID)
	if _, ok := m.s.favorites[key]; !ok {
		m.s.favorites[key] = domain.Favorite{MerchantID: merchantID, RiderID: riderID, CreatedAt: time.Now()}
	}
	return nil
}

func (m *MockFavoriteRepository) Remove(ctx context.Context, merchantID, riderID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := favoriteKey(merchantID, riderID)
	if _, ok := m.s.favorites[key]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.favorites, key)
	return nil
}

func (m *MockFavoriteRepository) ListByMerchant(ctx context.Context, merchantID string) ([]*domain.Favorite, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*domain.Favorite
	for _, f := range m.s.favorites {
		if f.MerchantID == merchantID {
			f := f
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RiderID < out[j].RiderID })
	return out, nil
}

func (m *MockFavoriteRepository) DeleteByParticipant(ctx context.Context, profileID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for key, f := range m.s.favorites {
		if f.MerchantID == profileID || f.RiderID == profileID {
			delete(m.s.favorites, key)
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a mock implementation of service.PaymentGateway.
type MockGateway struct {
	mu       sync.Mutex
	accounts map[string]*service.ConnectedAccount
	intents  map[string]*service.PaymentIntent // by idempotency key
	statuses map[string]domain.PaymentStatus   // by intent id
	seq      int

	// Recorded calls
	PaymentIntentCalls []service.PaymentIntentParams
	CreateAccountCalls int32

	// Webhook verification: payloads signed with ValidSignature verify to NextEvent.
	ValidSignature string
	NextEvent      *service.WebhookEvent

	// Error injection
	CreatePaymentIntentError error
	CreateAccountError       error
	GetPaymentIntentError    error
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		accounts:       make(map[string]*service.ConnectedAccount),
		intents:        make(map[string]*service.PaymentIntent),
		statuses:       make(map[string]domain.PaymentStatus),
		ValidSignature: "t=1,v1=valid",
	}
}

// SetAccount seeds the upstream state of a connected account.
func (m *MockGateway) SetAccount(account *service.ConnectedAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

// SetIntentStatus records what the processor reports for an intent, as after the customer paid.
func (m *MockGateway) SetIntentStatus(paymentIntentID string, status domain.PaymentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[paymentIntentID] = status
}

// IntentCount returns the number of CreatePaymentIntent calls.
func (m *MockGateway) IntentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.PaymentIntentCalls)
}

func (m *MockGateway) CreateConnectedAccount(ctx context.Context, email string) (string, error) {
	atomic.AddInt32(&m.CreateAccountCalls, 1)
	if m.CreateAccountError != nil {
		return "", m.CreateAccountError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("acct_mock%d", m.seq)
	m.accounts[id] = &service.ConnectedAccount{ID: id}
	return id, nil
}

func (m *MockGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return "https://connect.example.test/setup/" + accountID, nil
}

func (m *MockGateway) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	return "https://connect.example.test/login/" + accountID, nil
}

func (m *MockGateway) GetAccount(ctx context.Context, accountID string) (*service.ConnectedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, errors.New("no such account")
	}
	copy := *a
	return &copy, nil
}

// CreatePaymentIntent returns the same intent for a repeated idempotency key.
func (m *MockGateway) CreatePaymentIntent(ctx context.Context, params service.PaymentIntentParams) (*service.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PaymentIntentCalls = append(m.PaymentIntentCalls, params)
	if m.CreatePaymentIntentError != nil {
		return nil, m.CreatePaymentIntentError
	}
	if params.IdempotencyKey != "" {
		if pi, ok := m.intents[params.IdempotencyKey]; ok {
			return pi, nil
		}
	}
	m.seq++
	pi := &service.PaymentIntent{
		ID:           fmt.Sprintf("pi_mock%d", m.seq),
		ClientSecret: fmt.Sprintf("pi_mock%d_secret", m.seq),
		Status:       domain.PaymentPending,
	}
	m.statuses[pi.ID] = domain.PaymentPending
	if params.IdempotencyKey != "" {
		m.intents[params.IdempotencyKey] = pi
	}
	return pi, nil
}

func (m *MockGateway) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*service.PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPaymentIntentError != nil {
		return nil, m.GetPaymentIntentError
	}
	status, ok := m.statuses[paymentIntentID]
	if !ok {
		return nil, errors.New("no such payment_intent: " + paymentIntentID)
	}
	return &service.PaymentIntent{ID: paymentIntentID, Status: status}, nil
}

func (m *MockGateway) VerifyWebhook(payload []byte, signatureHeader string) (*service.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if signatureHeader != m.ValidSignature || m.NextEvent == nil {
		return nil, errors.New("no signatures found matching the expected signature for payload")
	}
	copy := *m.NextEvent
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Types returns the types of the published events, in order.
func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK REDIS STORES
// ──────────────────────────────────────────────

// MockRiderCache is a mock implementation of RiderCacheInterface.
type MockRiderCache struct {
	mu     sync.Mutex
	riders map[string]redis.CachedRider

	InvalidateCallCount int32
}

// NewMockRiderCache creates a new mock rider cache.
func NewMockRiderCache() *MockRiderCache {
	return &MockRiderCache{riders: make(map[string]redis.CachedRider)}
}

func (m *MockRiderCache) GetRider(ctx context.Context, riderID string) (*redis.CachedRider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[riderID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MockRiderCache) SetRider(ctx context.Context, rider *redis.CachedRider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riders[rider.ID] = *rider
	return nil
}

func (m *MockRiderCache) InvalidateRider(ctx context.Context, riderIDs ...string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range riderIDs {
		delete(m.riders, id)
	}
	return nil
}

func (m *MockRiderCache) GetRidersBatch(ctx context.Context, riderIDs []string) (map[string]*redis.CachedRider, []string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hits := make(map[string]*redis.CachedRider)
	var misses []string
	for _, id := range riderIDs {
		if r, ok := m.riders[id]; ok {
			r := r
			hits[id] = &r
		} else {
			misses = append(misses, id)
		}
	}
	return hits, misses, nil
}

// Cached reports whether a rider card is cached.
func (m *MockRiderCache) Cached(riderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.riders[riderID]
	return ok
}

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool
	ttls  map[string]time.Duration
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool), ttls: make(map[string]time.Duration)}
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false
	}
	m.locks[key] = true
	m.ttls[key] = ttl
	return true
}

func (m *MockLockStore) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	delete(m.ttls, key)
}

// Expire simulates the TTL of a held key running out, as after a crashed delivery.
func (m *MockLockStore) Expire(key string) {
	m.release(key)
}

// TTL returns the expiry last set on a held key.
func (m *MockLockStore) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

func (m *MockLockStore) AcquireEventLock(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return m.acquire("event:"+eventID, ttl), nil
}

func (m *MockLockStore) ExtendEventLock(ctx context.Context, eventID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks["event:"+eventID] = true
	m.ttls["event:"+eventID] = ttl
	return nil
}

func (m *MockLockStore) ReleaseEventLock(ctx context.Context, eventID string) error {
	m.release("event:" + eventID)
	return nil
}

func (m *MockLockStore) AcquireCheckoutLock(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	return m.acquire("checkout:"+requestID, ttl), nil
}

func (m *MockLockStore) ReleaseCheckoutLock(ctx context.Context, requestID string) error {
	m.release("checkout:" + requestID)
	return nil
}

// IsLocked reports whether a key ("event:<id>" or "checkout:<id>") is held.
func (m *MockLockStore) IsLocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[key]
}

// MockOrphanLedger is a mock implementation of OrphanLedgerInterface.
type MockOrphanLedger struct {
	mu      sync.Mutex
	entries map[string]redis.OrphanedIntent
}

// NewMockOrphanLedger creates a new mock ledger.
func NewMockOrphanLedger() *MockOrphanLedger {
	return &MockOrphanLedger{entries: make(map[string]redis.OrphanedIntent)}
}

func (m *MockOrphanLedger) Record(ctx context.Context, orphan *redis.OrphanedIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[orphan.PaymentIntentID] = *orphan
	return nil
}

func (m *MockOrphanLedger) Get(ctx context.Context, paymentIntentID string) (*redis.OrphanedIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.entries[paymentIntentID]
	if !ok {
		return nil, redis.ErrOrphanNotFound
	}
	return &o, nil
}

func (m *MockOrphanLedger) List(ctx context.Context) ([]*redis.OrphanedIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*redis.OrphanedIntent, 0, len(m.entries))
	for _, o := range m.entries {
		o := o
		out = append(out, &o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (m *MockOrphanLedger) Remove(ctx context.Context, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[paymentIntentID]; !ok {
		return redis.ErrOrphanNotFound
	}
	delete(m.entries, paymentIntentID)
	return nil
}

// Ensure mocks implement interfaces.
var (
	_ repository.UnitOfWork               = (*MockUnitOfWork)(nil)
	_ repository.ProfileRepository        = (*MockProfileRepository)(nil)
	_ repository.RiderRepository          = (*MockRiderRepository)(nil)
	_ repository.ServiceRequestRepository = (*MockServiceRequestRepository)(nil)
	_ repository.BookingRepository        = (*MockBookingRepository)(nil)
	_ repository.ReviewRepository         = (*MockReviewRepository)(nil)
	_ repository.ReceiptRepository        = (*MockReceiptRepository)(nil)
	_ repository.FavoriteRepository       = (*MockFavoriteRepository)(nil)
	_ service.PaymentGateway              = (*MockGateway)(nil)
	_ events.Publisher                    = (*MockPublisher)(nil)
	_ redis.RiderCacheInterface           = (*MockRiderCache)(nil)
	_ redis.LockStoreInterface            = (*MockLockStore)(nil)
	_ redis.OrphanLedgerInterface         = (*MockOrphanLedger)(nil)
)
