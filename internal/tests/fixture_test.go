package tests

import (
	"go.uber.org/zap"

	"bemyrider/internal/domain"
	"bemyrider/internal/service"
)

const (
	merchantID      = "7b0e8c51-3f5a-4a43-9a59-0c1f6f2f0a01"
	otherMerchantID = "7b0e8c51-3f5a-4a43-9a59-0c1f6f2f0a02"
	riderID         = "5d1f2a7e-8a0c-4b8e-b5a1-6f2b9d3c0b01"
	otherRiderID    = "5d1f2a7e-8a0c-4b8e-b5a1-6f2b9d3c0b02"
	newRiderID      = "5d1f2a7e-8a0c-4b8e-b5a1-6f2b9d3c0b03"
	missingID       = "00000000-0000-4000-8000-000000000000"
	riderAccountID  = "acct_rider1"
)

// fixture wires every service against in-memory mocks.
type fixture struct {
	store     *MockStore
	uow       *MockUnitOfWork
	gateway   *MockGateway
	publisher *MockPublisher
	cache     *MockRiderCache
	locks     *MockLockStore
	ledger    *MockOrphanLedger

	requests   *service.ServiceRequestService
	bookings   *service.BookingService
	receipts   *service.ReceiptService
	payments   *service.PaymentService
	webhooks   *service.WebhookService
	riders     *service.RiderService
	onboarding *service.OnboardingService
	profiles   *service.ProfileService
	reviews    *service.ReviewService
	favorites  *service.FavoriteService
}

// newFixture seeds one merchant and one onboarded rider at 8.50/h.
func newFixture() *fixture {
	f := &fixture{
		store:     NewMockStore(),
		gateway:   NewMockGateway(),
		publisher: NewMockPublisher(),
		cache:     NewMockRiderCache(),
		locks:     NewMockLockStore(),
		ledger:    NewMockOrphanLedger(),
	}
	f.uow = NewMockUnitOfWork(f.store)
	f.store.AddMerchant(merchantID, "Pizzeria Da Mario")
	f.store.AddMerchant(otherMerchantID, "Bar Centrale")
	f.store.AddRider(riderID, "Luca Bianchi", "8.50", riderAccountID, true)
	f.store.AddRider(otherRiderID, "Giulia Verdi", "10.00", "acct_rider2", true)
	f.gateway.SetAccount(&service.ConnectedAccount{ID: riderAccountID, DetailsSubmitted: true, ChargesEnabled: true})

	logger := zap.NewNop()
	repos := f.store.Repositories()
	notifications := service.NewNotificationService(f.publisher, logger)

	f.receipts = service.NewReceiptService(repos)
	f.riders = service.NewRiderService(repos, f.cache, logger)
	f.requests = service.NewServiceRequestService(repos, notifications, logger)
	f.bookings = service.NewBookingService(repos, f.uow, f.receipts, f.cache, notifications, logger)
	f.payments = service.NewPaymentService(repos, f.gateway, f.ledger, f.locks, notifications, logger)
	f.webhooks = service.NewWebhookService(repos, f.gateway, f.locks, f.cache, notifications, logger)
	f.onboarding = service.NewOnboardingService(repos, f.gateway, f.cache, "https://app.bemyrider.test/", logger)
	f.profiles = service.NewProfileService(repos, f.uow, f.cache, logger)
	f.reviews = service.NewReviewService(repos, f.uow, f.cache, logger)
	f.favorites = service.NewFavoriteService(repos, f.riders)
	return f
}

func merchant() *service.Principal {
	return &service.Principal{ID: merchantID, Role: domain.RoleMerchant, Email: "mario@example.test"}
}

func otherMerchant() *service.Principal {
	return &service.Principal{ID: otherMerchantID, Role: domain.RoleMerchant}
}

func rider() *service.Principal {
	return &service.Principal{ID: riderID, Role: domain.RoleRider, Email: "luca@example.test"}
}

func otherRider() *service.Principal {
	return &service.Principal{ID: otherRiderID, Role: domain.RoleRider}
}
