package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"bemyrider/internal/domain"
	"bemyrider/internal/handler"
	"bemyrider/internal/middleware"
	"bemyrider/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter mounts the handlers with the caller taken from the X-Test-Principal header.
func newTestRouter(f *fixture) *gin.Engine {
	principals := map[string]*service.Principal{
		"merchant":    merchant(),
		"rider":       rider(),
		"other-rider": otherRider(),
	}

	requests := handler.NewServiceRequestHandler(f.requests, f.payments)
	bookings := handler.NewBookingHandler(f.bookings, f.receipts, f.reviews)
	payments := handler.NewPaymentHandler(f.payments)
	webhooks := handler.NewWebhookHandler(f.webhooks)
	riders := handler.NewRiderHandler(f.riders, f.reviews)

	r := gin.New()
	r.POST("/webhook", webhooks.Handle)

	v1 := r.Group("/v1")
	v1.Use(func(c *gin.Context) {
		if p, ok := principals[c.GetHeader("X-Test-Principal")]; ok {
			middleware.SetPrincipal(c, p)
		}
		c.Next()
	})
	v1.POST("/service-requests", requests.Create)
	v1.PUT("/service-requests/:id/respond", requests.Respond)
	v1.POST("/service-requests/:id/checkout", requests.Checkout)
	v1.POST("/bookings/:id/review", bookings.Review)
	v1.GET("/bookings/:id/receipt", bookings.Receipt)
	v1.POST("/create-payment-intent", payments.CreatePaymentIntent)
	v1.GET("/riders/:id", riders.Get)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, principal string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if principal != "" {
		req.Header.Set("X-Test-Principal", principal)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHTTP_RespondToServiceRequest(t *testing.T) {
	t.Parallel()
	f := newFixture()
	r := newTestRouter(f)
	id := "2a4c6e80-0000-4000-8000-000000000201"
	f.store.AddServiceRequest(pendingRequest(id))

	w := doJSON(t, r, http.MethodPut, "/v1/service-requests/"+id+"/respond", "other-rider", gin.H{"status": "accepted"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPut, "/v1/service-requests/"+id+"/respond", "rider", gin.H{"status": "accepted", "riderResponse": "Ok"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Service request accepted successfully", body["message"])
	request := body["request"].(map[string]any)
	require.Equal(t, "accepted", request["status"])
	require.Equal(t, "Ok", request["riderResponse"])
	require.Equal(t, "2.00", request["durationHours"])

	w = doJSON(t, r, http.MethodPut, "/v1/service-requests/"+id+"/respond", "rider", gin.H{"status": "rejected"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/v1/service-requests/"+id+"/respond", "", gin.H{"status": "rejected"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHTTP_CreateServiceRequest_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture()
	r := newTestRouter(f)

	w := doJSON(t, r, http.MethodPost, "/v1/service-requests", "merchant", gin.H{
		"riderId": riderID, "startDate": "2026-11-03", "startTime": "19:30", "duration": 3,
		"description": "Consegne", "merchantAddress": "Via Roma 1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, decode(t, w)["error"], "duration")

	w = doJSON(t, r, http.MethodPost, "/v1/service-requests", "merchant", gin.H{
		"riderId": riderID, "startDate": "2026-11-03", "startTime": "19:30", "duration": "1.5",
		"description": "Consegne", "merchantAddress": "Via Roma 1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "pending", decode(t, w)["status"])

	w = doJSON(t, r, http.MethodPost, "/v1/service-requests", "rider", gin.H{})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestHTTP_CreatePaymentIntent(t *testing.T) {
	t.Parallel()
	f := newFixture()
	r := newTestRouter(f)
	payload := gin.H{
		"riderId": riderID, "merchantId": merchantID,
		"startTime": "2026-11-03T19:30:00Z", "endTime": "2026-11-03T21:30:00Z",
		"hours": 2, "riderAmount": "17.00",
	}

	w := doJSON(t, r, http.MethodPost, "/v1/create-payment-intent", "merchant", payload)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.NotEmpty(t, body["clientSecret"])
	require.NotEmpty(t, body["paymentIntentId"])
	require.Equal(t, "19.55", body["totalAmount"])
	require.Equal(t, "2.55", body["platformFee"])

	f.gateway.CreatePaymentIntentError = errors.New("api_connection_error")
	w = doJSON(t, r, http.MethodPost, "/v1/create-payment-intent", "merchant", payload)
	require.Equal(t, http.StatusBadGateway, w.Code)

	f.gateway.CreatePaymentIntentError = nil
	f.store.CreateSettlementError = errors.New("connection reset")
	w = doJSON(t, r, http.MethodPost, "/v1/create-payment-intent", "merchant", payload)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotEmpty(t, decode(t, w)["details"])
}

func TestHTTP_CreatePaymentIntent_OnboardingIncomplete(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.store.AddRider(newRiderID, "Nuovo Rider", "9.00", "", false)
	r := newTestRouter(f)

	w := doJSON(t, r, http.MethodPost, "/v1/create-payment-intent", "merchant", gin.H{
		"riderId": newRiderID, "merchantId": merchantID,
		"startTime": "2026-11-03T19:30:00Z", "endTime": "2026-11-03T20:30:00Z",
		"hours": 1, "riderAmount": "9.00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, 0, f.gateway.IntentCount())

	w = doJSON(t, r, http.MethodPost, "/v1/create-payment-intent", "merchant", gin.H{
		"riderId": missingID, "merchantId": merchantID,
		"startTime": "2026-11-03T19:30:00Z", "endTime": "2026-11-03T20:30:00Z",
		"hours": 1, "riderAmount": "9.00",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTP_Webhook(t *testing.T) {
	t.Parallel()
	f := newFixture()
	r := newTestRouter(f)
	f.gateway.NextEvent = &service.WebhookEvent{ID: "evt_http", Type: "customer.created"}

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"id":"evt_http"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotEmpty(t, decode(t, w)["error"])

	req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"id":"evt_http"}`))
	req.Header.Set("Stripe-Signature", f.gateway.ValidSignature)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decode(t, w)["received"])

	f.gateway.NextEvent = &service.WebhookEvent{
		ID: "evt_http_bad", Type: service.EventChargeRefunded, DecodeError: errors.New("decode charge: invalid character"),
	}
	req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"id":"evt_http_bad"}`))
	req.Header.Set("Stripe-Signature", f.gateway.ValidSignature)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHTTP_ReviewAndReceipt(t *testing.T) {
	t.Parallel()
	f := newFixture()
	r := newTestRouter(f)
	booking := completeBooking(t, f)

	w := doJSON(t, r, http.MethodPost, "/v1/bookings/"+booking.ID+"/review", "merchant", gin.H{"rating": 5, "comment": "Ottimo"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/bookings/"+booking.ID+"/review", "merchant", gin.H{"rating": 4})
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/bookings/"+booking.ID+"/receipt", "rider", nil)
	require.Equal(t, http.StatusOK, w.Code)
	receipt := decode(t, w)
	require.Equal(t, float64(1), receipt["receiptNumber"])
	require.Equal(t, "12.75", receipt["booking"].(map[string]any)["grossAmount"])

	w = doJSON(t, r, http.MethodGet, "/v1/bookings/"+booking.ID+"/receipt?format=text", "merchant", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "RICEVUTA PRESTAZIONE OCCASIONALE")

	w = doJSON(t, r, http.MethodGet, "/v1/bookings/"+booking.ID+"/receipt", "other-rider", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHTTP_CheckoutConflictWhileLocked(t *testing.T) {
	t.Parallel()
	f := newFixture()
	r := newTestRouter(f)
	id := "2a4c6e80-0000-4000-8000-000000000202"
	accepted := pendingRequest(id)
	accepted.Status = domain.ServiceRequestAccepted
	f.store.AddServiceRequest(accepted)

	_, err := f.locks.AcquireCheckoutLock(context.Background(), id, 0)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/v1/service-requests/"+id+"/checkout", "merchant", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, f.locks.ReleaseCheckoutLock(context.Background(), id))
	w = doJSON(t, r, http.MethodPost, "/v1/service-requests/"+id+"/checkout", "merchant", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "confermata", decode(t, w)["booking"].(map[string]any)["status"])
}

func TestHTTP_RiderCard(t *testing.T) {
	t.Parallel()
	f := newFixture()
	r := newTestRouter(f)

	w := doJSON(t, r, http.MethodGet, "/v1/riders/"+riderID, "merchant", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, "8.50", body["hourlyRate"])
	require.Equal(t, "Luca Bianchi", body["fullName"])
	require.Nil(t, body["rating"])

	w = doJSON(t, r, http.MethodGet, "/v1/riders/not-a-uuid", "merchant", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
