package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrine-checkout-api/database"
	"vitrine-checkout-api/models"
	"vitrine-checkout-api/services/checkout"
	"vitrine-checkout-api/types"
)

type stubItems struct {
	items map[string]*models.PurchasableItem
}

func (s *stubItems) GetServiceItem(id string) (*models.PurchasableItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, database.ErrItemNotFound
}

func (s *stubItems) GetCourseItem(id string) (*models.PurchasableItem, error) {
	return s.GetServiceItem(id)
}

type stubOrders struct{}

func (s *stubOrders) CreateOrder(o *models.Order) error { return nil }
func (s *stubOrders) UpdateOrderStatus(orderID string, status models.OrderStatus, detail string) error {
	return nil
}

type stubGateway struct{}

func (s *stubGateway) CreateCardPayment(ctx context.Context, charge *types.CardCharge) (*types.PaymentResult, error) {
	return &types.PaymentResult{PaymentID: "1", Status: "approved"}, nil
}

func (s *stubGateway) CreatePixPayment(ctx context.Context, charge *types.PixCharge) (*types.PixResult, error) {
	return &types.PixResult{PaymentID: "1", QRCode: "qr", QRCodeBase64: "img"}, nil
}

func (s *stubGateway) GetPaymentStatus(ctx context.Context, paymentID string) (models.OrderStatus, error) {
	return models.OrderStatusPending, nil
}

func (s *stubGateway) CreatePreapproval(ctx context.Context, req *types.PreapprovalRequest) (string, error) {
	return "https://gateway.example/join", nil
}

func newTestCheckoutHandler(t *testing.T) (*CheckoutHandler, *checkout.Manager) {
	t.Helper()

	items := &stubItems{items: map[string]*models.PurchasableItem{
		"svc-1": {
			ID:          "svc-1",
			Kind:        models.ItemKindService,
			Title:       "Aula de violão",
			Price:       120,
			BillingType: models.BillingOneTime,
			ProviderID:  "prov-1",
		},
	}}

	manager := checkout.NewManager(items, &stubOrders{}, &stubGateway{}, checkout.Config{}, checkout.Hooks{})
	t.Cleanup(manager.Stop)

	return NewCheckoutHandler(manager, "test-secret", "", 1800), manager
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func openTestSession(t *testing.T, h *CheckoutHandler) string {
	t.Helper()

	body := bytes.NewBufferString(`{"serviceId":"svc-1"}`)
	req := httptest.NewRequest("POST", "/api/checkout", body)
	rec := httptest.NewRecorder()
	h.OpenCheckout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	sid, _ := data["sessionId"].(string)
	require.NotEmpty(t, sid)
	return sid
}

func TestOpenCheckout(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)

	t.Run("opens session and sets cookie", func(t *testing.T) {
		body := bytes.NewBufferString(`{"serviceId":"svc-1"}`)
		req := httptest.NewRequest("POST", "/api/checkout", body)
		rec := httptest.NewRecorder()
		h.OpenCheckout(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Set-Cookie"))

		resp := decodeResponse(t, rec)
		assert.Equal(t, "success", resp.Status)
	})

	t.Run("vanished item gets a back affordance", func(t *testing.T) {
		body := bytes.NewBufferString(`{"serviceId":"ghost"}`)
		req := httptest.NewRequest("POST", "/api/checkout", body)
		rec := httptest.NewRecorder()
		h.OpenCheckout(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "/catalogo", data["backTo"])
	})

	t.Run("both ids is a bad request", func(t *testing.T) {
		body := bytes.NewBufferString(`{"serviceId":"svc-1","courseId":"c-1"}`)
		req := httptest.NewRequest("POST", "/api/checkout", body)
		rec := httptest.NewRecorder()
		h.OpenCheckout(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetCheckout(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)
	sid := openTestSession(t, h)

	t.Run("found by sid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/checkout?sid="+sid, nil)
		rec := httptest.NewRecorder()
		h.GetCheckout(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, sid, data["sessionId"])
		assert.Equal(t, "pix", data["method"])
	})

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/checkout?sid=nope", nil)
		rec := httptest.NewRecorder()
		h.GetCheckout(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSelectMethodEndpoint(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)
	sid := openTestSession(t, h)

	body, _ := json.Marshal(map[string]string{"sid": sid, "method": "card"})
	req := httptest.NewRequest("POST", "/api/checkout/method", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.SelectMethod(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "card", data["method"])
	assert.Equal(t, "mounting", data["cardFormPhase"])
}

func TestCardFormEventEndpoint(t *testing.T) {
	h, manager := newTestCheckoutHandler(t)
	sid := openTestSession(t, h)

	post := func(payload map[string]string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest("POST", "/api/checkout/card-form", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		h.CardFormEvent(rec, req)
		return rec
	}

	t.Run("rejected while method is pix", func(t *testing.T) {
		rec := post(map[string]string{"sid": sid, "event": "mounted"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	session, ok := manager.Get(sid)
	require.True(t, ok)
	require.NoError(t, session.SelectMethod(models.PaymentMethodCard))

	t.Run("mounted moves the widget to ready", func(t *testing.T) {
		rec := post(map[string]string{"sid": sid, "event": "mounted"})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "ready", data["cardFormPhase"])
	})

	t.Run("field errors round trip", func(t *testing.T) {
		rec := post(map[string]string{"sid": sid, "event": "field_error", "field": "cardNumber", "message": "inválido"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"cardNumber"}, session.CardForm().OffendingFields())

		rec = post(map[string]string{"sid": sid, "event": "field_ok", "field": "cardNumber"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, session.CardForm().OffendingFields())
	})

	t.Run("unknown event", func(t *testing.T) {
		rec := post(map[string]string{"sid": sid, "event": "exploded"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCloseCheckout(t *testing.T) {
	h, manager := newTestCheckoutHandler(t)
	sid := openTestSession(t, h)

	req := httptest.NewRequest("DELETE", "/api/checkout?sid="+sid, nil)
	rec := httptest.NewRecorder()
	h.CloseCheckout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	_, ok := manager.Get(sid)
	assert.False(t, ok, "session must be gone after close")
}
