package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrine-checkout-api/database"
	"vitrine-checkout-api/models"
)

type stubPaymentStore struct {
	mu       sync.Mutex
	busy     bool
	lockErr  error
	locked   []string
	released []string
	statuses map[string]models.OrderStatus
}

func (s *stubPaymentStore) LockSubmission(checkoutID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lockErr != nil {
		return false, s.lockErr
	}
	if s.busy {
		return false, nil
	}
	s.locked = append(s.locked, checkoutID)
	return true, nil
}

func (s *stubPaymentStore) ReleaseSubmissionLock(checkoutID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, checkoutID)
	return nil
}

func (s *stubPaymentStore) GetOrderStatus(orderID string) (models.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.statuses[orderID]; ok {
		return status, nil
	}
	return "", database.ErrOrderNotFound
}

func newTestPaymentHandler(t *testing.T) (*PaymentHandler, *CheckoutHandler, *stubPaymentStore) {
	t.Helper()

	checkoutHandler, _ := newTestCheckoutHandler(t)
	store := &stubPaymentStore{statuses: map[string]models.OrderStatus{}}

	h, err := NewPaymentHandler(store, checkoutHandler)
	require.NoError(t, err)
	return h, checkoutHandler, store
}

func pixPaymentBody(sid string) *bytes.Buffer {
	return bytes.NewBufferString(fmt.Sprintf(`{
		"sid": %q,
		"paymentMethod": "pix",
		"customerData": {
			"name": "Maria Silva",
			"email": "maria@example.com",
			"taxId": "123.456.789-09",
			"taxIdType": "cpf",
			"phone": "(11) 91234-5678"
		}
	}`, sid))
}

func TestProcessPayment(t *testing.T) {
	t.Run("pix charge through the session", func(t *testing.T) {
		h, checkoutHandler, store := newTestPaymentHandler(t)
		sid := openTestSession(t, checkoutHandler)

		req := httptest.NewRequest("POST", "/api/process-payment", pixPaymentBody(sid))
		rec := httptest.NewRecorder()
		h.ProcessPayment(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeResponse(t, rec)
		assert.Equal(t, "success", resp.Status)

		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, data["qrCode"])

		// o lock cross-processo cobre a submissão inteira
		assert.Equal(t, []string{sid}, store.locked)
		assert.Equal(t, []string{sid}, store.released)
	})

	t.Run("unknown session", func(t *testing.T) {
		h, _, store := newTestPaymentHandler(t)

		req := httptest.NewRequest("POST", "/api/process-payment", pixPaymentBody("nope"))
		rec := httptest.NewRecorder()
		h.ProcessPayment(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, store.locked)
	})

	t.Run("busy submission lock", func(t *testing.T) {
		h, checkoutHandler, store := newTestPaymentHandler(t)
		sid := openTestSession(t, checkoutHandler)
		store.busy = true

		req := httptest.NewRequest("POST", "/api/process-payment", pixPaymentBody(sid))
		rec := httptest.NewRecorder()
		h.ProcessPayment(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeResponse(t, rec)
		assert.Equal(t, "Este pagamento já está sendo processado.", resp.Message)
	})

	t.Run("card before the widget is ready", func(t *testing.T) {
		h, checkoutHandler, _ := newTestPaymentHandler(t)
		sid := openTestSession(t, checkoutHandler)

		selectBody := bytes.NewBufferString(fmt.Sprintf(`{"sid":%q,"method":"card"}`, sid))
		selectReq := httptest.NewRequest("POST", "/api/checkout/method", selectBody)
		selectRec := httptest.NewRecorder()
		checkoutHandler.SelectMethod(selectRec, selectReq)
		require.Equal(t, http.StatusOK, selectRec.Code, selectRec.Body.String())

		body := bytes.NewBufferString(fmt.Sprintf(`{
			"sid": %q,
			"paymentMethod": "card",
			"customerData": {
				"name": "Maria Silva",
				"email": "maria@example.com",
				"taxId": "123.456.789-09",
				"taxIdType": "cpf",
				"phone": "(11) 91234-5678"
			},
			"cardForm": {"ready": true, "token": "tok_abc"}
		}`, sid))
		req := httptest.NewRequest("POST", "/api/process-payment", body)
		rec := httptest.NewRecorder()
		h.ProcessPayment(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		h, checkoutHandler, _ := newTestPaymentHandler(t)
		sid := openTestSession(t, checkoutHandler)

		body := bytes.NewBufferString(fmt.Sprintf(`{"sid":%q,"paymentMethod":"boleto"}`, sid))
		req := httptest.NewRequest("POST", "/api/process-payment", body)
		rec := httptest.NewRecorder()
		h.ProcessPayment(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCheckOrderStatus(t *testing.T) {
	h, _, store := newTestPaymentHandler(t)
	store.statuses["ord-1"] = models.OrderStatusApproved

	t.Run("known order", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/check-order-status?orderId=ord-1", nil)
		rec := httptest.NewRecorder()
		h.CheckOrderStatus(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeResponse(t, rec)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "ord-1", data["orderId"])
		assert.Equal(t, "approved", data["status"])
	})

	t.Run("unknown order", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/check-order-status?orderId=ghost", nil)
		rec := httptest.NewRecorder()
		h.CheckOrderStatus(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing orderId", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/check-order-status", nil)
		rec := httptest.NewRecorder()
		h.CheckOrderStatus(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
