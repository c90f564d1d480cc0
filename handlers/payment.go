package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"vitrine-checkout-api/database"
	"vitrine-checkout-api/models"
	"vitrine-checkout-api/services/checkout"
	"vitrine-checkout-api/utils"
)

// PaymentStore é o recorte do banco que o handler de pagamento usa: o
// lock de submissão cross-processo e a leitura de status de pedido.
// *database.Connection satisfaz a interface.
type PaymentStore interface {
	LockSubmission(checkoutID string) (bool, error)
	ReleaseSubmissionLock(checkoutID string) error
	GetOrderStatus(orderID string) (models.OrderStatus, error)
}

// PaymentHandler expõe a inicialização de pagamento e a consulta de
// status usada pelo polling do storefront.
type PaymentHandler struct {
	db       PaymentStore
	sessions *CheckoutHandler
}

func NewPaymentHandler(db PaymentStore, sessions *CheckoutHandler) (*PaymentHandler, error) {
	if db == nil {
		return nil, fmt.Errorf("payment store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("checkout handler is required")
	}

	return &PaymentHandler{
		db:       db,
		sessions: sessions,
	}, nil
}

// ProcessPayment inicia o pagamento da sessão corrente: gera a cobrança
// pix (código + QR) ou submete o token do cartão, conforme o método.
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	log.Printf("[RequestID: %s] Starting payment processing", requestID)

	var req models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[RequestID: %s] Invalid request body: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, ok := h.sessions.resolveSession(r, req.SessionID)
	if !ok {
		log.Printf("[RequestID: %s] Checkout session not found", requestID)
		utils.SendErrorResponse(w, http.StatusNotFound, "Sessão de checkout não encontrada ou expirada.")
		return
	}

	log.Printf("[RequestID: %s] Processing %s payment for session %s", requestID, req.PaymentMethod, session.ID())

	// Lock cross-processo: um duplo clique que escape do flag em memória
	// esbarra aqui
	acquired, err := h.db.LockSubmission(session.ID())
	if err != nil {
		log.Printf("[RequestID: %s] Error acquiring submission lock: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !acquired {
		log.Printf("[RequestID: %s] Submission lock busy for session %s", requestID, session.ID())
		utils.SendErrorResponse(w, http.StatusConflict, "Este pagamento já está sendo processado.")
		return
	}
	defer func() {
		if err := h.db.ReleaseSubmissionLock(session.ID()); err != nil {
			log.Printf("[RequestID: %s] Error releasing submission lock: %v", requestID, err)
		}
	}()

	// O corpo carrega os dados do cliente; a sessão é a dona deles
	if req.CustomerData != (models.CustomerInput{}) {
		if err := session.SetCustomer(req.CustomerData); err != nil {
			utils.SendErrorResponse(w, http.StatusConflict, "A sessão de checkout já foi encerrada.")
			return
		}
	}

	switch req.PaymentMethod {
	case models.PaymentMethodPix:
		result, err := session.SubmitPix(r.Context(), &req)
		if err != nil {
			h.sendSubmissionError(w, requestID, session, err)
			return
		}

		log.Printf("[RequestID: %s] Pix charge created, order %s", requestID, result.OrderID)
		utils.SendSuccessResponse(w, models.APIResponse{
			Status: "success",
			Data:   result,
		})

	case models.PaymentMethodCard:
		result, err := session.SubmitCard(r.Context(), &req)
		if err != nil {
			h.sendSubmissionError(w, requestID, session, err)
			return
		}

		log.Printf("[RequestID: %s] Card payment submitted, order %s, status %s",
			requestID, result.OrderID, result.Status)
		utils.SendSuccessResponse(w, models.APIResponse{
			Status:  "success",
			Message: result.Message,
			Data:    result,
		})

	default:
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Método de pagamento desconhecido: %s", req.PaymentMethod))
	}
}

// sendSubmissionError traduz os erros sentinela da sessão em status HTTP.
// O texto exibível vem sempre do slot de erro da sessão.
func (h *PaymentHandler) sendSubmissionError(w http.ResponseWriter, requestID string, session *checkout.Session, err error) {
	log.Printf("[RequestID: %s] Submission failed: %v", requestID, err)

	message := session.Err()
	if message == "" {
		message = checkout.MsgSubmitFailure
	}

	var status int
	switch err {
	case checkout.ErrSessionClosed, checkout.ErrSubmissionInFlight, checkout.ErrWrongMethod,
		checkout.ErrMethodLocked, checkout.ErrSubscriptionBilling:
		status = http.StatusConflict
	case checkout.ErrValidationFailed, checkout.ErrCardFieldsInvalid, checkout.ErrTokenizationFailed:
		status = http.StatusUnprocessableEntity
	case checkout.ErrCardFormNotReady:
		status = http.StatusBadRequest
	case checkout.ErrGatewayFailure:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	utils.SendErrorResponse(w, status, message)
}

// CheckOrderStatus devolve o status corrente de um pedido. O storefront
// consulta este endpoint em loop durante o pix.
func (h *PaymentHandler) CheckOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(r.URL.Query().Get("orderId"))
	if orderID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "orderId é obrigatório.")
		return
	}

	status, err := h.db.GetOrderStatus(orderID)
	if err != nil {
		if err == database.ErrOrderNotFound {
			utils.SendErrorResponse(w, http.StatusNotFound, "Pedido não encontrado.")
			return
		}
		log.Printf("Error getting status for order %s: %v", orderID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data: models.OrderStatusResponse{
			OrderID: orderID,
			Status:  status,
		},
	})
}
