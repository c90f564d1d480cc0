package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"vitrine-checkout-api/database"
	"vitrine-checkout-api/models"
	"vitrine-checkout-api/services/checkout"
	"vitrine-checkout-api/utils"
)

const (
	checkoutCookieName = "vitrine_checkout"
	sessionIDKey       = "sid"
)

// CheckoutHandler expõe o ciclo de vida da sessão de checkout. A sessão
// fica amarrada a um cookie; o storefront também pode mandar ?sid= (ou o
// campo sid no corpo), o que cobre clientes sem cookie.
type CheckoutHandler struct {
	manager *checkout.Manager
	store   *sessions.CookieStore
}

func NewCheckoutHandler(manager *checkout.Manager, sessionSecret, sessionDomain string, maxAge int) *CheckoutHandler {
	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   sessionDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}

	return &CheckoutHandler{
		manager: manager,
		store:   store,
	}
}

type openCheckoutRequest struct {
	ServiceID string `json:"serviceId,omitempty"`
	CourseID  string `json:"courseId,omitempty"`
}

// OpenCheckout abre uma sessão para o item referenciado e grava o cookie
func (h *CheckoutHandler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	var req openCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, err := h.manager.Open(checkout.ItemRef{
		ServiceID: req.ServiceID,
		CourseID:  req.CourseID,
	})
	if err != nil {
		switch err {
		case checkout.ErrItemRefInvalid:
			utils.SendErrorResponse(w, http.StatusBadRequest, "Informe exatamente um serviceId ou courseId.")
		case database.ErrItemNotFound:
			// Item sumiu do catálogo: a única saída é voltar
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(models.APIResponse{
				Status:  "error",
				Message: "Item não encontrado. Ele pode ter sido removido do catálogo.",
				Data:    map[string]string{"backTo": "/catalogo"},
			})
		default:
			log.Printf("[RequestID: %s] Failed to open checkout: %v", requestID, err)
			utils.SendErrorResponse(w, http.StatusInternalServerError, "Não foi possível iniciar o checkout.")
		}
		return
	}

	cookie, _ := h.store.Get(r, checkoutCookieName)
	cookie.Values[sessionIDKey] = session.ID()
	if err := cookie.Save(r, w); err != nil {
		log.Printf("[RequestID: %s] Failed to save session cookie: %v", requestID, err)
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   session.Snapshot(),
	})
}

// GetCheckout devolve o snapshot da sessão corrente
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(r, "")
	if !ok {
		utils.SendErrorResponse(w, http.StatusNotFound, "Sessão de checkout não encontrada ou expirada.")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   session.Snapshot(),
	})
}

type selectMethodRequest struct {
	SessionID string               `json:"sid,omitempty"`
	Method    models.PaymentMethod `json:"method"`
}

// SelectMethod troca o método de pagamento da sessão
func (h *CheckoutHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	var req selectMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, ok := h.resolveSession(r, req.SessionID)
	if !ok {
		utils.SendErrorResponse(w, http.StatusNotFound, "Sessão de checkout não encontrada ou expirada.")
		return
	}

	if err := session.SelectMethod(req.Method); err != nil {
		status := http.StatusBadRequest
		if err == checkout.ErrMethodLocked {
			status = http.StatusConflict
		}
		utils.SendErrorResponse(w, status, session.Err())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   session.Snapshot(),
	})
}

type setCustomerRequest struct {
	SessionID string               `json:"sid,omitempty"`
	Customer  models.CustomerInput `json:"customer"`
}

// SetCustomer atualiza os dados do cliente na sessão
func (h *CheckoutHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req setCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, ok := h.resolveSession(r, req.SessionID)
	if !ok {
		utils.SendErrorResponse(w, http.StatusNotFound, "Sessão de checkout não encontrada ou expirada.")
		return
	}

	if err := session.SetCustomer(req.Customer); err != nil {
		utils.SendErrorResponse(w, http.StatusConflict, "A sessão de checkout já foi encerrada.")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   session.Snapshot(),
	})
}

type cardFormEventRequest struct {
	SessionID string `json:"sid,omitempty"`
	Event     string `json:"event"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message,omitempty"`
}

// CardFormEvent recebe os callbacks do widget de campos seguros:
// mounted, mount_error, field_error e field_ok
func (h *CheckoutHandler) CardFormEvent(w http.ResponseWriter, r *http.Request) {
	var req cardFormEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	session, ok := h.resolveSession(r, req.SessionID)
	if !ok {
		utils.SendErrorResponse(w, http.StatusNotFound, "Sessão de checkout não encontrada ou expirada.")
		return
	}

	form := session.CardForm()
	if form == nil {
		utils.SendErrorResponse(w, http.StatusConflict, "O formulário de cartão não está ativo nesta sessão.")
		return
	}

	switch req.Event {
	case "mounted":
		form.HandleMounted()
	case "mount_error":
		form.HandleMountError(req.Message)
	case "field_error":
		if req.Field == "" {
			utils.SendErrorResponse(w, http.StatusBadRequest, "field é obrigatório para field_error.")
			return
		}
		form.HandleFieldError(req.Field, req.Message)
	case "field_ok":
		if req.Field == "" {
			utils.SendErrorResponse(w, http.StatusBadRequest, "field é obrigatório para field_ok.")
			return
		}
		form.ClearFieldError(req.Field)
	default:
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Evento desconhecido: %s", req.Event))
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"cardFormPhase": form.Phase().String(),
		},
	})
}

// CloseCheckout encerra a sessão e derruba o polling junto
func (h *CheckoutHandler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(r, "")
	if !ok {
		utils.SendErrorResponse(w, http.StatusNotFound, "Sessão de checkout não encontrada ou expirada.")
		return
	}

	h.manager.Close(session.ID())

	cookie, _ := h.store.Get(r, checkoutCookieName)
	cookie.Options.MaxAge = -1
	if err := cookie.Save(r, w); err != nil {
		log.Printf("Failed to expire session cookie: %v", err)
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Checkout encerrado.",
	})
}

// resolveSession localiza a sessão pelo corpo (sid), query string ou
// cookie, nessa ordem
func (h *CheckoutHandler) resolveSession(r *http.Request, bodySID string) (*checkout.Session, bool) {
	if bodySID != "" {
		if s, ok := h.manager.Get(bodySID); ok {
			return s, true
		}
	}

	if sid := r.URL.Query().Get("sid"); sid != "" {
		if s, ok := h.manager.Get(sid); ok {
			return s, true
		}
	}

	cookie, err := h.store.Get(r, checkoutCookieName)
	if err == nil {
		if sid, ok := cookie.Values[sessionIDKey].(string); ok && sid != "" {
			return h.manager.Get(sid)
		}
	}

	return nil, false
}
