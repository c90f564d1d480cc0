package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"vitrine-checkout-api/database"
	"vitrine-checkout-api/models"
	"vitrine-checkout-api/services/payment"
	"vitrine-checkout-api/types"
	"vitrine-checkout-api/utils"
)

// SubscriptionHandler cria assinaturas de cobrança recorrente. A adesão é
// concluída no checkout externo do gateway; daqui sai apenas a URL.
type SubscriptionHandler struct {
	db            *database.Connection
	gateway       payment.Gateway
	publicBaseURL string
}

func NewSubscriptionHandler(db *database.Connection, gw payment.Gateway, publicBaseURL string) *SubscriptionHandler {
	return &SubscriptionHandler{
		db:            db,
		gateway:       gw,
		publicBaseURL: publicBaseURL,
	}
}

// CreateSubscription valida o item e o cliente e cria a pré-aprovação no
// gateway
func (h *SubscriptionHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	var req models.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if (req.ServiceID == "") == (req.CourseID == "") {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Informe exatamente um serviceId ou courseId.")
		return
	}

	var (
		item *models.PurchasableItem
		err  error
	)
	if req.ServiceID != "" {
		item, err = h.db.GetServiceItem(req.ServiceID)
	} else {
		item, err = h.db.GetCourseItem(req.CourseID)
	}
	if err != nil {
		if err == database.ErrItemNotFound {
			utils.SendErrorResponse(w, http.StatusNotFound, "Item não encontrado.")
			return
		}
		log.Printf("[RequestID: %s] Failed to load item: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if item.BillingType != models.BillingSubscription {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Este item não é vendido por assinatura.")
		return
	}

	if err := payment.ValidateCustomer(&req.CustomerData, models.BillingSubscription); err != nil {
		utils.SendErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	checkoutURL, err := h.gateway.CreatePreapproval(r.Context(), &types.PreapprovalRequest{
		Reason:      item.Title,
		Amount:      item.MonthlyPrice,
		PayerEmail:  req.CustomerData.Email,
		ExternalRef: uuid.New().String(),
		BackURL:     h.publicBaseURL + "/checkout/success",
	})
	if err != nil {
		log.Printf("[RequestID: %s] Failed to create preapproval for %s %s: %v",
			requestID, item.Kind, item.ID, err)
		utils.SendErrorResponse(w, http.StatusBadGateway, "Não foi possível iniciar a assinatura. Tente novamente.")
		return
	}

	log.Printf("[RequestID: %s] Preapproval created for %s %s", requestID, item.Kind, item.ID)

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data: models.SubscriptionResponse{
			CheckoutURL: checkoutURL,
		},
	})
}
