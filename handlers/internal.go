package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"vitrine-checkout-api/models"
	"vitrine-checkout-api/queue"
	"vitrine-checkout-api/services/auth"
	"vitrine-checkout-api/utils"
)

// InternalHandler expõe os endpoints de operação: troca do segredo
// compartilhado por token, inspeção da fila de falhas e retry manual.
type InternalHandler struct {
	jwtService     *auth.JWTService
	queue          *queue.Queue
	internalSecret string
}

func NewInternalHandler(jwtService *auth.JWTService, q *queue.Queue, internalSecret string) *InternalHandler {
	return &InternalHandler{
		jwtService:     jwtService,
		queue:          q,
		internalSecret: internalSecret,
	}
}

// GenerateToken troca o segredo compartilhado (header X-Internal-Secret)
// por um token de curta duração para os demais endpoints internos
func (h *InternalHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Internal-Secret")
	if h.internalSecret == "" || secret != h.internalSecret {
		log.Printf("Invalid or missing internal secret from %s", r.RemoteAddr)
		utils.SendErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Subject string `json:"subject"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Subject == "" {
		req.Subject = "internal"
	}

	token, err := h.jwtService.GenerateInternalToken(req.Subject)
	if err != nil {
		log.Printf("Error generating internal token: %v", err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"token":      token,
			"expires_in": int(auth.InternalTokenDuration.Seconds()),
		},
	})
}

// ListFailedJobs lista os jobs que esgotaram os retries
func (h *InternalHandler) ListFailedJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListFailedJobs(r.Context())
	if err != nil {
		log.Printf("Error listing failed jobs: %v", err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"count": len(jobs),
			"jobs":  jobs,
		},
	})
}

// RetryJob reenfileira manualmente um job falho
func (h *InternalHandler) RetryJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	if jobID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Job id is required")
		return
	}

	if err := h.queue.RetryJob(r.Context(), jobID); err != nil {
		log.Printf("Error retrying job %s: %v", jobID, err)
		utils.SendErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Job requeued",
	})
}
