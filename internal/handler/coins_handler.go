package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"linguameet/internal/middleware"
	"linguameet/internal/model"
	"linguameet/pkg/apierror"
)

type coinsService interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Transfer(ctx context.Context, senderID string, req model.TransferRequest) (model.TransferResult, error)
	Credit(ctx context.Context, req model.CreditRequest) (model.CreditResult, error)
}

type CoinsHandler struct {
	service coinsService
}

func NewCoinsHandler(service coinsService) *CoinsHandler {
	return &CoinsHandler{service: service}
}

func (h *CoinsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized())
		return
	}

	balance, err := h.service.GetBalance(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.BalanceResponse{UserID: user.ID, Balance: balance}, nil)
}

func (h *CoinsHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized())
		return
	}

	var payload model.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	// Amount and recipient shape are checked here so the service only
	// ever sees a positive integer amount.
	payload.RecipientEmail = strings.TrimSpace(payload.RecipientEmail)
	if _, err := mail.ParseAddress(payload.RecipientEmail); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid recipient email", "recipient_email", http.StatusBadRequest))
		return
	}
	if payload.Amount <= 0 {
		writeError(w, apierror.New("BAD_REQUEST", "amount must be a positive integer", "amount", http.StatusBadRequest))
		return
	}

	result, err := h.service.Transfer(r.Context(), user.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

// Credit sits behind the internal-key middleware; end users cannot
// reach it.
func (h *CoinsHandler) Credit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	payload.UserID = strings.TrimSpace(payload.UserID)
	if payload.UserID == "" {
		writeError(w, apierror.New("BAD_REQUEST", "user_id is required", "user_id", http.StatusBadRequest))
		return
	}
	if payload.Amount <= 0 {
		writeError(w, apierror.New("BAD_REQUEST", "amount must be a positive integer", "amount", http.StatusBadRequest))
		return
	}

	result, err := h.service.Credit(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}
