package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"cardsync/internal/card/model"
	"cardsync/internal/card/service"
	"cardsync/middleware"
	"cardsync/pkg/logger"

	"github.com/gorilla/mux"
)

type CardHandler struct {
	Service *service.CardService
}

func NewCardHandler(service *service.CardService) *CardHandler {
	return &CardHandler{Service: service}
}

// identity pulls the caller from the auth middleware context and rejects
// roles outside the closed admin/editor set.
func identity(w http.ResponseWriter, r *http.Request) (string, model.Role, bool) {
	userID := r.Context().Value(middleware.UserIDKey).(string)
	role, err := model.ParseRole(r.Context().Value(middleware.RoleKey).(string))
	if err != nil {
		http.Error(w, "Forbidden: unrecognized role", http.StatusForbidden)
		return "", "", false
	}
	return userID, role, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Sugar.Errorf("Unexpected error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.Service.GetCard(mux.Vars(r)["cardId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, card)
}

func (h *CardHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.SaveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == nil {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.Persist(mux.Vars(r)["cardId"], userID, role, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

func (h *CardHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identity(w, r)
	if !ok {
		return
	}

	access, err := h.Service.CheckAccess(mux.Vars(r)["cardId"], userID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, access)
}

func (h *CardHandler) GrantAccess(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identity(w, r)
	if !ok {
		return
	}

	var req model.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserEmail == "" {
		http.Error(w, "user_email is required", http.StatusBadRequest)
		return
	}

	grant, err := h.Service.Grant(mux.Vars(r)["cardId"], userID, role, req.UserEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, grant)
}

func (h *CardHandler) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identity(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	if err := h.Service.Revoke(vars["cardId"], userID, role, vars["userId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Edit access revoked"))
}

func (h *CardHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.Service.ListGrants(mux.Vars(r)["cardId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, grants)
}

func (h *CardHandler) AvailableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.AvailableUsers(mux.Vars(r)["cardId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users)
}
