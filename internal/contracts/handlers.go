// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package contracts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers holds dependencies for the contracts HTTP API.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handler set.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// Routes mounts the contracts API onto a router.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/contracts", h.CreateContract)
	r.Put("/contracts", h.ApproveContract)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// CreateContract handles POST /contracts
func (h *Handlers) CreateContract(w http.ResponseWriter, r *http.Request) {
	var input CreateContractInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload", "context": err.Error()})
		return
	}

	contract, err := h.service.CreateContract(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create contract", "context": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, contract)
}

// ApproveContract handles PUT /contracts
func (h *Handlers) ApproveContract(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PropertyID string `json:"property_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload", "context": err.Error()})
		return
	}

	contract, err := h.service.ApproveContract(r.Context(), input.PropertyID)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrContractNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No contract found for property"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to approve contract", "context": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, contract)
}
