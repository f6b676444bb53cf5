// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handlers holds dependencies for the web listings HTTP API.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handler set.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// Routes mounts the listings API onto a router.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/properties", h.AddProperty)
	r.Get("/properties/{country}/{city}", h.ListProperties)
	r.Get("/properties/{country}/{city}/{street}/{number}", h.GetProperty)
	r.Post("/properties/approvals", h.RequestApproval)
	r.Get("/search/{country}/{city}", h.Search)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// AddProperty handles POST /properties
func (h *Handlers) AddProperty(w http.ResponseWriter, r *http.Request) {
	var input AddPropertyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload", "context": err.Error()})
		return
	}

	property, err := h.service.AddProperty(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to add property", "context": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"property_id": property.PropertyID()})
}

// ListProperties handles GET /properties/{country}/{city}
func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.service.ListProperties(r.Context(),
		chi.URLParam(r, "country"), chi.URLParam(r, "city"))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list properties", "context": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, properties)
}

// GetProperty handles GET /properties/{country}/{city}/{street}/{number}
func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Street number must be numeric"})
		return
	}

	property, err := h.service.GetProperty(r.Context(),
		chi.URLParam(r, "country"), chi.URLParam(r, "city"), chi.URLParam(r, "street"), number)
	if err != nil {
		if errors.Is(err, ErrPropertyNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No property at this address"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load property", "context": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, property)
}

// RequestApproval handles POST /properties/approvals
func (h *Handlers) RequestApproval(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PropertyID string `json:"property_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload", "context": err.Error()})
		return
	}

	property, err := h.service.RequestApproval(r.Context(), input.PropertyID)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrPropertyNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No property at this address"})
		case errors.Is(err, ErrAlreadyRequested):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to request approval", "context": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, property)
}

// Search handles GET /search/{country}/{city}?street=
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	properties, err := h.service.Search(r.Context(),
		chi.URLParam(r, "country"), chi.URLParam(r, "city"), r.URL.Query().Get("street"))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Search failed", "context": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, properties)
}
