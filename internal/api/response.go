// Cinegraph - Movie Catalog and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Package api serves the Cinegraph HTTP API on a Chi router. All endpoints
// use a standardized JSON response envelope.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinegraph/internal/catalog"
	"github.com/tomtom215/cinegraph/internal/logging"
	"github.com/tomtom215/cinegraph/internal/validation"
)

// APIResponse is the response wrapper for all API endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError carries error details.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIMeta carries response metadata.
type APIMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Count     *int      `json:"count,omitempty"`
}

// Error codes for API responses.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// respondData writes a success envelope with the given payload.
func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, status, &APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			RequestID: RequestIDFromContext(r.Context()),
			Timestamp: time.Now().UTC(),
		},
	})
}

// respondList writes a success envelope for list payloads with a count.
func respondList(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	writeJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			RequestID: RequestIDFromContext(r.Context()),
			Timestamp: time.Now().UTC(),
			Count:     &count,
		},
	})
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	writeJSON(w, status, &APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: RequestIDFromContext(r.Context()),
		},
	})
}

// respondDomainError maps catalog and validation errors onto HTTP statuses:
// validation failures are 400, unknown entities 404, duplicate usernames
// 409, anything else 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed,
			"request validation failed", validationDetails(verr))
	case errors.Is(err, catalog.ErrUserNotFound),
		errors.Is(err, catalog.ErrMovieNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, catalog.ErrUsernameTaken):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, err.Error(), nil)
	default:
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError,
			"internal server error", nil)
	}
}

type validationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func validationDetails(verr *validation.RequestValidationError) []validationDetail {
	fieldErrs := verr.Errors()
	details := make([]validationDetail, 0, len(fieldErrs))
	for i := range fieldErrs {
		details = append(details, validationDetail{
			Field:   fieldErrs[i].Field(),
			Message: fieldErrs[i].Error(),
		})
	}
	return details
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON reads the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
