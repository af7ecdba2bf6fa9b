package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/usecase"
)

type ErrorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []usecase.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeProblem(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeError maps use case errors onto HTTP statuses. Technical details stay
// in the log; the client only sees the code and a generic message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, domainStatus(de.Code), ErrorResponse{Code: de.Code, Message: de.Message, Fields: de.Fields})
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		logger.Error("request failed", zap.String("code", te.Code), zap.Error(err))
		status := http.StatusInternalServerError
		message := "internal error"
		if te.Code == usecase.CodeAnalysisService {
			status = http.StatusBadGateway
			message = "lead analysis is unavailable, try again later"
		}
		writeProblem(w, status, te.Code, message)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	writeProblem(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}

func domainStatus(code string) int {
	switch code {
	case usecase.CodeValidation:
		return http.StatusBadRequest
	case usecase.CodeLeadNotFound, usecase.CodeNotificationNotFound:
		return http.StatusNotFound
	case usecase.CodeLeadNotAvailable, usecase.CodeAlreadySold:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
