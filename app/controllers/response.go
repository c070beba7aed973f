package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope wraps every API response.
type envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("write json response")
	}
}

func sendSuccess(w http.ResponseWriter, status int, data interface{}) {
	sendJSON(w, status, envelope{Status: statusSuccess, Data: data})
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, envelope{Status: statusError, Message: message})
}
