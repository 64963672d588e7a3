package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type subscribeRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type subscribeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SubscribeHandler is the subscription relay: it validates the payload,
// forwards it to the contacts API, and reports success even when the
// downstream call fails or is unconfigured. Only a malformed body (missing
// email or phone) is a client-visible failure.
func SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeSubscribeJSON(w, http.StatusMethodNotAllowed, subscribeResponse{
			Success: false,
			Error:   "Method not allowed",
		})
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = subscribeRequest{}
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Email == "" || req.Phone == "" {
		writeSubscribeJSON(w, http.StatusBadRequest, subscribeResponse{
			Success: false,
			Error:   "Email and phone are required",
		})
		return
	}

	if !contactsClient.Configured() {
		logger.Warn("marketing api key not configured; acknowledging signup without forwarding")
	} else if err := contactsClient.Upsert(r.Context(), req.Email, req.Phone); err != nil {
		// the gate must never be blocked by a marketing outage
		logger.Error("contacts upsert", zap.Error(err))
	}

	writeSubscribeJSON(w, http.StatusOK, subscribeResponse{
		Success: true,
		Message: "Subscribed successfully",
	})
}

func writeSubscribeJSON(w http.ResponseWriter, status int, resp subscribeResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
