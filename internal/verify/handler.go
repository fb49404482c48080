package verify

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

type verifyRequest struct {
	DoctorName         string `json:"doctor_name"`
	RegistrationNumber string `json:"registration_number"`
	MedicalCouncil     string `json:"medical_council,omitempty"`
}

// HandleVerifyDoctor checks a prescriber against the NMC register.
func (h *Handler) HandleVerifyDoctor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	log.Printf("verify: checking doctor %q, reg no %q", req.DoctorName, req.RegistrationNumber)

	result, err := h.client.VerifyDoctor(r.Context(), req.DoctorName, req.RegistrationNumber, req.MedicalCouncil)
	if err != nil {
		log.Printf("verify: NMC lookup failed: %v", err)
		http.Error(w, "Doctor verification failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("verify: failed to encode response: %v", err)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/verify-doctor", h.HandleVerifyDoctor)
}
