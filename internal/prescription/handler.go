package prescription

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Uploads over 10MB are rejected, matching the client-side contract.
const maxUploadSize = 10 << 20

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type ocrResponse struct {
	Success bool   `json:"success"`
	Data    *Data  `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleUpload accepts a prescription document (multipart field "file")
// and returns the extracted structured data.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeOCRError(w, http.StatusBadRequest, "file too large or malformed multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeOCRError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	mime := header.Header.Get("Content-Type")
	if !allowedUploadTypes[mime] {
		writeOCRError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid file type, allowed: PDF, JPEG, JPG, PNG; got: %s", mime))
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeOCRError(w, http.StatusInternalServerError, "failed to read uploaded file")
		return
	}

	log.Printf("prescription: processing %s (%s, %d bytes)", header.Filename, mime, buf.Len())

	data, err := h.svc.Extract(r.Context(), buf.Bytes(), mime)
	if err != nil {
		writeJSON(w, http.StatusOK, ocrResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ocrResponse{Success: true, Data: data})
}

type safetyRequest struct {
	Medicines []string `json:"medicines"`
}

// HandleSafetyCheck checks a list of medicine names against the
// regulatory denylist.
func (h *Handler) HandleSafetyCheck(w http.ResponseWriter, r *http.Request) {
	var req safetyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	results, err := h.svc.CheckSafety(r.Context(), req.Medicines)
	if err != nil {
		log.Printf("prescription: safety check failed: %v", err)
		http.Error(w, "Safety check failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func writeOCRError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ocrResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("prescription: failed to encode response: %v", err)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/upload-prescription", h.HandleUpload)
	r.Post("/check-medicine-safety", h.HandleSafetyCheck)
}
