package intake

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medical-intake-agent/internal/prescription"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type chatRequest struct {
	Message             string             `json:"message,omitempty"`
	AudioBase64         string             `json:"audio_base64,omitempty"`
	AudioMime           string             `json:"audio_mime,omitempty"`
	ConversationHistory []Turn             `json:"conversation_history"`
	MedicalInformation  *Record            `json:"medical_information,omitempty"`
	PrescriptionData    *prescription.Data `json:"prescription_data,omitempty"`
}

type chatResponse struct {
	Success                   bool    `json:"success"`
	Response                  string  `json:"response,omitempty"`
	AudioResponseBase64       string  `json:"audio_response_base64,omitempty"`
	ConversationHistory       []Turn  `json:"conversation_history,omitempty"`
	UpdatedMedicalInformation *Record `json:"updated_medical_information,omitempty"`
	ConversationComplete      bool    `json:"conversation_complete"`
	Error                     string  `json:"error,omitempty"`
}

// HandleMedicalChat processes one intake conversation turn. Exactly one of
// message/audio_base64 is required; the caller round-trips
// conversation_history and medical_information on every call.
func (h *Handler) HandleMedicalChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeChatError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var audio []byte
	if req.AudioBase64 != "" {
		var err error
		audio, err = base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			writeChatError(w, http.StatusBadRequest, "audio_base64 is not valid base64")
			return
		}
	}

	result, err := h.svc.ProcessTurn(r.Context(), TurnRequest{
		Message:      req.Message,
		Audio:        audio,
		AudioMime:    req.AudioMime,
		History:      req.ConversationHistory,
		Record:       req.MedicalInformation,
		Prescription: req.PrescriptionData,
	})
	if err != nil {
		var invalid *InvalidInputError
		var transcription *TranscriptionError
		switch {
		case errors.As(err, &invalid):
			writeChatError(w, http.StatusBadRequest, invalid.Error())
		case errors.As(err, &transcription):
			writeChatError(w, http.StatusUnprocessableEntity, transcription.Error())
		default:
			log.Printf("intake: turn processing failed: %v", err)
			writeChatError(w, http.StatusInternalServerError, "turn processing failed")
		}
		return
	}

	resp := chatResponse{
		Success:                   true,
		Response:                  result.Reply,
		ConversationHistory:       result.History,
		UpdatedMedicalInformation: &result.Record,
		ConversationComplete:      result.Complete,
	}
	if len(result.Audio) > 0 {
		resp.AudioResponseBase64 = base64.StdEncoding.EncodeToString(result.Audio)
	}
	writeJSON(w, http.StatusOK, resp)
}

type ttsRequest struct {
	Text string `json:"text"`
}

func (h *Handler) HandleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	audio, err := h.svc.SynthesizeSpeech(r.Context(), req.Text)
	if err != nil {
		http.Error(w, "TTS failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Medical intake service is running",
	})
}

func writeChatError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, chatResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("intake: failed to encode response: %v", err)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/medical-chat", h.HandleMedicalChat)
	r.Post("/tts", h.HandleTTS)
	r.Get("/health", h.HandleHealth)
}
