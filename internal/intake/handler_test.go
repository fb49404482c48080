package intake

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTurnService struct {
	result  *TurnResult
	err     error
	gotReq  TurnRequest
	ttsData []byte
}

func (s *stubTurnService) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	s.gotReq = req
	return s.result, s.err
}

func (s *stubTurnService) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	return s.ttsData, nil
}

func newTestRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc))
	return r
}

func postChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/medical-chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeChatResponse(t *testing.T, rr *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandleMedicalChatRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubTurnService{})

	rr := postChat(t, router, "{not json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeChatResponse(t, rr)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.UpdatedMedicalInformation)
}

func TestHandleMedicalChatRejectsMissingInputs(t *testing.T) {
	svc := &stubTurnService{err: &InvalidInputError{Reason: "either message or audio must be provided"}}
	router := newTestRouter(svc)

	rr := postChat(t, router, `{"conversation_history": []}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeChatResponse(t, rr)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.UpdatedMedicalInformation)
}

func TestHandleMedicalChatRejectsBadBase64(t *testing.T) {
	router := newTestRouter(&stubTurnService{})

	rr := postChat(t, router, `{"audio_base64": "%%%not-base64%%%"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeChatResponse(t, rr)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "base64")
}

func TestHandleMedicalChatMapsTranscriptionError(t *testing.T) {
	svc := &stubTurnService{err: &TranscriptionError{Err: assert.AnError}}
	router := newTestRouter(svc)

	audio := base64.StdEncoding.EncodeToString([]byte("audio"))
	rr := postChat(t, router, `{"audio_base64": "`+audio+`"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeChatResponse(t, rr)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleMedicalChatHappyPath(t *testing.T) {
	disease := "fever and cough"
	svc := &stubTurnService{
		result: &TurnResult{
			Reply: "Thank you for sharing that.",
			Audio: []byte("mp3"),
			History: []Turn{
				{Role: RoleUser, Content: "I have a fever and cough"},
				{Role: RoleAssistant, Content: "Thank you for sharing that."},
			},
			Record:   Record{ReportedDisease: &disease},
			Complete: false,
		},
	}
	router := newTestRouter(svc)

	rr := postChat(t, router, `{
		"message": "I have a fever and cough",
		"conversation_history": [],
		"medical_information": null
	}`)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeChatResponse(t, rr)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "Thank you for sharing that.", resp.Response)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3")), resp.AudioResponseBase64)
	assert.Len(t, resp.ConversationHistory, 2)
	require.NotNil(t, resp.UpdatedMedicalInformation)
	assert.Equal(t, disease, *resp.UpdatedMedicalInformation.ReportedDisease)
	assert.False(t, resp.ConversationComplete)

	assert.Equal(t, "I have a fever and cough", svc.gotReq.Message)
}

func TestHandleMedicalChatDecodesAudio(t *testing.T) {
	svc := &stubTurnService{result: &TurnResult{Reply: "ok"}}
	router := newTestRouter(svc)

	audio := base64.StdEncoding.EncodeToString([]byte("raw-audio"))
	rr := postChat(t, router, `{"audio_base64": "`+audio+`", "audio_mime": "audio/wav"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []byte("raw-audio"), svc.gotReq.Audio)
	assert.Equal(t, "audio/wav", svc.gotReq.AudioMime)
}

func TestHandleMedicalChatReportsCompletion(t *testing.T) {
	svc := &stubTurnService{
		result: &TurnResult{
			Reply:    "Thank you, your information has been recorded.",
			Complete: true,
		},
	}
	router := newTestRouter(svc)

	rr := postChat(t, router, `{"message": "yes"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeChatResponse(t, rr)
	assert.True(t, resp.ConversationComplete)
}

func TestHandleTTS(t *testing.T) {
	svc := &stubTurnService{ttsData: []byte("mp3-bytes")}
	router := newTestRouter(svc)

	req := httptest.NewRequest("POST", "/tts", bytes.NewReader([]byte(`{"text": "hello"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "audio/mpeg", rr.Header().Get("Content-Type"))
	assert.Equal(t, []byte("mp3-bytes"), rr.Body.Bytes())
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(&stubTurnService{})

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "healthy")
}
