package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"medical-intake-agent/internal/intake"
)

const defaultSTTServiceURL = "http://tts:8000/transcribe"

type whisperClient struct {
	url        string
	httpClient *http.Client
}

// NewWhisperClient builds a transcription client against the local
// Whisper service. The endpoint can be overridden with WHISPER_URL.
func NewWhisperClient() intake.Transcriber {
	url := os.Getenv("WHISPER_URL")
	if url == "" {
		url = defaultSTTServiceURL
	}
	return &whisperClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type sttResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe sends the audio to the Whisper service and returns the text
// along with the language Whisper detected.
func (c *whisperClient) Transcribe(ctx context.Context, audio []byte, mime string) (string, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", fileNameForMime(mime))
	if err != nil {
		return "", "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", "", err
	}
	if err := writer.Close(); err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, body)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("STT API error: %s - %s", resp.Status, string(respBody))
	}

	var result sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", err
	}

	return result.Text, result.Language, nil
}

func fileNameForMime(mime string) string {
	switch {
	case strings.Contains(mime, "mpeg"), strings.Contains(mime, "mp3"):
		return "audio.mp3"
	case strings.Contains(mime, "ogg"):
		return "audio.ogg"
	default:
		return "audio.wav"
	}
}
