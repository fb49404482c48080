package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"medical-intake-agent/internal/intake"
)

const extractionSystemPrompt = `You are the information-extraction stage of a medical intake agent.
You read ONE patient utterance and pull out structured fields. You never give medical advice.

Respond ONLY with valid JSON. No text outside the JSON. Format strictly:
{"extracted_disease":"...","extracted_medicines":["..."],"confirmation":true,"language":"en"}

Rules:
- Include "extracted_disease" only if the utterance states the illness or symptoms.
- Include "extracted_medicines" only if the utterance names prescribed medicines; keep the names exactly as spoken.
- Include "confirmation" (true/false) only if the utterance clearly confirms or denies the medication list read back to the patient.
- Always include "language": the ISO 639-1 code of the language the patient wrote or spoke in.
- If the utterance carries no usable information, return {"language":"..."} only.
- If you break the format the answer will be discarded.`

// OpenAIClient backs the language-understanding capabilities of the
// intake service: field extraction, reply translation, prescription OCR
// and the medicine safety check.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	visionModel string
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}
	visionModel := os.Getenv("OPENAI_MODEL_VISION")
	if visionModel == "" {
		visionModel = openai.GPT4o
	}
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		visionModel: visionModel,
	}
}

type extractionPayload struct {
	ExtractedDisease   *string  `json:"extracted_disease"`
	ExtractedMedicines []string `json:"extracted_medicines"`
	Confirmation       *bool    `json:"confirmation"`
	Language           string   `json:"language"`
}

// Extract pulls intake fields out of a single utterance. The current
// dialogue stage and the collected record go along as context so the model
// focuses on the field being asked for.
func (c *OpenAIClient) Extract(ctx context.Context, q intake.Query) (intake.Update, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: extractionSystemPrompt},
		{Role: openai.ChatMessageRoleSystem, Content: buildTurnContext(q)},
	}
	for _, t := range q.History {
		role := openai.ChatMessageRoleUser
		if t.Role == intake.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: q.Utterance})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: 0.1,
	})
	if err != nil {
		return intake.Update{}, fmt.Errorf("extraction request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return intake.Update{}, nil
	}

	return parseExtraction(resp.Choices[0].Message.Content)
}

// Translate renders text into the given language, keeping medicine names
// and other proper nouns unchanged.
func (c *OpenAIClient) Translate(ctx context.Context, text, language string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate the user's message into the language with ISO 639-1 code %q. "+
					"Keep medicine names and proper nouns exactly as written. Reply with the translation only.", language),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildTurnContext summarizes the dialogue stage, the record so far and
// any uploaded prescription for the extraction prompt.
func buildTurnContext(q intake.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CURRENT STAGE: %s\n", q.State)

	b.WriteString("COLLECTED INFORMATION:\n")
	if q.Record.ReportedDisease != nil {
		fmt.Fprintf(&b, "Disease/Symptoms: %s\n", *q.Record.ReportedDisease)
	}
	if len(q.Record.Medications) > 0 {
		fmt.Fprintf(&b, "Medications: %s\n", strings.Join(q.Record.Medications, ", "))
	}
	if q.Record.MedicationConfirmation != nil {
		fmt.Fprintf(&b, "Medications confirmed: %t\n", *q.Record.MedicationConfirmation)
	}

	if q.Prescription != nil {
		b.WriteString("PRESCRIPTION DATA AVAILABLE:\n")
		if q.Prescription.DoctorInfo != nil {
			fmt.Fprintf(&b, "Doctor: %s\n", q.Prescription.DoctorInfo.DoctorName)
		}
		if names := q.Prescription.MedicineNames(); len(names) > 0 {
			fmt.Fprintf(&b, "Prescribed medicines: %s\n", strings.Join(names, ", "))
		}
	}
	return b.String()
}

func parseExtraction(raw string) (intake.Update, error) {
	var payload extractionPayload
	if err := json.Unmarshal([]byte(stripJSONFence(raw)), &payload); err != nil {
		return intake.Update{}, fmt.Errorf("extraction response is not valid JSON: %w", err)
	}
	return intake.Update{
		Condition:    payload.ExtractedDisease,
		Medications:  payload.ExtractedMedicines,
		Confirmation: payload.Confirmation,
		Language:     strings.ToLower(strings.TrimSpace(payload.Language)),
	}, nil
}

// stripJSONFence unwraps a markdown code fence around a JSON body. Models
// occasionally wrap their output despite the format guard.
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
