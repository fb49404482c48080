package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"medical-intake-agent/internal/prescription"
)

const ocrPrompt = `Extract the details of the patient, doctor info and all the medicines prescribed here.

Make a JSON output with the following 3 keys with data within them:

1. "doctor_info": hospital_name, hospital_address, doctor_name, registration_number
2. "patient_info": name, age, patient_id, date
3. "medicines": an array of medicine objects, each containing:
   - medicine_name
   - dosage (e.g. "500mg", "10ml")
   - dosage_instruction (e.g. "1-0-1", "2 times daily")
   - timing: "AF" (after food) or "BF" (before food)
   - duration (e.g. "5 days", "1 week")

Return ONLY valid JSON, no additional text or markdown formatting.`

const safetySystemPrompt = `You are a medical regulatory assistant specializing in Indian pharmaceutical regulations.
Analyze a list of medicines and determine if any of them are banned in India, withdrawn from sale,
or classified as a narcotic or psychotropic substance under the NDPS Act.

Output a JSON array of objects, nothing else:
[{"medicine_name":"name from input","flagged":true}]

"flagged" is true if the medicine is banned, restricted or withdrawn, otherwise false.
If a medicine is a combination, check whether the specific combination is banned.`

// ExtractPrescription runs OCR over a prescription image through the
// vision model. mime must be an image type; PDFs need rasterizing before
// they reach this client.
func (c *OpenAIClient) ExtractPrescription(ctx context.Context, file []byte, mime string) (*prescription.Data, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(file))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
					{Type: openai.ChatMessagePartTypeText, Text: ocrPrompt},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("prescription OCR request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("prescription OCR returned no output")
	}

	raw := stripJSONFence(resp.Choices[0].Message.Content)
	var data prescription.Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to parse OCR output: %w", err)
	}
	return &data, nil
}

// CheckMedicines asks the regulatory model whether any of the medicines
// are banned, withdrawn or scheduled substances.
func (c *OpenAIClient) CheckMedicines(ctx context.Context, medicines []string) ([]prescription.SafetyResult, error) {
	if len(medicines) == 0 {
		return nil, nil
	}

	input, err := json.Marshal(medicines)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: safetySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Analyze the following medicines:\n" + string(input)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("medicine safety request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("medicine safety check returned no output")
	}

	var results []prescription.SafetyResult
	if err := json.Unmarshal([]byte(stripJSONFence(resp.Choices[0].Message.Content)), &results); err != nil {
		return nil, fmt.Errorf("failed to parse safety check output: %w", err)
	}
	return results, nil
}
