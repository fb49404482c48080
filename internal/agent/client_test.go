package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-intake-agent/internal/intake"
	"medical-intake-agent/internal/prescription"
)

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want intake.Update
	}{
		{
			name: "disease only",
			raw:  `{"extracted_disease":"fever and cough","language":"en"}`,
			want: intake.Update{Condition: strPtrTest("fever and cough"), Language: "en"},
		},
		{
			name: "medicines",
			raw:  `{"extracted_medicines":["Paracetamol","Azithromycin"],"language":"en"}`,
			want: intake.Update{Medications: []string{"Paracetamol", "Azithromycin"}, Language: "en"},
		},
		{
			name: "denial",
			raw:  `{"confirmation":false,"extracted_medicines":["Ibuprofen"],"language":"en"}`,
			want: intake.Update{Confirmation: boolPtrTest(false), Medications: []string{"Ibuprofen"}, Language: "en"},
		},
		{
			name: "no information",
			raw:  `{"language":"hi"}`,
			want: intake.Update{Language: "hi"},
		},
		{
			name: "fenced output",
			raw:  "```json\n{\"extracted_disease\":\"flu\",\"language\":\"DE\"}\n```",
			want: intake.Update{Condition: strPtrTest("flu"), Language: "de"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExtraction(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExtractionRejectsNonJSON(t *testing.T) {
	_, err := parseExtraction("Sure! The patient has a fever.")
	assert.Error(t, err)
}

func TestStripJSONFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripJSONFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence(`{"a":1}`))
}

func TestBuildTurnContext(t *testing.T) {
	q := intake.Query{
		State: intake.StateAwaitingConfirmation,
		Record: intake.Record{
			ReportedDisease: strPtrTest("fever"),
			Medications:     []string{"Paracetamol", "Azithromycin"},
		},
		Prescription: &prescription.Data{
			DoctorInfo: &prescription.DoctorInfo{DoctorName: "Dr. Rao"},
			Medicines:  []prescription.Medicine{{MedicineName: "Paracetamol"}},
		},
	}

	ctx := buildTurnContext(q)

	assert.Contains(t, ctx, "awaiting_confirmation")
	assert.Contains(t, ctx, "fever")
	assert.Contains(t, ctx, "Paracetamol, Azithromycin")
	assert.Contains(t, ctx, "Dr. Rao")
	assert.Contains(t, ctx, "Prescribed medicines: Paracetamol")
}

func strPtrTest(s string) *string { return &s }
func boolPtrTest(b bool) *bool    { return &b }
