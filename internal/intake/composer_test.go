package intake

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposePerState(t *testing.T) {
	c := NewComposer(nil)
	rec := Record{
		ReportedDisease: strPtr("fever"),
		Medications:     []string{"Paracetamol", "Azithromycin"},
	}

	tests := []struct {
		state    State
		contains []string
	}{
		{StateAwaitingCondition, []string{"disease or illness", "symptoms"}},
		{StateAwaitingMedications, []string{"list all the medicines"}},
		{StateAwaitingConfirmation, []string{"Paracetamol", "Azithromycin", "correct"}},
		{StateComplete, []string{"recorded", "take care"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			reply := c.Compose(context.Background(), tt.state, rec, "en")
			for _, want := range tt.contains {
				assert.Contains(t, reply, want)
			}
		})
	}
}

func TestComposeConfirmationEnumeratesEveryMedication(t *testing.T) {
	c := NewComposer(nil)
	meds := []string{"Paracetamol 500mg", "Azithromycin", "Cetirizine", "Vitamin D3"}
	rec := Record{ReportedDisease: strPtr("flu"), Medications: meds}

	reply := c.Compose(context.Background(), StateAwaitingConfirmation, rec, "")

	for _, med := range meds {
		assert.Contains(t, reply, med)
	}
}

func TestComposeRecollectionVariantAfterDenial(t *testing.T) {
	c := NewComposer(nil)
	rec := Record{
		ReportedDisease:        strPtr("flu"),
		Medications:            []string{"Paracetamol"},
		MedicationConfirmation: boolPtr(false),
	}

	reply := c.Compose(context.Background(), StateAwaitingMedications, rec, "")

	assert.Contains(t, reply, "once more")
}

// Templates collect information; they must never suggest or prescribe
// treatment.
func TestComposeNeverContainsAdviceLanguage(t *testing.T) {
	c := NewComposer(nil)
	rec := Record{
		ReportedDisease: strPtr("fever"),
		Medications:     []string{"Paracetamol"},
	}
	adviceTerms := []string{
		"you should take", "i recommend", "i suggest", "try taking",
		"increase the dose", "stop taking", "diagnosis", "you probably have",
	}

	for _, state := range []State{StateAwaitingCondition, StateAwaitingMedications, StateAwaitingConfirmation, StateComplete} {
		reply := strings.ToLower(c.Compose(context.Background(), state, rec, "en"))
		for _, term := range adviceTerms {
			assert.NotContains(t, reply, term, "state %s", state)
		}
	}
}

func TestComposeTranslatesWhenLanguageSet(t *testing.T) {
	c := NewComposer(TranslatorFunc(func(ctx context.Context, text, language string) (string, error) {
		assert.Equal(t, "hi", language)
		return "[hi] " + text, nil
	}))

	reply := c.Compose(context.Background(), StateComplete, Record{}, "hi")
	assert.True(t, strings.HasPrefix(reply, "[hi] "))
}

func TestComposeFallsBackToEnglishOnTranslationFailure(t *testing.T) {
	c := NewComposer(TranslatorFunc(func(ctx context.Context, text, language string) (string, error) {
		return "", errors.New("translation unavailable")
	}))

	reply := c.Compose(context.Background(), StateComplete, Record{}, "hi")
	assert.Contains(t, reply, "recorded")
}

func TestComposeSkipsTranslatorForEnglish(t *testing.T) {
	called := false
	c := NewComposer(TranslatorFunc(func(ctx context.Context, text, language string) (string, error) {
		called = true
		return text, nil
	}))

	_ = c.Compose(context.Background(), StateComplete, Record{}, "en")
	_ = c.Compose(context.Background(), StateComplete, Record{}, "")
	assert.False(t, called)
}
