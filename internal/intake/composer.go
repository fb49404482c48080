package intake

import (
	"context"
	"log"
	"strings"
)

// Translator renders a reply in the patient's language. It is an external
// generation capability; a failed translation falls back to English.
type Translator interface {
	Translate(ctx context.Context, text, language string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text, language string) (string, error)

func (f TranslatorFunc) Translate(ctx context.Context, text, language string) (string, error) {
	return f(ctx, text, language)
}

// Composer renders the next prompt for a dialogue stage. One deterministic
// template per stage; the confirmation template always enumerates the full
// medication list so the patient knows exactly what they are confirming.
// Templates collect information only — they never suggest or prescribe
// treatment.
type Composer struct {
	translator Translator
}

func NewComposer(translator Translator) *Composer {
	return &Composer{translator: translator}
}

// Compose builds the reply for the given stage and record. language is an
// ISO code; empty or "en" keeps the canonical English text. Translation
// failures are soft and fall back to English.
func (c *Composer) Compose(ctx context.Context, state State, rec Record, language string) string {
	var reply string
	switch state {
	case StateAwaitingCondition:
		reply = "Hello, I'm here to help collect information about your medical prescription details. " +
			"To begin, can you tell me what disease or illness you are currently suffering from and what are the symptoms?"
	case StateAwaitingMedications:
		if rec.MedicationConfirmation != nil && !*rec.MedicationConfirmation {
			reply = "I'm sorry I got that wrong. Please list all the medicines you have been prescribed once more, and I'll note them down again."
		} else {
			reply = "Thank you for sharing that. Now, please list all the medicines you have been prescribed. " +
				"Once you name them, I'll confirm if everything is correct."
		}
	case StateAwaitingConfirmation:
		reply = "You have told me the following medicines: " + strings.Join(rec.Medications, ", ") +
			". Did I get all those medicines correct?"
	case StateComplete:
		reply = "Thank you, your information has been recorded. Have a great day and take care."
	}

	if c.translator == nil || language == "" || strings.EqualFold(language, "en") {
		return reply
	}
	translated, err := c.translator.Translate(ctx, reply, language)
	if err != nil || strings.TrimSpace(translated) == "" {
		log.Printf("intake: translation to %q failed, falling back to English: %v", language, err)
		return reply
	}
	return translated
}
