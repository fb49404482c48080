package intake

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single message in the conversation. The ordered sequence of
// turns forms the conversation history, which the caller owns and
// round-trips on every request.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Record is the structured intake state accumulated over a conversation.
// Every field is optional: nil means "not collected yet". The caller
// supplies the previous record on each turn and receives the updated one
// back; the service never stores in-flight records.
//
// MedicationConfirmation is tri-state: nil (not asked), true (list
// confirmed, conversation complete), false (list rejected, medications are
// re-collected). It is only ever set while Medications is non-empty.
type Record struct {
	ReportedDisease        *string  `json:"reported_disease,omitempty"`
	Medications            []string `json:"medications_provided_by_user,omitempty"`
	MedicationConfirmation *bool    `json:"medication_confirmation,omitempty"`
}

// Clone returns a deep copy so a turn can be applied without mutating the
// caller's record.
func (r Record) Clone() Record {
	out := Record{}
	if r.ReportedDisease != nil {
		v := *r.ReportedDisease
		out.ReportedDisease = &v
	}
	if r.Medications != nil {
		out.Medications = append([]string(nil), r.Medications...)
	}
	if r.MedicationConfirmation != nil {
		v := *r.MedicationConfirmation
		out.MedicationConfirmation = &v
	}
	return out
}

// Session is a finished intake conversation, archived once the patient
// confirms the medication list.
type Session struct {
	ID          uuid.UUID `json:"id"`
	Record      Record    `json:"medical_information"`
	History     []Turn    `json:"conversation_history"`
	Language    string    `json:"language,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
