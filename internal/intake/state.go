package intake

// State is the dialogue stage, derived from the record on every turn
// rather than stored. The conversation moves forward along
// AwaitingCondition → AwaitingMedications → AwaitingConfirmation →
// Complete; the only backward move is AwaitingConfirmation →
// AwaitingMedications when the patient rejects the medication list.
type State string

const (
	StateAwaitingCondition    State = "awaiting_condition"
	StateAwaitingMedications  State = "awaiting_medications"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateComplete             State = "complete"
)

var stateRank = map[State]int{
	StateAwaitingCondition:    0,
	StateAwaitingMedications:  1,
	StateAwaitingConfirmation: 2,
	StateComplete:             3,
}

// Rank gives the position of s in the dialogue ordering.
func (s State) Rank() int { return stateRank[s] }

// State derives the current dialogue stage from the record.
func (r Record) State() State {
	switch {
	case r.MedicationConfirmation != nil && *r.MedicationConfirmation:
		return StateComplete
	case r.ReportedDisease == nil || *r.ReportedDisease == "":
		return StateAwaitingCondition
	case len(r.Medications) == 0:
		return StateAwaitingMedications
	case r.MedicationConfirmation == nil:
		return StateAwaitingConfirmation
	default:
		// List was explicitly denied; collect it again.
		return StateAwaitingMedications
	}
}
