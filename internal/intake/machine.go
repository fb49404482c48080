package intake

import (
	"context"
	"log"
	"strings"

	"medical-intake-agent/internal/prescription"
)

// Query carries everything the extractor may look at for one turn.
type Query struct {
	Utterance    string
	State        State
	Record       Record
	History      []Turn
	Prescription *prescription.Data
}

// Update is a partial record update produced by the extractor. Nil fields
// mean "no new information". Language, when set, is the ISO code of the
// language the patient spoke in.
type Update struct {
	Condition    *string
	Medications  []string
	Confirmation *bool
	Language     string
}

// Extractor pulls structured fields out of a free-form utterance. It is an
// external language-understanding capability; the machine only relies on
// this contract. A failed extraction is treated as "no update", never as a
// hard error.
type Extractor interface {
	Extract(ctx context.Context, q Query) (Update, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, q Query) (Update, error)

func (f ExtractorFunc) Extract(ctx context.Context, q Query) (Update, error) { return f(ctx, q) }

// Machine drives the intake dialogue. It holds no per-session state:
// everything it needs arrives as arguments and everything it changes is
// returned, so concurrent turns for different sessions need no
// coordination.
type Machine struct {
	extractor Extractor
	composer  *Composer
}

func NewMachine(extractor Extractor, composer *Composer) *Machine {
	return &Machine{extractor: extractor, composer: composer}
}

// Advance runs one conversation turn: extract fields from the utterance,
// fold them into the record, and compose the next prompt for the derived
// stage. The caller's record is never mutated; the updated copy is
// returned along with the reply text and a completion flag.
//
// Extraction is permissive but advancement is strict: fields volunteered
// ahead of the current stage are kept, yet the dialogue only moves on once
// the stage's own field is filled. A completed record is terminal — the
// reply is the closing message and the record comes back unchanged.
func (m *Machine) Advance(ctx context.Context, rec *Record, history []Turn, utterance, language string, presc *prescription.Data) (Record, string, bool) {
	var cur Record
	if rec != nil {
		cur = rec.Clone()
	}

	before := cur.State()
	if before == StateComplete {
		return cur, m.composer.Compose(ctx, StateComplete, cur, language), true
	}

	if strings.TrimSpace(utterance) != "" {
		upd, err := m.extractor.Extract(ctx, Query{
			Utterance:    utterance,
			State:        before,
			Record:       cur,
			History:      history,
			Prescription: presc,
		})
		if err != nil {
			// Soft failure: keep the record as-is and re-ask.
			log.Printf("intake: extraction failed, re-asking: %v", err)
			upd = Update{}
		}
		cur.apply(before, upd)
		if language == "" && upd.Language != "" {
			language = upd.Language
		}
	}

	after := cur.State()
	reply := m.composer.Compose(ctx, after, cur, language)
	return cur, reply, after == StateComplete
}

// apply folds an extractor update into the record. before is the stage the
// turn started in; it gates which fields may change so the extractor can
// never advance the dialogue on its own.
func (r *Record) apply(before State, upd Update) {
	if upd.Condition != nil {
		if v := strings.TrimSpace(*upd.Condition); v != "" {
			r.ReportedDisease = &v
		}
	}

	if len(upd.Medications) > 0 {
		meds := make([]string, 0, len(upd.Medications))
		for _, m := range upd.Medications {
			if m = strings.TrimSpace(m); m != "" {
				meds = append(meds, m)
			}
		}
		if len(meds) > 0 {
			r.Medications = meds
			// A freshly re-collected list supersedes an earlier denial so
			// it gets confirmed again.
			if before == StateAwaitingMedications &&
				r.MedicationConfirmation != nil && !*r.MedicationConfirmation &&
				upd.Confirmation == nil {
				r.MedicationConfirmation = nil
			}
		}
	}

	// Confirmation is only meaningful when it was actually asked for:
	// there must be a list on record from before this turn. Anything else
	// is the extractor jumping ahead and is dropped.
	if upd.Confirmation != nil && before == StateAwaitingConfirmation && len(r.Medications) > 0 {
		r.MedicationConfirmation = upd.Confirmation
	}
}
