package intake

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"medical-intake-agent/internal/prescription"
)

// Synthesizer turns a reply into speech. Failure is soft: the text reply
// is returned regardless, with no audio attached.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// Repository archives finished intake sessions. In-flight conversation
// state is never stored here — the caller owns it.
type Repository interface {
	SaveSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
}

// Reporter delivers a completed session to the doctor.
type Reporter interface {
	SendIntakeReport(ctx context.Context, s Session) error
}

// TurnRequest is one conversation turn as received from the caller, with
// all session state round-tripped alongside the input.
type TurnRequest struct {
	Message      string
	Audio        []byte
	AudioMime    string
	History      []Turn
	Record       *Record
	Prescription *prescription.Data
}

// TurnResult is the outcome of a successfully processed turn.
type TurnResult struct {
	Reply    string
	Audio    []byte
	History  []Turn
	Record   Record
	Complete bool
}

type Service interface {
	ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
	SynthesizeSpeech(ctx context.Context, text string) ([]byte, error)
}

type service struct {
	machine    *Machine
	normalizer *Normalizer
	synth      Synthesizer
	repo       Repository
	reporter   Reporter
}

func NewService(machine *Machine, normalizer *Normalizer, synth Synthesizer, repo Repository, reporter Reporter) Service {
	return &service{
		machine:    machine,
		normalizer: normalizer,
		synth:      synth,
		repo:       repo,
		reporter:   reporter,
	}
}

// ProcessTurn runs one turn end to end: normalize the input, advance the
// state machine, synthesize the reply. A turn either succeeds with one
// consistent updated record or fails before touching it — input and
// transcription errors return before the machine runs, and everything
// after the machine is soft.
func (s *service) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	text, language, err := s.normalizer.Normalize(ctx, req.Message, req.Audio, req.AudioMime)
	if err != nil {
		return nil, err
	}

	wasComplete := req.Record != nil && req.Record.State() == StateComplete

	rec, reply, complete := s.machine.Advance(ctx, req.Record, req.History, text, language, req.Prescription)

	// The caller's history is not mutated; a fresh sequence is returned.
	history := make([]Turn, 0, len(req.History)+2)
	history = append(history, req.History...)
	history = append(history,
		Turn{Role: RoleUser, Content: text},
		Turn{Role: RoleAssistant, Content: reply},
	)

	var audio []byte
	if s.synth != nil {
		audio, err = s.synth.Synthesize(ctx, reply, language)
		if err != nil {
			log.Printf("intake: speech synthesis failed, returning text only: %v", err)
			audio = nil
		}
	}

	if complete && !wasComplete {
		sess := Session{
			ID:          uuid.New(),
			Record:      rec,
			History:     history,
			Language:    language,
			CompletedAt: time.Now(),
		}
		go s.finishSession(sess)
	}

	return &TurnResult{
		Reply:    reply,
		Audio:    audio,
		History:  history,
		Record:   rec,
		Complete: complete,
	}, nil
}

func (s *service) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	if s.synth == nil {
		return nil, errors.New("no speech synthesis capability configured")
	}
	return s.synth.Synthesize(ctx, text, "")
}

// finishSession archives the session and notifies the doctor in the
// background; the turn response never waits on either.
func (s *service) finishSession(sess Session) {
	ctx := context.Background()

	if s.repo != nil {
		if err := s.repo.SaveSession(ctx, &sess); err != nil {
			log.Printf("intake: failed to archive session %s: %v", sess.ID, err)
		}
	}
	if s.reporter != nil {
		if err := s.reporter.SendIntakeReport(ctx, sess); err != nil {
			log.Printf("intake: failed to send intake report for %s: %v", sess.ID, err)
		}
	}
}
