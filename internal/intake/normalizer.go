package intake

import (
	"context"
	"errors"
	"log"
)

// Transcriber turns an audio clip into text. It is an external speech
// capability; mime is a hint for the audio container format.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mime string) (text, language string, err error)
}

// Normalizer converts a raw turn input (text message or audio clip) into
// the utterance the state machine consumes, along with the detected
// language when one is known.
type Normalizer struct {
	transcriber Transcriber
}

func NewNormalizer(transcriber Transcriber) *Normalizer {
	return &Normalizer{transcriber: transcriber}
}

// Normalize requires exactly one of message/audio. When both are present
// the message wins and the audio is ignored (logged, not silent). Audio is
// transcribed through the Transcriber; any failure there surfaces as a
// TranscriptionError so the caller can leave the record untouched.
//
// A whitespace-only message still counts as present: it flows through as
// an utterance carrying no information, which is not an input error.
func (n *Normalizer) Normalize(ctx context.Context, message string, audio []byte, mime string) (string, string, error) {
	hasMessage := message != ""
	if !hasMessage && len(audio) == 0 {
		return "", "", &InvalidInputError{Reason: "either message or audio must be provided"}
	}

	if hasMessage {
		if len(audio) > 0 {
			log.Printf("intake: both message and audio supplied, using message")
		}
		return message, "", nil
	}

	if n.transcriber == nil {
		return "", "", &TranscriptionError{Err: errors.New("no transcription capability configured")}
	}
	text, language, err := n.transcriber.Transcribe(ctx, audio, mime)
	if err != nil {
		return "", "", &TranscriptionError{Err: err}
	}
	return text, language, nil
}
