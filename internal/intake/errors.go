package intake

import "fmt"

// InvalidInputError means the request itself was malformed (for example
// neither a message nor audio was supplied). The turn is not processed.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// TranscriptionError means the audio could not be turned into text. The
// turn is not processed and the record stays untouched.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
