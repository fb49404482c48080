package prescription

import (
	"context"
	"fmt"
	"log"
)

// OCRClient extracts structured prescription data from a document image.
type OCRClient interface {
	ExtractPrescription(ctx context.Context, file []byte, mime string) (*Data, error)
}

// SafetyChecker flags banned, withdrawn or scheduled medicines.
type SafetyChecker interface {
	CheckMedicines(ctx context.Context, medicines []string) ([]SafetyResult, error)
}

type Service struct {
	ocr    OCRClient
	safety SafetyChecker
}

func NewService(ocr OCRClient, safety SafetyChecker) *Service {
	return &Service{ocr: ocr, safety: safety}
}

// Extract runs OCR over an uploaded prescription. Image types go straight
// to the vision capability; PDFs are accepted at the API edge but need a
// rasterizing step this service does not carry, so they are reported as
// unprocessable rather than rejected outright.
func (s *Service) Extract(ctx context.Context, file []byte, mime string) (*Data, error) {
	if mime == "application/pdf" {
		return nil, fmt.Errorf("PDF prescriptions cannot be processed yet, upload a JPEG or PNG scan")
	}

	data, err := s.ocr.ExtractPrescription(ctx, file, mime)
	if err != nil {
		return nil, err
	}
	log.Printf("prescription: extracted %d medicines", len(data.Medicines))
	return data, nil
}

// CheckSafety checks each medicine name against the regulatory denylist.
func (s *Service) CheckSafety(ctx context.Context, medicines []string) ([]SafetyResult, error) {
	if len(medicines) == 0 {
		return []SafetyResult{}, nil
	}
	return s.safety.CheckMedicines(ctx, medicines)
}
