package report

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"medical-intake-agent/internal/intake"
	"medical-intake-agent/internal/prescription"
)

type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

// SafetyChecker is optional; when configured the report includes the
// regulatory flags for the confirmed medication list.
type SafetyChecker interface {
	CheckMedicines(ctx context.Context, medicines []string) ([]prescription.SafetyResult, error)
}

// Service renders a completed intake session as a PDF and delivers it to
// the doctor's Telegram chat.
type Service struct {
	tgClient     TelegramClient
	safety       SafetyChecker
	doctorChatID int64
}

func NewService(tg TelegramClient, safety SafetyChecker, doctorChatID int64) *Service {
	return &Service{
		tgClient:     tg,
		safety:       safety,
		doctorChatID: doctorChatID,
	}
}

func (s *Service) SendIntakeReport(ctx context.Context, sess intake.Session) error {
	log.Printf("report: generating PDF for intake session %s", sess.ID)

	var flags []prescription.SafetyResult
	if s.safety != nil && len(sess.Record.Medications) > 0 {
		var err error
		flags, err = s.safety.CheckMedicines(ctx, sess.Record.Medications)
		if err != nil {
			// The report still goes out without the safety section.
			log.Printf("report: medicine safety check failed: %v", err)
			flags = nil
		}
	}

	pdfBytes, err := renderPDF(sess, flags)
	if err != nil {
		return fmt.Errorf("failed to render intake report: %w", err)
	}

	fileName := fmt.Sprintf("intake_%s.pdf", sess.ID)
	if err := s.tgClient.SendDocument(s.doctorChatID, pdfBytes, fileName); err != nil {
		return fmt.Errorf("failed to deliver intake report: %w", err)
	}
	log.Printf("report: intake report %s sent", fileName)
	return nil
}

// DejaVuSans covers Latin plus Cyrillic and Devanagari transliterations;
// paths cover the usual Alpine and Debian font locations.
var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

func renderPDF(sess intake.Session, flags []prescription.SafetyResult) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	loaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			loaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !loaded {
		return nil, fmt.Errorf("failed to load report font, is ttf-dejavu installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Medical Intake Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", sess.CompletedAt.Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Session ID: %s", sess.ID))
	pdf.Br(15)
	if sess.Language != "" {
		pdf.Cell(nil, fmt.Sprintf("Conversation language: %s", sess.Language))
		pdf.Br(15)
	}
	pdf.Br(10)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Reported condition:")
	pdf.Br(15)
	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	condition := "- not reported"
	if sess.Record.ReportedDisease != nil {
		condition = *sess.Record.ReportedDisease
	}
	writeWrapped(&pdf, condition)
	pdf.Br(10)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Medications (patient-confirmed):")
	pdf.Br(15)
	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	if len(sess.Record.Medications) == 0 {
		pdf.Cell(nil, "- none recorded")
		pdf.Br(12)
	}
	for _, med := range sess.Record.Medications {
		line := "- " + med
		if flagged, ok := safetyFlag(flags, med); ok && flagged {
			line += "  [FLAGGED: banned/restricted]"
		}
		writeWrapped(&pdf, line)
	}
	pdf.Br(10)

	if len(sess.History) > 0 {
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return nil, err
		}
		pdf.Cell(nil, "Conversation transcript:")
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 9); err != nil {
			return nil, err
		}
		for _, turn := range sess.History {
			writeWrapped(&pdf, fmt.Sprintf("[%s] %s", turn.Role, turn.Content))
		}
	}

	pdf.SetY(810)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Generated %s. Information collected from the patient, not medical advice.",
		time.Now().Format(time.RFC3339)))

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeWrapped(pdf *gopdf.GoPdf, text string) {
	lines, err := pdf.SplitText(text, 500)
	if err != nil {
		lines = []string{text}
	}
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}
}

func safetyFlag(flags []prescription.SafetyResult, medicine string) (bool, bool) {
	for _, f := range flags {
		if strings.EqualFold(f.MedicineName, medicine) {
			return f.Flagged, true
		}
	}
	return false, false
}
