package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/signintech/gopdf"

	"ward-assistant/internal/patient"
)

// TelegramClient is the messaging collaborator for handover delivery.
type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

// Roster lets the report pull the current snapshot for the escalated
// patient.
type Roster interface {
	Snapshot(ctx context.Context) ([]patient.Patient, error)
}

// Service renders a one-page escalation handover PDF and sends it to
// the duty doctor's chat.
type Service struct {
	tgClient     TelegramClient
	roster       Roster
	doctorChatID int64
}

func NewService(tg TelegramClient, roster Roster, doctorChatID int64) *Service {
	return &Service{
		tgClient:     tg,
		roster:       roster,
		doctorChatID: doctorChatID,
	}
}

// SendEscalation builds the handover document for an escalation note.
// If the PDF cannot be rendered (fonts missing on the host), a plain
// text message is sent instead so the escalation still reaches someone.
func (s *Service) SendEscalation(ctx context.Context, patientID, noteText string) error {
	if s.doctorChatID == 0 {
		return fmt.Errorf("duty doctor chat not configured")
	}

	var subject *patient.Patient
	if roster, err := s.roster.Snapshot(ctx); err == nil {
		subject = findPatient(roster, patientID)
	}

	pdfBytes, err := s.renderHandover(subject, patientID, noteText)
	if err != nil {
		text := fmt.Sprintf("ESCALATION for patient %s: %s", patientID, noteText)
		return s.tgClient.SendMessage(s.doctorChatID, text)
	}

	fileName := fmt.Sprintf("escalation_%s_%s.pdf", patientID, time.Now().Format("20060102_1504"))
	return s.tgClient.SendDocument(s.doctorChatID, pdfBytes, fileName)
}

func (s *Service) renderHandover(subject *patient.Patient, patientID, noteText string) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	fontPaths := []string{
		"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 18); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Escalation Handover")
	pdf.Br(28)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Time: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(14)

	if subject != nil {
		pdf.Cell(nil, fmt.Sprintf("Patient: %s (%s), age %d", subject.Name, subject.ID, subject.Age))
		pdf.Br(14)
		pdf.Cell(nil, fmt.Sprintf("Chief complaint: %s", orDash(subject.File.ChiefComplaint)))
		pdf.Br(14)
		if v := subject.Vitals; v != nil {
			pdf.Cell(nil, fmt.Sprintf("Vitals: SpO2 %d%%, BP %d/%d, pulse %d, temp %.1f, RR %d",
				v.SpO2, v.SystolicBP, v.DiastolicBP, v.Pulse, v.TempC, v.RespRate))
			pdf.Br(14)
		}
		pdf.Cell(nil, fmt.Sprintf("Allergies: %s", orDash(subject.File.Allergies)))
		pdf.Br(20)
	} else {
		pdf.Cell(nil, fmt.Sprintf("Patient: %s", patientID))
		pdf.Br(20)
	}

	if err := pdf.SetFont("DejaVu", "", 13); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Escalation note:")
	pdf.Br(16)
	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	lines, _ := pdf.SplitText(noteText, 500)
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func findPatient(roster []patient.Patient, id string) *patient.Patient {
	for i := range roster {
		if roster[i].ID == id {
			return &roster[i]
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
