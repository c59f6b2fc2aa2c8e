package client

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
)

// ReportDisclaimer closes every report.
const ReportDisclaimer = "AI-generated report. Consult a doctor."

// WriteReport renders one diagnosis as a plain-text medical report.
func WriteReport(w io.Writer, s *Session, d models.Diagnosis) error {
	var b strings.Builder
	b.WriteString("AI MEDICAL DIAGNOSIS REPORT\n")
	b.WriteString(strings.Repeat("=", 27) + "\n\n")

	field := func(name, value string) {
		fmt.Fprintf(&b, "%-12s %s\n", name+":", value)
	}
	field("Patient", s.Username)
	if s.Email != "" {
		field("Email", s.Email)
	}
	field("Date", d.Date.Local().Format(time.RFC1123))
	b.WriteString("\n")
	field("Symptoms", d.Symptoms)
	field("Disease", d.PredictedDisease)
	field("Confidence", d.ConfidenceScore)

	b.WriteString("\nMedicines:\n")
	for _, m := range SplitMedicines(d.Medicines) {
		fmt.Fprintf(&b, "  - %s\n", m)
	}
	b.WriteString("\nAdvice:\n  " + d.Advice + "\n\n")
	b.WriteString(ReportDisclaimer + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// SplitMedicines turns the comma-separated medicines field into a list.
func SplitMedicines(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
