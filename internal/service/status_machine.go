package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/eco-report-api/internal/models"
	appErrors "github.com/noah-isme/eco-report-api/pkg/errors"
)

// ApplyTransition moves report to status to, applying timestamp side effects.
// The report is left untouched when an error is returned.
func ApplyTransition(report *models.Report, to models.ReportStatus, notes string, now time.Time) error {
	if !to.Valid() {
		return appErrors.Validation(fmt.Sprintf("unknown status %q", to))
	}
	from := report.Status
	if !models.CanTransition(from, to) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move report from %s to %s", from, to))
	}
	notes = strings.TrimSpace(notes)
	if to == models.StatusVerified && notes == "" {
		return appErrors.Validation("verification notes are required")
	}

	now = now.UTC()
	report.Status = to

	switch to {
	case models.StatusResolved:
		if report.ResolvedAt == nil {
			report.ResolvedAt = &now
		}
	case models.StatusVerified:
		if report.ResolvedAt == nil {
			report.ResolvedAt = &now
		}
		report.Verified = true
		report.VerifiedAt = &now
		report.VerificationNotes = &notes
	case models.StatusPending:
		// reconsideration starts a fresh review cycle
		report.ResolvedAt = nil
		report.Verified = false
		report.VerifiedAt = nil
		report.VerificationNotes = nil
		report.DuplicateOf = nil
	}
	return nil
}
