package models

import "strings"

// ReportStatus is a stage in the report review workflow.
type ReportStatus string

const (
	StatusPending    ReportStatus = "PENDING"
	StatusInProgress ReportStatus = "IN_PROGRESS"
	StatusResolved   ReportStatus = "RESOLVED"
	StatusVerified   ReportStatus = "VERIFIED"
	StatusRejected   ReportStatus = "REJECTED"
	StatusDuplicate  ReportStatus = "DUPLICATE"
)

// StatusMetadata describes a status for clients.
type StatusMetadata struct {
	Status      ReportStatus   `json:"status"`
	Title       string         `json:"title"`
	Icon        string         `json:"icon"`
	Description string         `json:"description"`
	UserMessage string         `json:"user_message"`
	Color       string         `json:"color"`
	Terminal    bool           `json:"terminal"`
	Next        []ReportStatus `json:"next"`
}

var statusOrder = []ReportStatus{
	StatusPending, StatusInProgress, StatusResolved, StatusVerified, StatusRejected, StatusDuplicate,
}

var statusCatalog = map[ReportStatus]StatusMetadata{
	StatusPending: {
		Title: "Pending", Icon: "⏳", Color: "#FF9800",
		Description: "The report is waiting for review",
		UserMessage: "Your report is being reviewed by our team. We will let you know once it is processed.",
	},
	StatusInProgress: {
		Title: "In progress", Icon: "🔄", Color: "#2196F3",
		Description: "The report is being handled",
		UserMessage: "The responsible authorities are working on your report. Thanks for helping out.",
	},
	StatusResolved: {
		Title: "Resolved", Icon: "✅", Color: "#4CAF50",
		Description: "The problem has been fixed",
		UserMessage: "Great news! The problem you reported has been fixed. Thanks for helping the environment.",
	},
	StatusVerified: {
		Title: "Verified", Icon: "🔍", Color: "#9C27B0",
		Description: "The report has been verified by the authorities",
		UserMessage: "Your report has been verified and confirmed by the authorities. Good job!",
	},
	StatusRejected: {
		Title: "Rejected", Icon: "❌", Color: "#F44336",
		Description: "The report did not meet the review criteria",
		UserMessage: "Unfortunately your report does not meet our criteria. You can submit a new one with more detail.",
	},
	StatusDuplicate: {
		Title: "Duplicate", Icon: "📋", Color: "#9E9E9E",
		Description: "A similar report already exists for this location",
		UserMessage: "A similar report already exists for this location. Your contribution is still valued.",
	},
}

// transitions is the directed workflow graph. No status lists itself.
var transitions = map[ReportStatus][]ReportStatus{
	StatusPending:    {StatusInProgress, StatusRejected, StatusDuplicate},
	StatusInProgress: {StatusResolved, StatusVerified, StatusRejected},
	StatusResolved:   {StatusVerified},
	StatusVerified:   {},
	StatusRejected:   {StatusPending},
	StatusDuplicate:  {StatusPending},
}

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	_, ok := statusCatalog[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s ReportStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// ResolvedOrLater is true for the statuses that carry a resolution timestamp.
func (s ReportStatus) ResolvedOrLater() bool {
	return s == StatusResolved || s == StatusVerified
}

// Metadata returns the catalog entry for s.
func (s ReportStatus) Metadata() (StatusMetadata, bool) {
	meta, ok := statusCatalog[s]
	if !ok {
		return StatusMetadata{}, false
	}
	meta.Status = s
	meta.Terminal = s.Terminal()
	meta.Next = AllowedTransitions(s)
	return meta, true
}

// CanTransition reports whether the workflow permits moving from one status to another.
func CanTransition(from, to ReportStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the statuses reachable from s.
func AllowedTransitions(s ReportStatus) []ReportStatus {
	return append([]ReportStatus{}, transitions[s]...)
}

// ParseStatus maps an external name to a status, ignoring case.
func ParseStatus(raw string) (ReportStatus, bool) {
	s := ReportStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", false
	}
	return s, true
}

// Statuses lists every status in workflow order.
func Statuses() []ReportStatus {
	return append([]ReportStatus(nil), statusOrder...)
}

// StatusCatalog returns metadata for every status in workflow order.
func StatusCatalog() []StatusMetadata {
	out := make([]StatusMetadata, 0, len(statusOrder))
	for _, s := range statusOrder {
		meta, _ := s.Metadata()
		out = append(out, meta)
	}
	return out
}
