package models

import "time"

// EventType is the routing key of a domain event.
type EventType string

const (
	EventReportCreated       EventType = "report.created"
	EventReportStatusChanged EventType = "report.status_changed"
	EventReportDeleted       EventType = "report.deleted"
	EventAchievementUnlocked EventType = "achievement.unlocked"
)

// DomainEvent is published to the broker after a change commits.
type DomainEvent struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// ReportCreatedPayload is the body of report.created.
type ReportCreatedPayload struct {
	ReportID    string         `json:"report_id"`
	UserID      string         `json:"user_id"`
	Category    ReportCategory `json:"category"`
	Status      ReportStatus   `json:"status"`
	EcoPoints   int            `json:"eco_points"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	DuplicateOf *string        `json:"duplicate_of,omitempty"`
}
