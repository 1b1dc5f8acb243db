package dto

import "github.com/noah-isme/eco-report-api/internal/models"

// CreateReportRequest captures POST /reports payload (JSON or multipart fields).
type CreateReportRequest struct {
	Category    string   `json:"category" form:"category" validate:"required,report_category"`
	Title       string   `json:"title" form:"title" validate:"required,min=5,max=100"`
	Description string   `json:"description" form:"description" validate:"required,min=10,max=500"`
	Latitude    *float64 `json:"latitude" form:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" form:"longitude" validate:"required,gte=-180,lte=180"`
	Address     *string  `json:"address,omitempty" form:"address" validate:"omitempty,max=255"`
	Priority    int      `json:"priority,omitempty" form:"priority" validate:"omitempty,min=1,max=4"`
	IsPublic    *bool    `json:"is_public,omitempty" form:"is_public"`
	Anonymous   bool     `json:"anonymous,omitempty" form:"anonymous"`
}

// UpdateStatusRequest captures PATCH /reports/:id/status payload.
type UpdateStatusRequest struct {
	Status      string  `json:"status" validate:"required,report_status"`
	Notes       string  `json:"notes,omitempty" validate:"max=1000"`
	AdminNotes  *string `json:"admin_notes,omitempty" validate:"omitempty,max=1000"`
	DuplicateOf *string `json:"duplicate_of,omitempty" validate:"omitempty,uuid"`
}

// AddCommentRequest captures POST /reports/:id/comments payload.
type AddCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=1000"`
	IsPublic *bool  `json:"is_public,omitempty"`
}

// PhotoUpload is a decoded file from a multipart request.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	Description *string
}

// CreateReportResponse returns the stored report and any nearby matches found.
type CreateReportResponse struct {
	Report     *models.Report       `json:"report"`
	Duplicates []models.ReportMatch `json:"duplicates"`
	Unlocked   []models.Achievement `json:"unlocked_achievements,omitempty"`
}

// UpdateStatusResponse returns the report after a transition.
type UpdateStatusResponse struct {
	Report *models.Report            `json:"report"`
	Change models.ReportStatusChange `json:"change"`
}

// NearbyQuery captures GET /reports/nearby parameters.
type NearbyQuery struct {
	Latitude     float64 `form:"lat" validate:"gte=-90,lte=90"`
	Longitude    float64 `form:"lng" validate:"gte=-180,lte=180"`
	RadiusMeters float64 `form:"radius" validate:"omitempty,gt=0,lte=50000"`
	Category     string  `form:"category" validate:"omitempty,report_category"`
	Limit        int     `form:"limit" validate:"omitempty,min=1,max=200"`
}
