package models

import "time"

// Priority levels, 1 (low) to 4 (critical).
const (
	PriorityLow      = 1
	PriorityMedium   = 2
	PriorityHigh     = 3
	PriorityCritical = 4
)

// Report is a geolocated environmental issue filed by a user.
type Report struct {
	ID                string         `db:"id" json:"id"`
	UserID            string         `db:"user_id" json:"user_id,omitempty"`
	Category          ReportCategory `db:"category" json:"category"`
	Title             string         `db:"title" json:"title"`
	Description       string         `db:"description" json:"description"`
	Latitude          float64        `db:"latitude" json:"latitude"`
	Longitude         float64        `db:"longitude" json:"longitude"`
	Address           *string        `db:"address" json:"address,omitempty"`
	Status            ReportStatus   `db:"status" json:"status"`
	EcoPoints         int            `db:"eco_points" json:"eco_points"`
	Priority          int            `db:"priority" json:"priority"`
	Verified          bool           `db:"verified" json:"verified"`
	VerificationNotes *string        `db:"verification_notes" json:"verification_notes,omitempty"`
	VerifiedAt        *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	AdminNotes        *string        `db:"admin_notes" json:"admin_notes,omitempty"`
	ResolvedAt        *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	IsPublic          bool           `db:"is_public" json:"is_public"`
	Anonymous         bool           `db:"anonymous" json:"anonymous"`
	DuplicateOf       *string        `db:"duplicate_of" json:"duplicate_of,omitempty"`
	PointsCreditedAt  *time.Time     `db:"points_credited_at" json:"points_credited_at,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`

	Photos   []ReportPhoto   `db:"-" json:"photos"`
	Comments []ReportComment `db:"-" json:"comments"`
}

// ReportPhoto is an image attached to a report.
type ReportPhoto struct {
	ID               string     `db:"id" json:"id"`
	ReportID         string     `db:"report_id" json:"report_id"`
	StorageKey       string     `db:"storage_key" json:"-"`
	Filename         string     `db:"filename" json:"filename"`
	OriginalFilename string     `db:"original_filename" json:"original_filename"`
	FileURL          string     `db:"file_url" json:"file_url"`
	FileSize         int64      `db:"file_size" json:"file_size"`
	ContentType      string     `db:"content_type" json:"content_type"`
	Width            *int       `db:"width" json:"width,omitempty"`
	Height           *int       `db:"height" json:"height,omitempty"`
	IsPrimary        bool       `db:"is_primary" json:"is_primary"`
	Description      *string    `db:"description" json:"description,omitempty"`
	TakenAt          *time.Time `db:"taken_at" json:"taken_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// ReportComment is a note left on a report by its owner, another user or an admin.
type ReportComment struct {
	ID             string    `db:"id" json:"id"`
	ReportID       string    `db:"report_id" json:"report_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	AuthorName     string    `db:"author_name" json:"author_name"`
	Content        string    `db:"content" json:"content"`
	IsAdminComment bool      `db:"is_admin_comment" json:"is_admin_comment"`
	IsPublic       bool      `db:"is_public" json:"is_public"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ReportFilter captures list criteria for reports.
type ReportFilter struct {
	Category    *ReportCategory
	Status      *ReportStatus
	UserID      string
	MinPriority int
	PublicOnly  bool
	Verified    *bool
	From        *time.Time
	To          *time.Time
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// ProximityQuery selects reports near a point. An empty Category matches all
// categories and a zero Since disables the time window. With PublicOnly set,
// a non-empty ViewerID still admits that user's own private reports.
// NearestFirst orders candidates by approximate distance instead of age.
type ProximityQuery struct {
	Category     ReportCategory
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	Since        time.Time
	PublicOnly   bool
	ViewerID     string
	ExcludeID    string
	NearestFirst bool
	Limit        int
}

// ReportMatch is a report together with its distance from a query point.
type ReportMatch struct {
	Report
	DistanceMeters float64 `db:"-" json:"distance_meters"`
}

// ReportStatusChange records one applied workflow transition.
type ReportStatusChange struct {
	ReportID     string        `json:"report_id"`
	UserID       string        `json:"user_id"`
	From         ReportStatus  `json:"from"`
	To           ReportStatus  `json:"to"`
	PointsCredit int           `json:"points_credited"`
	ChangedAt    time.Time     `json:"changed_at"`
	LevelBefore  Level         `json:"level_before"`
	LevelAfter   Level         `json:"level_after"`
	Unlocked     []Achievement `json:"unlocked,omitempty"`
}
