package models

import "time"

type ReportStatus string

const (
	StatusSuccess   ReportStatus = "Success"
	StatusFailed    ReportStatus = "Failed"
	StatusNoContent ReportStatus = "No Content"
)

// UserSettings is the per-user configuration snapshot consumed by a pipeline
// run. It is re-fetched on every run; concurrent edits are last-read-wins.
type UserSettings struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`

	// Transform service
	GeminiAPIKey   string `json:"gemini_api_key,omitempty"`
	UseClientProxy bool   `json:"use_client_proxy"`
	UseRelayProxy  bool   `json:"use_relay_proxy"`
	GeminiTimeout  int    `json:"gemini_timeout"` // seconds

	// Signature
	SignatureName  string `json:"email_signature_name"`
	SignaturePhone string `json:"email_signature_phone"`

	// Mail
	EmailFrom     string `json:"email_from"`
	EmailPassword string `json:"-"`
	EmailTo       string `json:"email_to"` // comma separated
	SMTPServer    string `json:"smtp_server"`
	SMTPPort      int    `json:"smtp_port"`

	// Schedule
	SendHour   int      `json:"send_hour"`
	SendMinute int      `json:"send_minute"`
	SendDays   []string `json:"send_days"` // days of month, empty = every day
	IsActive   bool     `json:"is_active"`
}

// MonthlyPlan is a free-form text blob holding date-tagged content segments
// for one (user, year, month).
type MonthlyPlan struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Content string `json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailLog is the delivery attempt record, created exactly once per pipeline
// run regardless of outcome.
type EmailLog struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	SendTimestamp  time.Time    `json:"send_timestamp"`
	Status         ReportStatus `json:"status"`
	Subject        string       `json:"subject,omitempty"`
	ContentPreview string       `json:"content_preview,omitempty"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	IsScheduled    bool         `json:"is_scheduled"`
}

// ReportJob is what the scheduler enqueues for the worker pool.
type ReportJob struct {
	UserID    int64
	Scheduled bool
}
