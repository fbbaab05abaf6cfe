package models

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

const JobKindParseDocument = "parse_document"

// Job is an asynchronous AI workflow request consumed by the worker.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	Kind      string `gorm:"type:varchar(32);not null" json:"kind"`
	ProjectID uint64 `gorm:"index;not null" json:"project_id"`
	FileName  string `gorm:"type:varchar(255)" json:"file_name"`
	Payload   []byte `gorm:"type:longblob" json:"-"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	ResultRequirementID *uint64 `json:"result_requirement_id"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "ai_jobs" }

// All returns every model for AutoMigrate.
func All() []any {
	return []any{&Project{}, &Requirement{}, &ChatSession{}, &ChatMessage{}, &Job{}}
}
