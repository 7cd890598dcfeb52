package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Report is the post-interview assessment produced by the report worker.
type Report struct {
	ID          string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string `gorm:"column:interview_id;type:uuid;uniqueIndex" json:"interview_id"`
	UserID      string `gorm:"column:user_id;type:uuid;index" json:"user_id"`

	OverallScore  int `gorm:"column:overall_score;type:integer" json:"overall_score"`
	Communication int `gorm:"column:communication;type:integer" json:"communication"`
	Confidence    int `gorm:"column:confidence;type:integer" json:"confidence"`
	Technical     int `gorm:"column:technical;type:integer" json:"technical"`
	Structure     int `gorm:"column:structure;type:integer" json:"structure"`

	Strengths   pq.StringArray `gorm:"column:strengths;type:text[]" json:"strengths"`
	Weaknesses  pq.StringArray `gorm:"column:weaknesses;type:text[]" json:"weaknesses"`
	Suggestions pq.StringArray `gorm:"column:suggestions;type:text[]" json:"suggestions"`

	// raw model output, kept for debugging bad parses
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb" json:"raw,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Report) TableName() string { return "reports" }
