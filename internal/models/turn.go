package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TurnRole string

const (
	RoleAI   TurnRole = "ai"
	RoleUser TurnRole = "user"
)

// Turn is one utterance of the interview transcript. Turns are immutable
// once written and are always read back in append order.
type Turn struct {
	ID          string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      string          `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	InterviewID string          `gorm:"column:interview_id;type:uuid;index" json:"interview_id"`
	Role        TurnRole        `gorm:"column:role;type:text" json:"role"` // "ai" | "user"
	Text        string          `gorm:"column:text;type:text" json:"text"`
	Embedding   pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"embedding"`
	Timestamp   time.Time       `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata    datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
}

func (Turn) TableName() string { return "interview_turns" }
