package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

type InterviewStatus string

const (
	StatusInProgress InterviewStatus = "in-progress"
	StatusCompleted  InterviewStatus = "completed"
	StatusAborted    InterviewStatus = "aborted"
)

// Interview is one mock-interview attempt, from the opening question to
// completion or abort. Plan is captured once at creation; a mid-interview
// upgrade does not change the follow-up budget of a running interview.
type Interview struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InterviewID string             `bson:"interview_id" json:"interview_id"` // uuid v4
	UserID      string             `bson:"user_id" json:"user_id"`

	JobTitle       string `bson:"job_title" json:"job_title"`
	JobDescription string `bson:"job_description" json:"job_description"`
	AvatarType     string `bson:"avatar_type" json:"avatar_type"` // easy|medium|hard
	Language       string `bson:"language" json:"language"`       // en|fr|es|ar
	Plan           Plan   `bson:"plan" json:"plan"`               // captured at creation
	CVURL          string `bson:"cv_url,omitempty" json:"cv_url,omitempty"`

	Status InterviewStatus `bson:"status" json:"status"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
	Score           int   `bson:"score" json:"score"`
}

func (i *Interview) Terminal() bool {
	return i.Status == StatusCompleted || i.Status == StatusAborted
}
