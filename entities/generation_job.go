package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/varunaditya27/EduSynth/constant"
)

// GenerationJob tracks one background pipeline run. It is decoupled from the
// lecture or deck it targets so retries create fresh job rows against the
// same entity.
type GenerationJob struct {
	ID           uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LectureID    *uuid.UUID         `json:"lectureId" gorm:"type:uuid;index:idx_generation_jobs_lecture_id"`
	DeckID       *uuid.UUID         `json:"deckId" gorm:"type:uuid;index:idx_generation_jobs_deck_id"`
	JobType      constant.JobType   `json:"jobType" gorm:"type:varchar(30);not null"`
	Status       constant.JobStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index:idx_generation_jobs_status"`
	Progress     int                `json:"progress" gorm:"not null;default:0"`
	ErrorCode    *string            `json:"errorCode" gorm:"type:varchar(50)"`
	ErrorMessage *string            `json:"errorMessage" gorm:"type:text"`
	StartedAt    *time.Time         `json:"startedAt" gorm:"type:timestamptz"`
	FinishedAt   *time.Time         `json:"finishedAt" gorm:"type:timestamptz"`
	CreatedAt    time.Time          `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time          `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}
