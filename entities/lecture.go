package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/varunaditya27/EduSynth/constant"
)

type Lecture struct {
	ID                    uuid.UUID            `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Topic                 string               `json:"topic" gorm:"type:varchar(500);not null"`
	TargetAudience        string               `json:"targetAudience" gorm:"type:varchar(255)"`
	DesiredLength         int                  `json:"desiredLength" gorm:"type:integer;not null"`
	VisualTheme           constant.VisualTheme `json:"visualTheme" gorm:"type:varchar(20);not null;default:'MINIMALIST'"`
	VideoStatus           constant.VideoStatus `json:"videoStatus" gorm:"type:varchar(30);not null;default:'PENDING';index:idx_lectures_video_status"`
	VideoURL              *string              `json:"videoUrl" gorm:"type:varchar(1000)"`
	SlidesPdfURL          *string              `json:"slidesPdfUrl" gorm:"type:varchar(1000)"`
	ErrorMessage          *string              `json:"errorMessage" gorm:"type:text"`
	UserID                *uuid.UUID           `json:"userId" gorm:"type:uuid;index:idx_lectures_user_id"`
	ProcessingStartedAt   *time.Time           `json:"processingStartedAt" gorm:"type:timestamptz"`
	ProcessingCompletedAt *time.Time           `json:"processingCompletedAt" gorm:"type:timestamptz"`
	CreatedAt             time.Time            `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time            `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`

	Slides        []Slide        `json:"slides,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	QuizQuestions []QuizQuestion `json:"quizQuestions,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	MindMap       *MindMap       `json:"mindMap,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (Lecture) TableName() string {
	return "lectures"
}
