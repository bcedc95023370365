package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Slide rows are created in batch by the content stage and progressively
// enriched by the image and narration stages. SlideNumber is 0-based and
// unique within a lecture.
type Slide struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LectureID        uuid.UUID      `json:"lectureId" gorm:"type:uuid;not null;uniqueIndex:unique_lecture_slide_number;index:idx_slides_lecture_id"`
	SlideNumber      int            `json:"slideNumber" gorm:"not null;uniqueIndex:unique_lecture_slide_number"`
	Title            string         `json:"title" gorm:"type:varchar(255);not null"`
	Points           pq.StringArray `json:"points" gorm:"type:text[]"`
	Narration        string         `json:"narration" gorm:"type:text;not null"`
	Duration         float64        `json:"duration" gorm:"type:double precision;not null"`
	ImageURL         *string        `json:"imageUrl" gorm:"type:varchar(1000)"`
	ImageQuery       *string        `json:"imageQuery" gorm:"type:varchar(255)"`
	ImageAttribution *string        `json:"imageAttribution" gorm:"type:varchar(255)"`
	AudioURL         *string        `json:"audioUrl" gorm:"type:varchar(1000)"`
	AudioDuration    *float64       `json:"audioDuration" gorm:"type:double precision"`
	SlideImageURL    *string        `json:"slideImageUrl" gorm:"type:varchar(1000)"`
	CreatedAt        time.Time      `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time      `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Slide) TableName() string {
	return "slides"
}
