package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/varunaditya27/EduSynth/constant"
)

// SlideDeck is the interactive-format content path. The deck body lives in
// object storage as a JSON document; the row keeps the key and a sha256
// checksum of the stored bytes.
type SlideDeck struct {
	ID               uuid.UUID            `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           *uuid.UUID           `json:"userId" gorm:"type:uuid;index:idx_slide_decks_user_id"`
	Topic            string               `json:"topic" gorm:"type:varchar(500);not null"`
	Audience         string               `json:"audience" gorm:"type:varchar(255)"`
	DurationMinutes  int                  `json:"durationMinutes" gorm:"not null"`
	Theme            constant.VisualTheme `json:"theme" gorm:"type:varchar(20);not null;default:'MINIMALIST'"`
	Format           constant.DeckFormat  `json:"format" gorm:"type:varchar(20);not null;default:'interactive'"`
	ObjectKey        *string              `json:"objectKey" gorm:"type:varchar(500)"`
	Checksum         *string              `json:"checksum" gorm:"type:varchar(64)"`
	SlideCount       int                  `json:"slideCount" gorm:"not null;default:0"`
	InteractionCount int                  `json:"interactionCount" gorm:"not null;default:0"`
	EstimatedSeconds int                  `json:"estimatedSeconds" gorm:"not null;default:0"`
	CreatedAt        time.Time            `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time            `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (SlideDeck) TableName() string {
	return "slide_decks"
}
