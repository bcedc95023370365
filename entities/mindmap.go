package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MindMap stores the generated concept graph as JSON plus the rendered
// Mermaid syntax. One mind map per lecture.
type MindMap struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LectureID       uuid.UUID      `json:"lectureId" gorm:"type:uuid;not null;uniqueIndex:unique_mindmap_lecture"`
	Data            datatypes.JSON `json:"data" gorm:"type:jsonb;not null"`
	MermaidSyntax   string         `json:"mermaidSyntax" gorm:"type:text;not null"`
	NodeCount       int            `json:"nodeCount" gorm:"not null"`
	BranchCount     int            `json:"branchCount" gorm:"not null"`
	MaxDepth        int            `json:"maxDepth" gorm:"not null"`
	ConnectionCount int            `json:"connectionCount" gorm:"not null"`
	CreatedAt       time.Time      `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (MindMap) TableName() string {
	return "mindmaps"
}
