package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type QuizQuestion struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LectureID      uuid.UUID      `json:"lectureId" gorm:"type:uuid;not null;uniqueIndex:unique_lecture_question_number;index:idx_quiz_questions_lecture_id"`
	QuestionNumber int            `json:"questionNumber" gorm:"not null;uniqueIndex:unique_lecture_question_number"`
	Question       string         `json:"question" gorm:"type:text;not null"`
	Options        pq.StringArray `json:"options" gorm:"type:text[];not null"`
	CorrectAnswer  int            `json:"correctAnswer" gorm:"not null"`
	Explanation    *string        `json:"explanation" gorm:"type:text"`
	Difficulty     *string        `json:"difficulty" gorm:"type:varchar(20)"`
	CreatedAt      time.Time      `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
