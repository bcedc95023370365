package dto

import (
	"time"

	"github.com/google/uuid"
)

// Queue messages.

type LectureJobMessage struct {
	JobID     uuid.UUID `json:"jobId"`
	LectureID uuid.UUID `json:"lectureId"`
}

type DeckJobMessage struct {
	JobID  uuid.UUID `json:"jobId"`
	DeckID uuid.UUID `json:"deckId"`
}

// Lecture API.

type CreateLectureRequest struct {
	Topic          string `json:"topic" binding:"required"`
	TargetAudience string `json:"audience"`
	DesiredLength  int    `json:"duration" binding:"required,min=1,max=60"`
	VisualTheme    string `json:"theme" binding:"omitempty,visualtheme"`
	Format         string `json:"format" binding:"omitempty,oneof=video interactive"`
}

// GenerateRequest is the legacy submission body; length arrives as a free-form
// string like "3 min".
type GenerateRequest struct {
	Prompt   string `json:"prompt"`
	Topic    string `json:"topic" binding:"required"`
	Audience string `json:"audience"`
	Length   string `json:"length"`
	Theme    string `json:"theme" binding:"omitempty,visualtheme"`
}

type TaskStatusResponse struct {
	TaskID       uuid.UUID `json:"task_id"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	VideoURL     *string   `json:"video_url,omitempty"`
	SlidesPdfURL *string   `json:"slides_pdf_url,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
}

// SlidePlan is the structured slide content the LLM produces, after
// normalization. Indices are contiguous from 0.
type SlidePlan struct {
	Index      int      `json:"index"`
	Title      string   `json:"title"`
	Points     []string `json:"points"`
	Narration  string   `json:"narration"`
	Duration   float64  `json:"duration"`
	ImageQuery string   `json:"image_query,omitempty"`
}

// Quiz API.

type GenerateQuizRequest struct {
	NumQuestions int    `json:"num_questions" binding:"omitempty,min=1,max=10"`
	Format       string `json:"format" binding:"omitempty,oneof=plain moodle canvas"`
	Regenerate   bool   `json:"regenerate"`
}

type QuizQuestionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

type QuizResponse struct {
	LectureID uuid.UUID             `json:"lectureId"`
	Topic     string                `json:"topic"`
	Format    string                `json:"format"`
	Questions []QuizQuestionPayload `json:"questions"`
	Exported  string                `json:"exported"`
	Reused    bool                  `json:"reused"`
}

// On-demand handout export.

type ExportPDFRequest struct {
	Orientation  string `json:"orientation" binding:"omitempty,oneof=auto portrait landscape"`
	DevicePreset string `json:"devicePreset" binding:"omitempty,oneof=desktop tablet mobile"`
}

type ExportResponse struct {
	LectureID uuid.UUID `json:"lectureId"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
}

// Mind map API.

type MindMapGenerateRequest struct {
	LectureID   uuid.UUID `json:"lecture_id" binding:"required"`
	Regenerate  bool      `json:"regenerate"`
	MaxBranches int       `json:"max_branches" binding:"omitempty,min=3,max=10"`
	MaxDepth    int       `json:"max_depth" binding:"omitempty,min=2,max=5"`
}

type MindMapNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type MindMapChild struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Children    []MindMapChild `json:"children,omitempty"`
}

type MindMapBranch struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Parent      string         `json:"parent"`
	Description string         `json:"description,omitempty"`
	Children    []MindMapChild `json:"children,omitempty"`
}

type MindMapConnection struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

type MindMapData struct {
	Central     MindMapNode         `json:"central"`
	Branches    []MindMapBranch     `json:"branches"`
	Connections []MindMapConnection `json:"connections"`
}

type MindMapMetadata struct {
	NodeCount       int `json:"node_count"`
	BranchCount     int `json:"branch_count"`
	MaxDepth        int `json:"max_depth"`
	ConnectionCount int `json:"connection_count"`
}

type MindMapResponse struct {
	LectureID     uuid.UUID       `json:"lecture_id"`
	MindMapID     uuid.UUID       `json:"mindmap_id"`
	MindMap       MindMapData     `json:"mind_map"`
	MermaidSyntax string          `json:"mermaid_syntax"`
	Metadata      MindMapMetadata `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Chat API.

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	Message             string        `json:"message" binding:"required"`
	TopicContext        string        `json:"topic_context"`
	ConversationHistory []ChatMessage `json:"conversation_history" binding:"omitempty,dive"`
}

type QuickAskRequest struct {
	Question     string `json:"question" binding:"required"`
	TopicContext string `json:"topic_context"`
}

type ChatResponse struct {
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed int       `json:"tokens_used,omitempty"`
	Model      string    `json:"model"`
}

// Auth API.

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleAuthRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// Animations (interactive deck) API.

type AnimationGenerationRequest struct {
	Topic            string `json:"topic" binding:"required"`
	Audience         string `json:"audience"`
	Length           string `json:"length"`
	Theme            string `json:"theme" binding:"omitempty,visualtheme"`
	InteractionLevel string `json:"interaction_level" binding:"omitempty,oneof=low medium high"`
	AnimationStyle   string `json:"animation_style"`
}

type AnimationProgressRequest struct {
	Progress int    `json:"progress" binding:"min=0,max=100"`
	Stage    string `json:"stage"`
}

// DeckDocument is the object-storage-backed deck body. It mirrors the video
// pipeline's slide model with per-step animation and interaction metadata.
type DeckDocument struct {
	DeckID           uuid.UUID   `json:"deckId"`
	Topic            string      `json:"topic"`
	Audience         string      `json:"audience"`
	Theme            string      `json:"theme"`
	Slides           []DeckSlide `json:"slides"`
	InteractionCount int         `json:"interactionCount"`
	EstimatedSeconds int         `json:"estimatedSeconds"`
	GeneratedAt      time.Time   `json:"generatedAt"`
}

type DeckSlide struct {
	Index        int               `json:"index"`
	Title        string            `json:"title"`
	Narration    string            `json:"narration"`
	Steps        []DeckStep        `json:"steps"`
	Interactions []DeckInteraction `json:"interactions,omitempty"`
}

type DeckStep struct {
	Order     int     `json:"order"`
	Kind      string  `json:"kind"`
	Text      string  `json:"text,omitempty"`
	Animation string  `json:"animation,omitempty"`
	Seconds   float64 `json:"seconds"`
}

type DeckInteraction struct {
	AfterStep int      `json:"afterStep"`
	Kind      string   `json:"kind"`
	Prompt    string   `json:"prompt"`
	Options   []string `json:"options,omitempty"`
	Answer    int      `json:"answer,omitempty"`
}
