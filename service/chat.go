package service

import (
	"context"
	"fmt"
	"time"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/groq"
)

// historyCap bounds the conversation window sent upstream; older turns are
// dropped from the front.
const historyCap = 20

const chatSystemPrompt = "You are EduSynth, a friendly and knowledgeable teaching assistant. " +
	"You help learners understand lecture material with clear, concise explanations. " +
	"Use plain language, give short examples when they help, and admit when you are unsure. " +
	"Stay on educational topics."

// Chatter is the conversational LLM surface. The Groq client satisfies it.
type Chatter interface {
	Chat(ctx context.Context, messages []groq.Message) (string, int, error)
	ChatStream(ctx context.Context, messages []groq.Message) (<-chan string, <-chan error)
	Model() string
}

type ChatService struct {
	llm Chatter
}

func NewChatService(llm Chatter) *ChatService {
	return &ChatService{llm: llm}
}

// Chat answers one message with the full conversation context.
func (s *ChatService) Chat(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	messages := s.buildMessages(req)

	reply, tokens, err := s.llm.Chat(ctx, messages)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "CHAT_UNAVAILABLE", err)
	}

	return &dto.ChatResponse{
		Message:    reply,
		Timestamp:  time.Now().UTC(),
		TokensUsed: tokens,
		Model:      s.llm.Model(),
	}, nil
}

// Stream answers one message as a delta stream for SSE delivery.
func (s *ChatService) Stream(ctx context.Context, req dto.ChatRequest) (<-chan string, <-chan error) {
	return s.llm.ChatStream(ctx, s.buildMessages(req))
}

// QuickAsk is the stateless single-question path.
func (s *ChatService) QuickAsk(ctx context.Context, req dto.QuickAskRequest) (*dto.ChatResponse, error) {
	return s.Chat(ctx, dto.ChatRequest{
		Message:      req.Question,
		TopicContext: req.TopicContext,
	})
}

func (s *ChatService) buildMessages(req dto.ChatRequest) []groq.Message {
	system := chatSystemPrompt
	if req.TopicContext != "" {
		system = fmt.Sprintf("%s\n\nThe learner is currently studying: %s", chatSystemPrompt, req.TopicContext)
	}

	history := req.ConversationHistory
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}

	messages := make([]groq.Message, 0, len(history)+2)
	messages = append(messages, groq.Message{Role: "system", Content: system})
	for _, m := range history {
		if m.Role == "system" {
			continue
		}
		messages = append(messages, groq.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, groq.Message{Role: "user", Content: req.Message})
	return messages
}
