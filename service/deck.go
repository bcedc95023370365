package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/storage"
	"github.com/varunaditya27/EduSynth/repository"
)

// DeckService builds interactive slide decks. Unlike the video pipeline a
// deck build is retryable, so the deck consumer runs it under a retry budget
// and dead-letters exhausted messages.
type DeckService interface {
	Process(ctx context.Context, message dto.DeckJobMessage) error
	// FailBuild records the terminal failure once the consumer's retry
	// budget is spent, so the job does not stay PROCESSING after the
	// message is dead-lettered.
	FailBuild(ctx context.Context, message dto.DeckJobMessage, cause error) error
}

type deckService struct {
	repo  repository.Repository
	llm   TextGenerator
	store storage.ObjectStore
}

func NewDeckService(repo repository.Repository, llm TextGenerator, store storage.ObjectStore) DeckService {
	return &deckService{repo: repo, llm: llm, store: store}
}

func (s *deckService) Process(ctx context.Context, message dto.DeckJobMessage) error {
	logger := zerolog.Ctx(ctx).With().
		Str("job_id", message.JobID.String()).
		Str("deck_id", message.DeckID.String()).
		Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("processing deck job")

	job, err := s.repo.FindJobById(ctx, message.JobID)
	if err != nil {
		return err
	}
	if job.Status == constant.JobStatusCompleted {
		logger.Info().Msg("job already completed, skipping")
		return nil
	}

	deck, err := s.repo.FindDeckById(ctx, message.DeckID)
	if err != nil {
		return err
	}

	if err := s.repo.MarkJobStarted(ctx, job.ID); err != nil {
		return err
	}

	doc, err := s.generateDeck(ctx, deck.Topic, deck.Audience, deck.DurationMinutes, string(deck.Theme))
	if err != nil {
		// Let the consumer's retry budget decide; only the final failure
		// marks the job.
		return err
	}
	doc.DeckID = deck.ID
	doc.GeneratedAt = time.Now().UTC()

	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])

	objectKey := fmt.Sprintf("decks/%s/deck.json", deck.ID)
	if _, err := s.store.UploadBytes(ctx, objectKey, body, "application/json"); err != nil {
		return err
	}

	if err := s.repo.UpdateDeckObject(ctx, deck.ID, objectKey, checksum,
		len(doc.Slides), doc.InteractionCount, doc.EstimatedSeconds); err != nil {
		return err
	}
	if err := s.repo.CompleteJob(ctx, job.ID); err != nil {
		return err
	}

	logger.Info().Str("object_key", objectKey).Int("slides", len(doc.Slides)).Msg("deck completed")
	return nil
}

func (s *deckService) FailBuild(ctx context.Context, message dto.DeckJobMessage, cause error) error {
	code := apperr.CodeOf(cause)
	if code == "" {
		code = "DECK_BUILD_FAILED"
	}
	zerolog.Ctx(ctx).Error().Err(cause).
		Str("job_id", message.JobID.String()).
		Str("deck_id", message.DeckID.String()).
		Str("code", code).
		Msg("deck build failed permanently")
	return s.repo.FailJob(ctx, message.JobID, code, cause.Error())
}

type deckDoc struct {
	Slides []dto.DeckSlide `json:"slides"`
}

func (s *deckService) generateDeck(ctx context.Context, topic, audience string, minutes int, theme string) (*dto.DeckDocument, error) {
	if audience == "" {
		audience = "a general audience"
	}
	slideCount := SlideCountFor(minutes)

	prompt := fmt.Sprintf(`You are designing an interactive slide deck for a %d-minute lesson.

Topic: %s
Audience: %s
Visual theme: %s

Produce exactly %d slides as a JSON object:
{
  "slides": [
    {
      "index": 0,
      "title": "...",
      "narration": "...",
      "steps": [
        {"order": 0, "kind": "text", "text": "...", "animation": "fade-in", "seconds": 4.0}
      ],
      "interactions": [
        {"afterStep": 1, "kind": "quiz", "prompt": "...", "options": ["a","b","c","d"], "answer": 0}
      ]
    }
  ]
}

Rules:
- Each slide has 2 to 5 steps that reveal content progressively.
- "animation" is one of: fade-in, slide-up, zoom, highlight.
- Include at least one interaction on roughly half of the slides.
- Respond with ONLY the JSON object.`, minutes, topic, audience, theme, slideCount)

	raw, err := s.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "LLM_UNAVAILABLE", err)
	}

	body := extractJSONObject(raw)
	if body == "" {
		return nil, apperr.New(apperr.KindUpstream, "MALFORMED_CONTENT", "no JSON object in deck response")
	}
	var doc deckDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "MALFORMED_CONTENT", err)
	}
	if len(doc.Slides) == 0 {
		return nil, apperr.New(apperr.KindUpstream, "MALFORMED_CONTENT", "deck has no slides")
	}

	out := &dto.DeckDocument{
		Topic:    topic,
		Audience: audience,
		Theme:    theme,
		Slides:   doc.Slides,
	}
	for i := range out.Slides {
		out.Slides[i].Index = i
		out.Slides[i].Title = strings.TrimSpace(out.Slides[i].Title)
		for j := range out.Slides[i].Steps {
			out.Slides[i].Steps[j].Order = j
			if out.Slides[i].Steps[j].Seconds <= 0 {
				out.Slides[i].Steps[j].Seconds = 4
			}
			out.EstimatedSeconds += int(out.Slides[i].Steps[j].Seconds)
		}
		out.InteractionCount += len(out.Slides[i].Interactions)
	}
	return out, nil
}
