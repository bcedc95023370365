package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/repository"
)

const defaultQuizQuestions = 3

type QuizService struct {
	repo repository.Repository
	llm  TextGenerator
}

func NewQuizService(repo repository.Repository, llm TextGenerator) *QuizService {
	return &QuizService{repo: repo, llm: llm}
}

// Generate returns the quiz for a lecture. Existing questions are reused
// unless regenerate is set, in which case they are replaced atomically.
func (s *QuizService) Generate(ctx context.Context, lectureID uuid.UUID, req dto.GenerateQuizRequest) (*dto.QuizResponse, error) {
	lecture, err := s.repo.FindLectureById(ctx, lectureID)
	if err != nil {
		return nil, err
	}

	format := constant.QuizFormat(req.Format)
	if req.Format == "" {
		format = constant.QuizFormatPlain
	}
	if !format.Valid() {
		return nil, apperr.New(apperr.KindValidation, "INVALID_FORMAT", "unknown quiz format %q", req.Format)
	}

	numQuestions := req.NumQuestions
	if numQuestions <= 0 {
		numQuestions = defaultQuizQuestions
	}

	if !req.Regenerate {
		existing, err := s.repo.GetQuizQuestionsByLectureId(ctx, lectureID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return s.buildResponse(lecture, existing, format, true), nil
		}
	}

	payloads, err := s.generateQuestions(ctx, lecture, numQuestions)
	if err != nil {
		return nil, err
	}

	questions := make([]*entities.QuizQuestion, len(payloads))
	for i, p := range payloads {
		q := &entities.QuizQuestion{
			ID:             uuid.New(),
			LectureID:      lectureID,
			QuestionNumber: i,
			Question:       p.Question,
			Options:        p.Options,
			CorrectAnswer:  p.CorrectAnswer,
		}
		if p.Explanation != "" {
			e := p.Explanation
			q.Explanation = &e
		}
		if p.Difficulty != "" {
			d := p.Difficulty
			q.Difficulty = &d
		}
		questions[i] = q
	}

	err = s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteQuizQuestions(ctx, lectureID); err != nil {
			return err
		}
		return s.repo.CreateQuizQuestions(ctx, questions)
	})
	if err != nil {
		return nil, err
	}

	return s.buildResponse(lecture, questions, format, false), nil
}

// Get returns the stored quiz without generating.
func (s *QuizService) Get(ctx context.Context, lectureID uuid.UUID, format constant.QuizFormat) (*dto.QuizResponse, error) {
	lecture, err := s.repo.FindLectureById(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = constant.QuizFormatPlain
	}
	if !format.Valid() {
		return nil, apperr.New(apperr.KindValidation, "INVALID_FORMAT", "unknown quiz format %q", format)
	}

	questions, err := s.repo.GetQuizQuestionsByLectureId(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "QUIZ_NOT_FOUND", "no quiz generated for this lecture")
	}
	return s.buildResponse(lecture, questions, format, true), nil
}

func (s *QuizService) buildResponse(lecture *entities.Lecture, questions []*entities.QuizQuestion, format constant.QuizFormat, reused bool) *dto.QuizResponse {
	payloads := make([]dto.QuizQuestionPayload, len(questions))
	for i, q := range questions {
		p := dto.QuizQuestionPayload{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		}
		if q.Explanation != nil {
			p.Explanation = *q.Explanation
		}
		if q.Difficulty != nil {
			p.Difficulty = *q.Difficulty
		}
		payloads[i] = p
	}

	return &dto.QuizResponse{
		LectureID: lecture.ID,
		Topic:     lecture.Topic,
		Format:    string(format),
		Questions: payloads,
		Exported:  FormatQuiz(lecture.Topic, payloads, format),
		Reused:    reused,
	}
}

type quizDoc struct {
	Questions []dto.QuizQuestionPayload `json:"questions"`
}

func (s *QuizService) generateQuestions(ctx context.Context, lecture *entities.Lecture, count int) ([]dto.QuizQuestionPayload, error) {
	slides, err := s.repo.GetSlidesByLectureId(ctx, lecture.ID)
	if err != nil {
		return nil, err
	}

	var contextBuilder strings.Builder
	for _, slide := range slides {
		contextBuilder.WriteString(slide.Title)
		contextBuilder.WriteString(": ")
		contextBuilder.WriteString(slide.Narration)
		contextBuilder.WriteString("\n")
	}
	material := contextBuilder.String()
	if material == "" {
		material = lecture.Topic
	}

	prompt := fmt.Sprintf(`Create a multiple-choice quiz from this lecture material.

Topic: %s
Material:
%s

Produce exactly %d questions as a JSON object:
{
  "questions": [
    {
      "question": "...",
      "options": ["...", "...", "...", "..."],
      "correctAnswer": 0,
      "explanation": "...",
      "difficulty": "easy"
    }
  ]
}

Rules:
- Exactly 4 options per question.
- "correctAnswer" is the 0-based index of the right option.
- "difficulty" is one of: easy, medium, hard.
- Respond with ONLY the JSON object.`, lecture.Topic, material, count)

	raw, err := s.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "LLM_UNAVAILABLE", err)
	}

	payloads, parseErr := parseQuiz(raw)
	if parseErr != nil {
		zerolog.Ctx(ctx).Warn().Err(parseErr).Msg("malformed quiz, re-prompting once")
		raw, err = s.llm.GenerateJSON(ctx, fmt.Sprintf(
			"The previous response was invalid (%v). Return ONLY the corrected JSON object.\n\nPrevious response:\n%s",
			parseErr, raw))
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, "LLM_UNAVAILABLE", err)
		}
		payloads, parseErr = parseQuiz(raw)
		if parseErr != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, "MALFORMED_CONTENT", parseErr)
		}
	}

	if len(payloads) > count {
		payloads = payloads[:count]
	}
	return payloads, nil
}

func parseQuiz(raw string) ([]dto.QuizQuestionPayload, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var doc quizDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("quiz has no questions")
	}
	for i, q := range doc.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d is empty", i)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d has %d options, want 4", i, len(q.Options))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			return nil, fmt.Errorf("question %d has correctAnswer %d out of range", i, q.CorrectAnswer)
		}
	}
	return doc.Questions, nil
}

// FormatQuiz renders questions in the requested export format: plain text,
// Moodle GIFT, or the Canvas CSV import layout.
func FormatQuiz(topic string, questions []dto.QuizQuestionPayload, format constant.QuizFormat) string {
	switch format {
	case constant.QuizFormatMoodle:
		return formatGIFT(topic, questions)
	case constant.QuizFormatCanvas:
		return formatCanvasCSV(questions)
	default:
		return formatPlain(topic, questions)
	}
}

func formatPlain(topic string, questions []dto.QuizQuestionPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quiz: %s\n\n", topic)
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			marker := " "
			if j == q.CorrectAnswer {
				marker = "*"
			}
			fmt.Fprintf(&b, "  %s %c) %s\n", marker, 'a'+j, opt)
		}
		if q.Explanation != "" {
			fmt.Fprintf(&b, "  Explanation: %s\n", q.Explanation)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatGIFT(topic string, questions []dto.QuizQuestionPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n\n", topic)
	for i, q := range questions {
		fmt.Fprintf(&b, "::Q%d:: %s {\n", i+1, giftEscape(q.Question))
		for j, opt := range q.Options {
			prefix := "~"
			if j == q.CorrectAnswer {
				prefix = "="
			}
			fmt.Fprintf(&b, "%s%s\n", prefix, giftEscape(opt))
		}
		if q.Explanation != "" {
			fmt.Fprintf(&b, "####%s\n", giftEscape(q.Explanation))
		}
		b.WriteString("}\n\n")
	}
	return b.String()
}

func giftEscape(s string) string {
	r := strings.NewReplacer(
		"~", `\~`,
		"=", `\=`,
		"#", `\#`,
		"{", `\{`,
		"}", `\}`,
		":", `\:`,
	)
	return r.Replace(s)
}

func formatCanvasCSV(questions []dto.QuizQuestionPayload) string {
	var b strings.Builder
	b.WriteString("Question,Option A,Option B,Option C,Option D,Correct Answer\n")
	for _, q := range questions {
		fields := []string{q.Question, q.Options[0], q.Options[1], q.Options[2], q.Options[3],
			string(rune('A' + q.CorrectAnswer))}
		for i, f := range fields {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(csvQuote(f))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func csvQuote(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
