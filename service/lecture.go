package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/rabbitmq"
	"github.com/varunaditya27/EduSynth/repository"
)

// LectureService is the API-side surface: it persists lectures and decks,
// enqueues their jobs, and answers status polls. The heavy lifting happens in
// the consumers.
type LectureService struct {
	repo      repository.Repository
	publisher rabbitmq.Publisher
}

func NewLectureService(repo repository.Repository, publisher rabbitmq.Publisher) *LectureService {
	return &LectureService{repo: repo, publisher: publisher}
}

// Create persists a lecture in PENDING, creates its generation job, and
// publishes the job message. The lecture row is the source of truth; if the
// publish fails the transaction rolls back and nothing is half-created.
func (s *LectureService) Create(ctx context.Context, req dto.CreateLectureRequest, userID *uuid.UUID) (*entities.Lecture, *entities.GenerationJob, error) {
	theme := constant.VisualTheme(req.VisualTheme)
	if req.VisualTheme == "" {
		theme = constant.ThemeMinimalist
	}
	if !theme.Valid() {
		return nil, nil, apperr.New(apperr.KindValidation, "INVALID_THEME", "unknown visual theme %q", req.VisualTheme)
	}

	lecture := &entities.Lecture{
		ID:             uuid.New(),
		Topic:          strings.TrimSpace(req.Topic),
		TargetAudience: strings.TrimSpace(req.TargetAudience),
		DesiredLength:  req.DesiredLength,
		VisualTheme:    theme,
		VideoStatus:    constant.VideoStatusPending,
	}
	if userID != nil {
		lecture.UserID = userID
	}
	if lecture.Topic == "" {
		return nil, nil, apperr.New(apperr.KindValidation, "EMPTY_TOPIC", "topic must not be empty")
	}

	lectureID := lecture.ID
	job := &entities.GenerationJob{
		ID:        uuid.New(),
		LectureID: &lectureID,
		JobType:   constant.JobTypeLecturePipeline,
		Status:    constant.JobStatusPending,
	}

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateLecture(ctx, lecture); err != nil {
			return err
		}
		if err := s.repo.CreateJob(ctx, job); err != nil {
			return err
		}
		return s.publisher.PublishLectureJob(ctx, dto.LectureJobMessage{
			JobID:     job.ID,
			LectureID: lecture.ID,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("lecture_id", lecture.ID.String()).
		Str("job_id", job.ID.String()).
		Msg("lecture job enqueued")
	return lecture, job, nil
}

// CreateDeck persists an interactive deck request and enqueues its build.
func (s *LectureService) CreateDeck(ctx context.Context, req dto.AnimationGenerationRequest, userID *uuid.UUID) (*entities.SlideDeck, *entities.GenerationJob, error) {
	theme := constant.VisualTheme(req.Theme)
	if req.Theme == "" {
		theme = constant.ThemeMinimalist
	}
	if !theme.Valid() {
		return nil, nil, apperr.New(apperr.KindValidation, "INVALID_THEME", "unknown visual theme %q", req.Theme)
	}

	deck := &entities.SlideDeck{
		ID:              uuid.New(),
		UserID:          userID,
		Topic:           strings.TrimSpace(req.Topic),
		Audience:        strings.TrimSpace(req.Audience),
		DurationMinutes: ParseLengthMinutes(req.Length),
		Theme:           theme,
		Format:          constant.DeckFormatInteractive,
	}
	if deck.Topic == "" {
		return nil, nil, apperr.New(apperr.KindValidation, "EMPTY_TOPIC", "topic must not be empty")
	}

	deckID := deck.ID
	job := &entities.GenerationJob{
		ID:      uuid.New(),
		DeckID:  &deckID,
		JobType: constant.JobTypeDeckBuild,
		Status:  constant.JobStatusPending,
	}

	err := s.repo.Transaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateDeck(ctx, deck); err != nil {
			return err
		}
		if err := s.repo.CreateJob(ctx, job); err != nil {
			return err
		}
		return s.publisher.PublishDeckJob(ctx, dto.DeckJobMessage{
			JobID:  job.ID,
			DeckID: deck.ID,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return deck, job, nil
}

// Status maps a lecture and its latest job onto the legacy polling shape.
func (s *LectureService) Status(ctx context.Context, lectureID uuid.UUID) (*dto.TaskStatusResponse, error) {
	lecture, err := s.repo.FindLectureById(ctx, lectureID)
	if err != nil {
		return nil, err
	}

	progress := lecture.VideoStatus.Progress()
	if lecture.VideoStatus == constant.VideoStatusFailed {
		if job, jobErr := s.repo.FindLatestJobForLecture(ctx, lectureID); jobErr == nil {
			progress = job.Progress
		}
	}

	return &dto.TaskStatusResponse{
		TaskID:       lecture.ID,
		Status:       lecture.VideoStatus.Legacy(),
		Progress:     progress,
		VideoURL:     lecture.VideoURL,
		SlidesPdfURL: lecture.SlidesPdfURL,
		ErrorMessage: lecture.ErrorMessage,
	}, nil
}

func (s *LectureService) Get(ctx context.Context, lectureID uuid.UUID) (*entities.Lecture, error) {
	return s.repo.FindLectureWithSlides(ctx, lectureID)
}

func (s *LectureService) List(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]*entities.Lecture, error) {
	return s.repo.ListLectures(ctx, userID, limit, offset)
}

func (s *LectureService) Delete(ctx context.Context, lectureID uuid.UUID) error {
	return s.repo.DeleteLecture(ctx, lectureID)
}

// ParseLengthMinutes extracts minutes from free-form lengths like "3 min",
// "5 minutes", or "4". Unparseable input falls back to 5 minutes.
func ParseLengthMinutes(length string) int {
	fields := strings.Fields(strings.TrimSpace(length))
	if len(fields) == 0 {
		return 5
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return 5
	}
	if n > 60 {
		return 60
	}
	return n
}
