package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/config"
	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/storage"
	"github.com/varunaditya27/EduSynth/repository"
)

// PipelineService drives a lecture from PENDING to COMPLETED through the six
// pipeline stages. Any stage error marks both the lecture and the job FAILED;
// the message is then acked, so a failed lecture never loops.
type PipelineService interface {
	Process(ctx context.Context, message dto.LectureJobMessage) error
}

type pipelineService struct {
	repo      repository.Repository
	content   *ContentService
	renderer  *SlideRenderer
	assets    *AssetService
	narration *NarrationService
	store     storage.ObjectStore
	cfg       *config.Pipeline
}

func NewPipelineService(
	repo repository.Repository,
	content *ContentService,
	renderer *SlideRenderer,
	assets *AssetService,
	narration *NarrationService,
	store storage.ObjectStore,
	cfg *config.Pipeline,
) PipelineService {
	return &pipelineService{
		repo:      repo,
		content:   content,
		renderer:  renderer,
		assets:    assets,
		narration: narration,
		store:     store,
		cfg:       cfg,
	}
}

func (s *pipelineService) Process(ctx context.Context, message dto.LectureJobMessage) (err error) {
	logger := zerolog.Ctx(ctx).With().
		Str("job_id", message.JobID.String()).
		Str("lecture_id", message.LectureID.String()).
		Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Msg("processing lecture job")

	job, err := s.repo.FindJobById(ctx, message.JobID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to find job by id")
		return err
	}
	if job.Status != constant.JobStatusPending {
		logger.Info().Str("status", string(job.Status)).Msg("job is not pending, skipping")
		return nil
	}

	lecture, err := s.repo.FindLectureById(ctx, message.LectureID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to find lecture")
		return err
	}
	if lecture.VideoStatus.Terminal() {
		logger.Info().Str("status", lecture.VideoStatus.String()).Msg("lecture already terminal, skipping")
		return nil
	}

	if err = s.repo.MarkJobStarted(ctx, job.ID); err != nil {
		return err
	}

	defer func() {
		if err != nil {
			logger.Error().Err(err).Msg("lecture pipeline failed")
			code := apperr.CodeOf(err)
			if code == "" {
				code = "PIPELINE_ERROR"
			}
			if failErr := s.repo.FailLecture(ctx, lecture.ID, err.Error()); failErr != nil {
				logger.Error().Err(failErr).Msg("failed to mark lecture failed")
			}
			if failErr := s.repo.FailJob(ctx, job.ID, code, err.Error()); failErr != nil {
				logger.Error().Err(failErr).Msg("failed to mark job failed")
			}
			// Errors are terminal for the lecture; never redeliver.
			err = nil
		}
	}()

	workDir := filepath.Join(s.cfg.WorkDir, lecture.ID.String())
	if err = os.MkdirAll(workDir, os.ModePerm); err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	// Stage 1: structured content.
	if err = s.advance(ctx, lecture, job.ID, constant.VideoStatusGeneratingContent); err != nil {
		return err
	}
	var plan []dto.SlidePlan
	if err = s.stage(ctx, func(sc context.Context) error {
		var stageErr error
		plan, stageErr = s.content.GenerateSlidePlan(sc, lecture.Topic, lecture.TargetAudience, lecture.DesiredLength)
		return stageErr
	}); err != nil {
		return err
	}

	slides := slidesFromPlan(lecture.ID, plan)
	if err = s.repo.CreateSlides(ctx, slides); err != nil {
		return err
	}

	// Stage 2 runs after images so photos land on the frames; the status
	// still advances here so progress reporting matches the stage order.
	if err = s.advance(ctx, lecture, job.ID, constant.VideoStatusCreatingSlides); err != nil {
		return err
	}

	// Stage 3: stock photos, best effort.
	if err = s.advance(ctx, lecture, job.ID, constant.VideoStatusFetchingImages); err != nil {
		return err
	}
	var photos map[string]SlidePhoto
	if err = s.stage(ctx, func(sc context.Context) error {
		var stageErr error
		photos, stageErr = s.assets.FetchSlideImages(sc, slides)
		return stageErr
	}); err != nil {
		return err
	}

	if err = s.renderFrames(ctx, lecture, slides, photos, workDir); err != nil {
		return err
	}

	// Stage 4: narration audio, fatal on failure.
	if err = s.advance(ctx, lecture, job.ID, constant.VideoStatusGeneratingAudio); err != nil {
		return err
	}
	if err = s.stage(ctx, func(sc context.Context) error {
		return s.narration.GenerateNarration(sc, lecture.ID.String(), slides, workDir)
	}); err != nil {
		return err
	}

	// Reload so assembly sees the measured audio durations.
	slides, err = s.repo.GetSlidesByLectureId(ctx, lecture.ID)
	if err != nil {
		return err
	}

	// Stage 5: assemble and upload.
	if err = s.advance(ctx, lecture, job.ID, constant.VideoStatusAssemblingVideo); err != nil {
		return err
	}
	videoPath, err := AssembleVideo(ctx, slides, workDir)
	if err != nil {
		return err
	}

	videoKey := fmt.Sprintf("lectures/%s/lecture.mp4", lecture.ID)
	videoURL, err := s.store.UploadFile(ctx, videoKey, videoPath, "video/mp4")
	if err != nil {
		return err
	}

	slidesPdfURL := s.exportHandouts(ctx, lecture, slides, workDir)

	if err = s.repo.CompleteLecture(ctx, lecture.ID, videoURL, slidesPdfURL); err != nil {
		return err
	}
	if err = s.repo.CompleteJob(ctx, job.ID); err != nil {
		return err
	}

	logger.Info().Str("video_url", videoURL).Msg("lecture completed")
	return nil
}

// advance moves the lecture forward one status and mirrors the fixed
// progress onto the job row.
func (s *pipelineService) advance(ctx context.Context, lecture *entities.Lecture, jobID uuid.UUID, status constant.VideoStatus) error {
	if err := s.repo.UpdateLectureStatus(ctx, lecture.ID, status); err != nil {
		return err
	}
	lecture.VideoStatus = status
	if err := s.repo.UpdateJobProgress(ctx, jobID, status.Progress()); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to update job progress")
	}
	return nil
}

// stage runs fn under the per-stage timeout.
func (s *pipelineService) stage(ctx context.Context, fn func(ctx context.Context) error) error {
	sc, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
	defer cancel()
	return fn(sc)
}

func (s *pipelineService) renderFrames(ctx context.Context, lecture *entities.Lecture, slides []*entities.Slide, photos map[string]SlidePhoto, workDir string) error {
	for _, slide := range slides {
		plan := dto.SlidePlan{
			Index:     slide.SlideNumber,
			Title:     slide.Title,
			Points:    slide.Points,
			Narration: slide.Narration,
			Duration:  slide.Duration,
		}

		var photo SlidePhoto
		if p, ok := photos[slide.ID.String()]; ok {
			photo = p
		}

		frame, err := s.renderer.Render(plan, lecture.VisualTheme, photo.Photo, photo.Attribution)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "RENDER_FAILED",
				fmt.Errorf("render slide %d: %w", slide.SlideNumber, err))
		}

		framePath := filepath.Join(workDir, fmt.Sprintf("slide_%03d.png", slide.SlideNumber))
		if err := os.WriteFile(framePath, frame, 0644); err != nil {
			return err
		}

		frameKey := fmt.Sprintf("lectures/%s/frames/slide_%03d.png", lecture.ID, slide.SlideNumber)
		url, err := s.store.UploadFile(ctx, frameKey, framePath, "image/png")
		if err != nil {
			return err
		}
		if err := s.repo.UpdateSlideRender(ctx, slide.ID, url); err != nil {
			return err
		}
	}
	return nil
}

// exportHandouts builds the PDF and PPTX companions. Both are best effort;
// the video is the deliverable.
func (s *pipelineService) exportHandouts(ctx context.Context, lecture *entities.Lecture, slides []*entities.Slide, workDir string) string {
	logger := zerolog.Ctx(ctx)

	pdfPath, err := ExportSlidesPDF(lecture, slides, workDir, PDFOptions{})
	if err != nil {
		logger.Warn().Err(err).Msg("pdf export failed")
		return ""
	}
	pdfKey := fmt.Sprintf("lectures/%s/slides.pdf", lecture.ID)
	pdfURL, err := s.store.UploadFile(ctx, pdfKey, pdfPath, "application/pdf")
	if err != nil {
		logger.Warn().Err(err).Msg("pdf upload failed")
		return ""
	}

	pptxPath, err := ExportSlidesPPTX(lecture, slides, workDir)
	if err != nil {
		logger.Warn().Err(err).Msg("pptx export failed")
		return pdfURL
	}
	pptxKey := fmt.Sprintf("lectures/%s/slides.pptx", lecture.ID)
	if _, err := s.store.UploadFile(ctx, pptxKey, pptxPath,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation"); err != nil {
		logger.Warn().Err(err).Msg("pptx upload failed")
	}

	return pdfURL
}

func slidesFromPlan(lectureID uuid.UUID, plan []dto.SlidePlan) []*entities.Slide {
	slides := make([]*entities.Slide, len(plan))
	for i, p := range plan {
		slide := &entities.Slide{
			ID:          uuid.New(),
			LectureID:   lectureID,
			SlideNumber: p.Index,
			Title:       p.Title,
			Points:      p.Points,
			Narration:   p.Narration,
			Duration:    p.Duration,
		}
		if p.ImageQuery != "" {
			q := p.ImageQuery
			slide.ImageQuery = &q
		}
		slides[i] = slide
	}
	return slides
}
