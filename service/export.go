package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/storage"
	"github.com/varunaditya27/EduSynth/repository"
)

// ExportService builds handouts on demand, outside the video pipeline. It
// reuses the slide frames the render stage already uploaded, so a lecture is
// exportable as soon as its frames exist even if narration or assembly later
// failed.
type ExportService struct {
	repo  repository.Repository
	store storage.ObjectStore
}

func NewExportService(repo repository.Repository, store storage.ObjectStore) *ExportService {
	return &ExportService{repo: repo, store: store}
}

func (s *ExportService) LecturePDF(ctx context.Context, lectureID uuid.UUID, opts PDFOptions) (*dto.ExportResponse, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	lecture, slides, workDir, err := s.stageFrames(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	path, err := ExportSlidesPDF(lecture, slides, workDir, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "EXPORT_FAILED", err)
	}

	key := fmt.Sprintf("lectures/%s/exports/slides_%s_%s.pdf", lectureID, opts.Orientation, opts.DevicePreset)
	url, err := s.store.UploadFile(ctx, key, path, "application/pdf")
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("lectureId", lectureID.String()).Str("key", key).Msg("pdf exported")
	return &dto.ExportResponse{LectureID: lectureID, Format: "pdf", URL: url}, nil
}

func (s *ExportService) LecturePPTX(ctx context.Context, lectureID uuid.UUID) (*dto.ExportResponse, error) {
	lecture, slides, workDir, err := s.stageFrames(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	path, err := ExportSlidesPPTX(lecture, slides, workDir)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "EXPORT_FAILED", err)
	}

	key := fmt.Sprintf("lectures/%s/exports/slides.pptx", lectureID)
	url, err := s.store.UploadFile(ctx, key, path,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation")
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("lectureId", lectureID.String()).Str("key", key).Msg("pptx exported")
	return &dto.ExportResponse{LectureID: lectureID, Format: "pptx", URL: url}, nil
}

// stageFrames downloads every rendered slide frame into a scratch directory
// laid out the way the exporters expect. The caller removes the directory.
func (s *ExportService) stageFrames(ctx context.Context, lectureID uuid.UUID) (*entities.Lecture, []*entities.Slide, string, error) {
	lecture, err := s.repo.FindLectureWithSlides(ctx, lectureID)
	if err != nil {
		return nil, nil, "", err
	}
	if len(lecture.Slides) == 0 {
		return nil, nil, "", apperr.New(apperr.KindConflict, "CONTENT_NOT_READY", "lecture has no slides yet")
	}

	slides := make([]*entities.Slide, len(lecture.Slides))
	for i := range lecture.Slides {
		slide := &lecture.Slides[i]
		if slide.SlideImageURL == nil {
			return nil, nil, "", apperr.New(apperr.KindConflict, "CONTENT_NOT_READY",
				"slide %d has not been rendered yet", slide.SlideNumber)
		}
		slides[i] = slide
	}

	workDir, err := os.MkdirTemp("", "export-*")
	if err != nil {
		return nil, nil, "", err
	}

	for _, slide := range slides {
		key := fmt.Sprintf("lectures/%s/frames/slide_%03d.png", lectureID, slide.SlideNumber)
		local := filepath.Join(workDir, fmt.Sprintf("slide_%03d.png", slide.SlideNumber))
		if err := s.store.Download(ctx, key, local); err != nil {
			os.RemoveAll(workDir)
			return nil, nil, "", apperr.Wrap(apperr.KindInternal, "FRAME_UNAVAILABLE", err)
		}
	}
	return lecture, slides, workDir, nil
}
