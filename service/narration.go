package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/storage"
	"github.com/varunaditya27/EduSynth/repository"
)

// SpeechSynthesizer is the text-to-speech surface. The ElevenLabs client
// satisfies it.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type NarrationService struct {
	repo  repository.Repository
	tts   SpeechSynthesizer
	store storage.ObjectStore
}

func NewNarrationService(repo repository.Repository, tts SpeechSynthesizer, store storage.ObjectStore) *NarrationService {
	return &NarrationService{repo: repo, tts: tts, store: store}
}

// GenerateNarration synthesizes audio for every slide, writes the files into
// workDir, uploads them, and persists the measured duration. Unlike image
// lookup, a TTS failure fails the lecture; a silent video is not acceptable.
// The measured audio duration replaces the planned slide duration for video
// timing.
func (s *NarrationService) GenerateNarration(ctx context.Context, lectureID string, slides []*entities.Slide, workDir string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	for _, slide := range slides {
		slide := slide
		g.Go(func() error {
			audio, err := s.tts.Synthesize(gctx, slide.Narration)
			if err != nil {
				return apperr.Wrap(apperr.KindUpstream, "TTS_FAILED",
					fmt.Errorf("slide %d: %w", slide.SlideNumber, err))
			}

			localPath := filepath.Join(workDir, fmt.Sprintf("narration_%03d.mp3", slide.SlideNumber))
			if err := os.WriteFile(localPath, audio, 0644); err != nil {
				return err
			}

			duration, err := ProbeDuration(gctx, localPath)
			if err != nil {
				zerolog.Ctx(gctx).Warn().Err(err).
					Int("slide_number", slide.SlideNumber).
					Msg("ffprobe failed, falling back to planned duration")
				duration = slide.Duration
			}

			objectKey := fmt.Sprintf("lectures/%s/audio/narration_%03d.mp3", lectureID, slide.SlideNumber)
			url, err := s.store.UploadFile(gctx, objectKey, localPath, "audio/mpeg")
			if err != nil {
				return err
			}

			return s.repo.UpdateSlideAudio(gctx, slide.ID, url, duration)
		})
	}

	return g.Wait()
}

// ProbeDuration asks ffprobe for the media duration in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparsable duration %q: %w", string(output), err)
	}
	return duration, nil
}
