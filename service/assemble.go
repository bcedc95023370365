package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

// AssembleVideo builds the final MP4 from per-slide PNG frames and narration
// audio. Each slide becomes one segment whose length is the measured audio
// duration; segments are then joined losslessly with the concat demuxer.
//
// Expects workDir to contain slide_%03d.png and narration_%03d.mp3 for every
// slide. Returns the path of the assembled MP4 inside workDir.
func AssembleVideo(ctx context.Context, slides []*entities.Slide, workDir string) (string, error) {
	segmentPaths := make([]string, 0, len(slides))

	for _, slide := range slides {
		framePath := filepath.Join(workDir, fmt.Sprintf("slide_%03d.png", slide.SlideNumber))
		audioPath := filepath.Join(workDir, fmt.Sprintf("narration_%03d.mp3", slide.SlideNumber))
		segmentPath := filepath.Join(workDir, fmt.Sprintf("segment_%03d.mp4", slide.SlideNumber))

		duration := slide.Duration
		if slide.AudioDuration != nil && *slide.AudioDuration > 0 {
			duration = *slide.AudioDuration
		}

		args := []string{
			"-y",
			"-loop", "1",
			"-i", framePath,
			"-i", audioPath,
			"-c:v", "libx264",
			"-preset", "veryfast",
			"-tune", "stillimage",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac",
			"-b:a", "192k",
			"-t", fmt.Sprintf("%.3f", duration),
			"-shortest",
			segmentPath,
		}

		cmd := exec.CommandContext(ctx, "ffmpeg", args...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			zerolog.Ctx(ctx).Error().
				Int("slide_number", slide.SlideNumber).
				Str("ffmpeg_output", tail(string(output), 2000)).
				Msg("segment encode failed")
			return "", apperr.Wrap(apperr.KindInternal, "FFMPEG_FAILED",
				fmt.Errorf("encode segment %d: %w", slide.SlideNumber, err))
		}
		segmentPaths = append(segmentPaths, segmentPath)
	}

	listPath := filepath.Join(workDir, "segments.txt")
	var listBuilder strings.Builder
	for _, p := range segmentPaths {
		listBuilder.WriteString(fmt.Sprintf("file '%s'\n", filepath.Base(p)))
	}
	if err := os.WriteFile(listPath, []byte(listBuilder.String()), 0644); err != nil {
		return "", err
	}

	outputPath := filepath.Join(workDir, "lecture.mp4")
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Dir = workDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Str("ffmpeg_output", tail(string(output), 2000)).
			Msg("concat failed")
		return "", apperr.Wrap(apperr.KindInternal, "FFMPEG_FAILED",
			fmt.Errorf("concat segments: %w", err))
	}

	return outputPath, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
