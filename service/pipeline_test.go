package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/varunaditya27/EduSynth/config"
	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
)

func testRenderer(t *testing.T) *SlideRenderer {
	t.Helper()
	fontPath := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(fontPath, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	renderer, err := NewSlideRenderer(fontPath)
	if err != nil {
		t.Fatal(err)
	}
	return renderer
}

func pipelineFixture(t *testing.T, llm *fakeLLM) (PipelineService, *memRepo, *memStore, dto.LectureJobMessage) {
	t.Helper()
	repo := newMemRepo()
	lecture := &entities.Lecture{
		ID:             uuid.New(),
		Topic:          "Photosynthesis",
		TargetAudience: "students",
		DesiredLength:  3,
		VisualTheme:    constant.ThemeMinimalist,
		VideoStatus:    constant.VideoStatusPending,
	}
	if err := repo.CreateLecture(context.Background(), lecture); err != nil {
		t.Fatal(err)
	}
	job := &entities.GenerationJob{
		ID:        uuid.New(),
		LectureID: &lecture.ID,
		JobType:   constant.JobTypeLecturePipeline,
		Status:    constant.JobStatusPending,
	}
	if err := repo.CreateJob(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	store := &memStore{}
	svc := NewPipelineService(
		repo,
		NewContentService(llm),
		testRenderer(t),
		NewAssetService(repo, &fakeImages{png: tinyPNG(t)}),
		NewNarrationService(repo, &fakeTTS{}, store),
		store,
		&config.Pipeline{WorkDir: t.TempDir(), StageTimeout: time.Minute},
	)
	return svc, repo, store, dto.LectureJobMessage{JobID: job.ID, LectureID: lecture.ID}
}

// The assembly stage shells out to ffmpeg, which cannot encode the fake
// narration bytes, so a full run always ends in the deferred failure path.
// That makes the stage trail up to ASSEMBLING_VIDEO observable.
func TestPipelineProcessAdvancesStagesInOrder(t *testing.T) {
	llm := &fakeLLM{responses: []string{validPlan}}
	svc, repo, store, msg := pipelineFixture(t, llm)
	ctx := context.Background()

	if err := svc.Process(ctx, msg); err != nil {
		t.Fatalf("pipeline errors must be swallowed after marking failure, got %v", err)
	}

	want := []constant.VideoStatus{
		constant.VideoStatusGeneratingContent,
		constant.VideoStatusCreatingSlides,
		constant.VideoStatusFetchingImages,
		constant.VideoStatusGeneratingAudio,
		constant.VideoStatusAssemblingVideo,
	}
	got := repo.trail()
	if len(got) != len(want) {
		t.Fatalf("status trail = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status trail = %v, want %v", got, want)
		}
	}

	slides, _ := repo.GetSlidesByLectureId(ctx, msg.LectureID)
	if len(slides) != 3 {
		t.Fatalf("slides created = %d, want 3", len(slides))
	}
	for _, s := range slides {
		if s.SlideImageURL == nil {
			t.Errorf("slide %d frame was not rendered and uploaded", s.SlideNumber)
		}
	}
	frameKey := "lectures/" + msg.LectureID.String() + "/frames/slide_000.png"
	if _, ok := store.uploaded[frameKey]; !ok {
		t.Errorf("missing frame upload, got %v", store.uploaded)
	}
}

func TestPipelineProcessMarksFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("gemini down")}
	svc, repo, _, msg := pipelineFixture(t, llm)
	ctx := context.Background()

	if err := svc.Process(ctx, msg); err != nil {
		t.Fatalf("failure must not be redelivered, got %v", err)
	}

	lecture, _ := repo.FindLectureById(ctx, msg.LectureID)
	if lecture.VideoStatus != constant.VideoStatusFailed {
		t.Errorf("lecture status = %s, want FAILED", lecture.VideoStatus)
	}
	if lecture.ErrorMessage == nil {
		t.Error("lecture should carry the failure message")
	}

	job, _ := repo.FindJobById(ctx, msg.JobID)
	if job.Status != constant.JobStatusFailed {
		t.Errorf("job status = %s, want FAILED", job.Status)
	}
	if job.ErrorCode == nil || *job.ErrorCode != "LLM_UNAVAILABLE" {
		t.Errorf("error code = %v, want LLM_UNAVAILABLE", job.ErrorCode)
	}

	got := repo.trail()
	if len(got) != 1 || got[0] != constant.VideoStatusGeneratingContent {
		t.Errorf("status trail = %v, want only GENERATING_CONTENT", got)
	}
}

func TestPipelineProcessSkipsNonPendingJob(t *testing.T) {
	llm := &fakeLLM{responses: []string{validPlan}}
	svc, repo, _, msg := pipelineFixture(t, llm)
	ctx := context.Background()

	if err := repo.MarkJobStarted(ctx, msg.JobID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Process(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if llm.calls != 0 {
		t.Errorf("redelivered job must not regenerate, llm calls = %d", llm.calls)
	}
	if len(repo.trail()) != 0 {
		t.Errorf("status trail = %v, want empty", repo.trail())
	}
}

func TestPipelineProcessSkipsTerminalLecture(t *testing.T) {
	llm := &fakeLLM{responses: []string{validPlan}}
	svc, repo, _, msg := pipelineFixture(t, llm)
	ctx := context.Background()

	lecture, _ := repo.FindLectureById(ctx, msg.LectureID)
	lecture.VideoStatus = constant.VideoStatusCompleted

	if err := svc.Process(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if llm.calls != 0 {
		t.Errorf("terminal lecture must not be reprocessed, llm calls = %d", llm.calls)
	}
}
