package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/repository"
)

type fakeTTS struct {
	fail bool
}

func (f *fakeTTS) Synthesize(_ context.Context, _ string) ([]byte, error) {
	if f.fail {
		return nil, errors.New("voice service unavailable")
	}
	return []byte("not real audio"), nil
}

// memStore records uploads in memory.
type memStore struct {
	mu       sync.Mutex
	uploaded map[string]string
}

func (m *memStore) UploadFile(_ context.Context, objectKey, localPath, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploaded == nil {
		m.uploaded = map[string]string{}
	}
	m.uploaded[objectKey] = localPath
	return m.URL(objectKey), nil
}

func (m *memStore) UploadBytes(_ context.Context, objectKey string, _ []byte, _ string) (string, error) {
	return m.URL(objectKey), nil
}

func (m *memStore) Download(_ context.Context, _, _ string) error { return nil }

func (m *memStore) Fetch(_ context.Context, _ string) ([]byte, error) { return nil, nil }

func (m *memStore) Remove(_ context.Context, _ string) error { return nil }

func (m *memStore) URL(objectKey string) string { return "http://store.test/" + objectKey }

type audioRepoStub struct {
	repository.Repository
	mu        sync.Mutex
	durations map[uuid.UUID]float64
}

func (s *audioRepoStub) UpdateSlideAudio(_ context.Context, slideID uuid.UUID, _ string, audioDuration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.durations == nil {
		s.durations = map[uuid.UUID]float64{}
	}
	s.durations[slideID] = audioDuration
	return nil
}

func TestGenerateNarrationFailureIsFatal(t *testing.T) {
	slides := []*entities.Slide{
		{ID: uuid.New(), SlideNumber: 0, Narration: "hello", Duration: 10},
	}
	svc := NewNarrationService(&audioRepoStub{}, &fakeTTS{fail: true}, &memStore{})

	err := svc.GenerateNarration(context.Background(), "lec-1", slides, t.TempDir())
	if err == nil {
		t.Fatal("a TTS failure must fail the batch")
	}
	if apperr.CodeOf(err) != "TTS_FAILED" {
		t.Errorf("code = %q, want TTS_FAILED", apperr.CodeOf(err))
	}
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Errorf("kind = %v, want upstream", apperr.KindOf(err))
	}
}

func TestGenerateNarrationFallsBackToPlannedDuration(t *testing.T) {
	slide := &entities.Slide{ID: uuid.New(), SlideNumber: 0, Narration: "hello", Duration: 12.5}
	repo := &audioRepoStub{}
	store := &memStore{}
	svc := NewNarrationService(repo, &fakeTTS{}, store)

	// The fake audio bytes are not a real mp3, so probing fails and the
	// planned duration must survive.
	if err := svc.GenerateNarration(context.Background(), "lec-1", []*entities.Slide{slide}, t.TempDir()); err != nil {
		t.Fatal(err)
	}

	if got := repo.durations[slide.ID]; got != 12.5 {
		t.Errorf("persisted duration = %v, want planned 12.5", got)
	}
	if len(store.uploaded) != 1 {
		t.Errorf("uploads = %d, want 1", len(store.uploaded))
	}
	if _, ok := store.uploaded["lectures/lec-1/audio/narration_000.mp3"]; !ok {
		t.Errorf("unexpected object keys: %v", store.uploaded)
	}
}
