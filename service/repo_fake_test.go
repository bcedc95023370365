package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

// memRepo is a full in-memory Repository for service tests. It records every
// lecture status written so tests can assert the stage order.
type memRepo struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*entities.User
	lectures    map[uuid.UUID]*entities.Lecture
	slides      map[uuid.UUID][]*entities.Slide
	quizzes     map[uuid.UUID][]*entities.QuizQuestion
	mindmaps    map[uuid.UUID]*entities.MindMap
	decks       map[uuid.UUID]*entities.SlideDeck
	jobs        map[uuid.UUID]*entities.GenerationJob
	statusTrail []constant.VideoStatus
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:    map[uuid.UUID]*entities.User{},
		lectures: map[uuid.UUID]*entities.Lecture{},
		slides:   map[uuid.UUID][]*entities.Slide{},
		quizzes:  map[uuid.UUID][]*entities.QuizQuestion{},
		mindmaps: map[uuid.UUID]*entities.MindMap{},
		decks:    map[uuid.UUID]*entities.SlideDeck{},
		jobs:     map[uuid.UUID]*entities.GenerationJob{},
	}
}

func (m *memRepo) trail() []constant.VideoStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]constant.VideoStatus, len(m.statusTrail))
	copy(out, m.statusTrail)
	return out
}

func (m *memRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, _ ...*sql.TxOptions) error {
	return callback(ctx)
}

func (m *memRepo) GetDB() *gorm.DB { return nil }

func (m *memRepo) CreateUser(_ context.Context, user *entities.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *memRepo) FindUserByEmail(_ context.Context, email string) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "USER_NOT_FOUND", "user not found")
}

func (m *memRepo) FindUserById(_ context.Context, id uuid.UUID) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "USER_NOT_FOUND", "user not found")
}

func (m *memRepo) CreateLecture(_ context.Context, lecture *entities.Lecture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lecture.ID == uuid.Nil {
		lecture.ID = uuid.New()
	}
	m.lectures[lecture.ID] = lecture
	return nil
}

func (m *memRepo) FindLectureById(_ context.Context, id uuid.UUID) (*entities.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lectures[id]; ok {
		return l, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "LECTURE_NOT_FOUND", "lecture not found")
}

func (m *memRepo) FindLectureWithSlides(ctx context.Context, id uuid.UUID) (*entities.Lecture, error) {
	lecture, err := m.FindLectureById(ctx, id)
	if err != nil {
		return nil, err
	}
	slides, _ := m.GetSlidesByLectureId(ctx, id)
	lecture.Slides = lecture.Slides[:0]
	for _, s := range slides {
		lecture.Slides = append(lecture.Slides, *s)
	}
	return lecture, nil
}

func (m *memRepo) ListLectures(_ context.Context, userID *uuid.UUID, limit, offset int) ([]*entities.Lecture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Lecture
	for _, l := range m.lectures {
		if userID == nil || (l.UserID != nil && *l.UserID == *userID) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) DeleteLecture(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lectures, id)
	delete(m.slides, id)
	delete(m.quizzes, id)
	delete(m.mindmaps, id)
	return nil
}

func (m *memRepo) UpdateLectureStatus(_ context.Context, id uuid.UUID, status constant.VideoStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lecture, ok := m.lectures[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "LECTURE_NOT_FOUND", "lecture not found")
	}
	if !lecture.VideoStatus.CanTransition(status) {
		return apperr.New(apperr.KindConflict, "ILLEGAL_TRANSITION", "cannot transition lecture from %s to %s", lecture.VideoStatus, status)
	}
	lecture.VideoStatus = status
	m.statusTrail = append(m.statusTrail, status)
	return nil
}

func (m *memRepo) FailLecture(_ context.Context, id uuid.UUID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lecture, ok := m.lectures[id]; ok {
		lecture.VideoStatus = constant.VideoStatusFailed
		lecture.ErrorMessage = &message
	}
	return nil
}

func (m *memRepo) CompleteLecture(_ context.Context, id uuid.UUID, videoURL, slidesPdfURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lecture, ok := m.lectures[id]; ok {
		lecture.VideoStatus = constant.VideoStatusCompleted
		lecture.VideoURL = &videoURL
		if slidesPdfURL != "" {
			lecture.SlidesPdfURL = &slidesPdfURL
		}
	}
	return nil
}

func (m *memRepo) CreateSlides(_ context.Context, slides []*entities.Slide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range slides {
		m.slides[s.LectureID] = append(m.slides[s.LectureID], s)
	}
	return nil
}

func (m *memRepo) GetSlidesByLectureId(_ context.Context, lectureID uuid.UUID) ([]*entities.Slide, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]*entities.Slide(nil), m.slides[lectureID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].SlideNumber < out[j].SlideNumber })
	return out, nil
}

func (m *memRepo) findSlide(slideID uuid.UUID) *entities.Slide {
	for _, slides := range m.slides {
		for _, s := range slides {
			if s.ID == slideID {
				return s
			}
		}
	}
	return nil
}

func (m *memRepo) UpdateSlideImage(_ context.Context, slideID uuid.UUID, imageURL, attribution string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.findSlide(slideID); s != nil {
		s.ImageURL = &imageURL
		s.ImageAttribution = &attribution
	}
	return nil
}

func (m *memRepo) UpdateSlideRender(_ context.Context, slideID uuid.UUID, slideImageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.findSlide(slideID); s != nil {
		s.SlideImageURL = &slideImageURL
	}
	return nil
}

func (m *memRepo) UpdateSlideAudio(_ context.Context, slideID uuid.UUID, audioURL string, audioDuration float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.findSlide(slideID); s != nil {
		s.AudioURL = &audioURL
		s.AudioDuration = &audioDuration
	}
	return nil
}

func (m *memRepo) CreateQuizQuestions(_ context.Context, questions []*entities.QuizQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range questions {
		m.quizzes[q.LectureID] = append(m.quizzes[q.LectureID], q)
	}
	return nil
}

func (m *memRepo) GetQuizQuestionsByLectureId(_ context.Context, lectureID uuid.UUID) ([]*entities.QuizQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]*entities.QuizQuestion(nil), m.quizzes[lectureID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (m *memRepo) DeleteQuizQuestions(_ context.Context, lectureID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quizzes, lectureID)
	return nil
}

func (m *memRepo) UpsertMindMap(_ context.Context, mindMap *entities.MindMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.mindmaps[mindMap.LectureID]; ok {
		mindMap.ID = existing.ID
		mindMap.CreatedAt = existing.CreatedAt
	} else {
		if mindMap.ID == uuid.Nil {
			mindMap.ID = uuid.New()
		}
		mindMap.CreatedAt = time.Now()
	}
	m.mindmaps[mindMap.LectureID] = mindMap
	return nil
}

func (m *memRepo) FindMindMapByLectureId(_ context.Context, lectureID uuid.UUID) (*entities.MindMap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mm, ok := m.mindmaps[lectureID]; ok {
		return mm, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "MINDMAP_NOT_FOUND", "mind map not found")
}

func (m *memRepo) DeleteMindMap(_ context.Context, lectureID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mindmaps[lectureID]; !ok {
		return apperr.New(apperr.KindNotFound, "MINDMAP_NOT_FOUND", "mind map not found")
	}
	delete(m.mindmaps, lectureID)
	return nil
}

func (m *memRepo) CreateDeck(_ context.Context, deck *entities.SlideDeck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if deck.ID == uuid.Nil {
		deck.ID = uuid.New()
	}
	m.decks[deck.ID] = deck
	return nil
}

func (m *memRepo) FindDeckById(_ context.Context, id uuid.UUID) (*entities.SlideDeck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.decks[id]; ok {
		return d, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "DECK_NOT_FOUND", "deck not found")
}

func (m *memRepo) UpdateDeckObject(_ context.Context, id uuid.UUID, objectKey, checksum string, slideCount, interactionCount, estimatedSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	deck, ok := m.decks[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "DECK_NOT_FOUND", "deck not found")
	}
	deck.ObjectKey = &objectKey
	deck.Checksum = &checksum
	deck.SlideCount = slideCount
	deck.InteractionCount = interactionCount
	deck.EstimatedSeconds = estimatedSeconds
	return nil
}

func (m *memRepo) CreateJob(_ context.Context, job *entities.GenerationJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *memRepo) FindJobById(_ context.Context, id uuid.UUID) (*entities.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		return j, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "JOB_NOT_FOUND", "job not found")
}

func (m *memRepo) FindLatestJobForLecture(_ context.Context, lectureID uuid.UUID) (*entities.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *entities.GenerationJob
	for _, j := range m.jobs {
		if j.LectureID != nil && *j.LectureID == lectureID {
			if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
				latest = j
			}
		}
	}
	if latest == nil {
		return nil, apperr.New(apperr.KindNotFound, "JOB_NOT_FOUND", "job not found")
	}
	return latest, nil
}

func (m *memRepo) FindLatestJobForDeck(_ context.Context, deckID uuid.UUID) (*entities.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *entities.GenerationJob
	for _, j := range m.jobs {
		if j.DeckID != nil && *j.DeckID == deckID {
			if latest == nil || j.CreatedAt.After(latest.CreatedAt) {
				latest = j
			}
		}
	}
	if latest == nil {
		return nil, apperr.New(apperr.KindNotFound, "JOB_NOT_FOUND", "job not found")
	}
	return latest, nil
}

func (m *memRepo) MarkJobStarted(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		now := time.Now()
		j.Status = constant.JobStatusProcessing
		j.StartedAt = &now
	}
	return nil
}

func (m *memRepo) UpdateJobProgress(_ context.Context, id uuid.UUID, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Progress = progress
	}
	return nil
}

func (m *memRepo) FailJob(_ context.Context, id uuid.UUID, code, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		now := time.Now()
		j.Status = constant.JobStatusFailed
		j.ErrorCode = &code
		j.ErrorMessage = &message
		j.FinishedAt = &now
	}
	return nil
}

func (m *memRepo) CompleteJob(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		now := time.Now()
		j.Status = constant.JobStatusCompleted
		j.Progress = 100
		j.FinishedAt = &now
	}
	return nil
}
