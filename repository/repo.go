package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

type Repository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB

	// Users.
	CreateUser(ctx context.Context, user *entities.User) error
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	FindUserById(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// Lectures.
	CreateLecture(ctx context.Context, lecture *entities.Lecture) error
	FindLectureById(ctx context.Context, id uuid.UUID) (*entities.Lecture, error)
	FindLectureWithSlides(ctx context.Context, id uuid.UUID) (*entities.Lecture, error)
	ListLectures(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]*entities.Lecture, error)
	DeleteLecture(ctx context.Context, id uuid.UUID) error
	UpdateLectureStatus(ctx context.Context, id uuid.UUID, status constant.VideoStatus) error
	FailLecture(ctx context.Context, id uuid.UUID, message string) error
	CompleteLecture(ctx context.Context, id uuid.UUID, videoURL, slidesPdfURL string) error

	// Slides.
	CreateSlides(ctx context.Context, slides []*entities.Slide) error
	GetSlidesByLectureId(ctx context.Context, lectureID uuid.UUID) ([]*entities.Slide, error)
	UpdateSlideImage(ctx context.Context, slideID uuid.UUID, imageURL, attribution string) error
	UpdateSlideRender(ctx context.Context, slideID uuid.UUID, slideImageURL string) error
	UpdateSlideAudio(ctx context.Context, slideID uuid.UUID, audioURL string, audioDuration float64) error

	// Quiz.
	CreateQuizQuestions(ctx context.Context, questions []*entities.QuizQuestion) error
	GetQuizQuestionsByLectureId(ctx context.Context, lectureID uuid.UUID) ([]*entities.QuizQuestion, error)
	DeleteQuizQuestions(ctx context.Context, lectureID uuid.UUID) error

	// Mind maps.
	UpsertMindMap(ctx context.Context, mindMap *entities.MindMap) error
	FindMindMapByLectureId(ctx context.Context, lectureID uuid.UUID) (*entities.MindMap, error)
	DeleteMindMap(ctx context.Context, lectureID uuid.UUID) error

	// Slide decks.
	CreateDeck(ctx context.Context, deck *entities.SlideDeck) error
	FindDeckById(ctx context.Context, id uuid.UUID) (*entities.SlideDeck, error)
	UpdateDeckObject(ctx context.Context, id uuid.UUID, objectKey, checksum string, slideCount, interactionCount, estimatedSeconds int) error

	// Generation jobs.
	CreateJob(ctx context.Context, job *entities.GenerationJob) error
	FindJobById(ctx context.Context, id uuid.UUID) (*entities.GenerationJob, error)
	FindLatestJobForLecture(ctx context.Context, lectureID uuid.UUID) (*entities.GenerationJob, error)
	FindLatestJobForDeck(ctx context.Context, deckID uuid.UUID) (*entities.GenerationJob, error)
	MarkJobStarted(ctx context.Context, id uuid.UUID) error
	UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int) error
	FailJob(ctx context.Context, id uuid.UUID, code, message string) error
	CompleteJob(ctx context.Context, id uuid.UUID) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) Repository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

type txKey struct{}

// conn returns the transaction stashed by Transaction when the context
// carries one, so repo calls inside a callback run on the same tx and roll
// back together.
func (r *repo) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return callback(context.WithValue(ctx, txKey{}, tx))
	}, opts...)
}

func (r *repo) CreateUser(ctx context.Context, user *entities.User) error {
	err := r.conn(ctx).WithContext(ctx).Create(user).Error
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.KindConflict, "EMAIL_TAKEN", "email is already registered")
		}
		return err
	}
	return nil
}

func (r *repo) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	user := &entities.User{}
	err := r.conn(ctx).WithContext(ctx).First(user, "email = ?", email).Error
	if err != nil {
		return nil, notFoundOr(err, "USER_NOT_FOUND", "user not found")
	}
	return user, nil
}

func (r *repo) FindUserById(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user := &entities.User{}
	err := r.conn(ctx).WithContext(ctx).First(user, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "USER_NOT_FOUND", "user not found")
	}
	return user, nil
}

func (r *repo) CreateLecture(ctx context.Context, lecture *entities.Lecture) error {
	return r.conn(ctx).WithContext(ctx).Create(lecture).Error
}

func (r *repo) FindLectureById(ctx context.Context, id uuid.UUID) (*entities.Lecture, error) {
	lecture := &entities.Lecture{}
	err := r.conn(ctx).WithContext(ctx).First(lecture, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "LECTURE_NOT_FOUND", "lecture not found")
	}
	return lecture, nil
}

func (r *repo) FindLectureWithSlides(ctx context.Context, id uuid.UUID) (*entities.Lecture, error) {
	lecture := &entities.Lecture{}
	err := r.conn(ctx).WithContext(ctx).
		Preload("Slides", func(db *gorm.DB) *gorm.DB {
			return db.Order("slide_number ASC")
		}).
		First(lecture, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "LECTURE_NOT_FOUND", "lecture not found")
	}
	return lecture, nil
}

func (r *repo) ListLectures(ctx context.Context, userID *uuid.UUID, limit, offset int) ([]*entities.Lecture, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.conn(ctx).WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var lectures []*entities.Lecture
	if err := q.Find(&lectures).Error; err != nil {
		return nil, err
	}
	return lectures, nil
}

func (r *repo) DeleteLecture(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).WithContext(ctx).Select(clause.Associations).Delete(&entities.Lecture{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "LECTURE_NOT_FOUND", "lecture not found")
	}
	return nil
}

// UpdateLectureStatus enforces the forward-only state machine inside the
// UPDATE itself so concurrent workers cannot move a lecture backwards.
func (r *repo) UpdateLectureStatus(ctx context.Context, id uuid.UUID, status constant.VideoStatus) error {
	lecture := &entities.Lecture{}
	err := r.conn(ctx).WithContext(ctx).First(lecture, "id = ?", id).Error
	if err != nil {
		return notFoundOr(err, "LECTURE_NOT_FOUND", "lecture not found")
	}

	if !lecture.VideoStatus.CanTransition(status) {
		return apperr.New(apperr.KindConflict, "ILLEGAL_TRANSITION",
			"cannot transition lecture from %s to %s", lecture.VideoStatus, status)
	}

	updates := map[string]interface{}{
		"video_status": status,
		"updated_at":   time.Now(),
	}
	if lecture.VideoStatus == constant.VideoStatusPending {
		updates["processing_started_at"] = time.Now()
	}

	res := r.conn(ctx).WithContext(ctx).Model(&entities.Lecture{}).
		Where("id = ? AND video_status = ?", id, lecture.VideoStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindConflict, "ILLEGAL_TRANSITION", "lecture status changed concurrently")
	}
	return nil
}

func (r *repo) FailLecture(ctx context.Context, id uuid.UUID, message string) error {
	return r.conn(ctx).WithContext(ctx).Model(&entities.Lecture{}).
		Where("id = ? AND video_status NOT IN ?", id, []constant.VideoStatus{constant.VideoStatusCompleted, constant.VideoStatusFailed}).
		Updates(map[string]interface{}{
			"video_status":  constant.VideoStatusFailed,
			"error_message": message,
			"updated_at":    time.Now(),
		}).Error
}

func (r *repo) CompleteLecture(ctx context.Context, id uuid.UUID, videoURL, slidesPdfURL string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"video_status":            constant.VideoStatusCompleted,
		"video_url":               videoURL,
		"processing_completed_at": now,
		"updated_at":              now,
	}
	if slidesPdfURL != "" {
		updates["slides_pdf_url"] = slidesPdfURL
	}
	res := r.conn(ctx).WithContext(ctx).Model(&entities.Lecture{}).
		Where("id = ? AND video_status = ?", id, constant.VideoStatusAssemblingVideo).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindConflict, "ILLEGAL_TRANSITION", "lecture is not in ASSEMBLING_VIDEO")
	}
	return nil
}

func (r *repo) CreateSlides(ctx context.Context, slides []*entities.Slide) error {
	if len(slides) == 0 {
		return nil
	}
	return r.conn(ctx).WithContext(ctx).Create(slides).Error
}

func (r *repo) GetSlidesByLectureId(ctx context.Context, lectureID uuid.UUID) ([]*entities.Slide, error) {
	var slides []*entities.Slide
	err := r.conn(ctx).WithContext(ctx).Where("lecture_id = ?", lectureID).Order("slide_number ASC").Find(&slides).Error
	if err != nil {
		return nil, err
	}
	return slides, nil
}

func (r *repo) UpdateSlideImage(ctx context.Context, slideID uuid.UUID, imageURL, attribution string) error {
	return r.conn(ctx).WithContext(ctx).Model(&entities.Slide{}).Where("id = ?", slideID).
		Updates(map[string]interface{}{
			"image_url":         imageURL,
			"image_attribution": attribution,
			"updated_at":        time.Now(),
		}).Error
}

func (r *repo) UpdateSlideRender(ctx context.Context, slideID uuid.UUID, slideImageURL string) error {
	return r.conn(ctx).WithContext(ctx).Model(&entities.Slide{}).Where("id = ?", slideID).
		Updates(map[string]interface{}{
			"slide_image_url": slideImageURL,
			"updated_at":      time.Now(),
		}).Error
}

func (r *repo) UpdateSlideAudio(ctx context.Context, slideID uuid.UUID, audioURL string, audioDuration float64) error {
	return r.conn(ctx).WithContext(ctx).Model(&entities.Slide{}).Where("id = ?", slideID).
		Updates(map[string]interface{}{
			"audio_url":      audioURL,
			"audio_duration": audioDuration,
			"updated_at":     time.Now(),
		}).Error
}

func (r *repo) CreateQuizQuestions(ctx context.Context, questions []*entities.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.conn(ctx).WithContext(ctx).Create(questions).Error
}

func (r *repo) GetQuizQuestionsByLectureId(ctx context.Context, lectureID uuid.UUID) ([]*entities.QuizQuestion, error) {
	var questions []*entities.QuizQuestion
	err := r.conn(ctx).WithContext(ctx).Where("lecture_id = ?", lectureID).Order("question_number ASC").Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *repo) DeleteQuizQuestions(ctx context.Context, lectureID uuid.UUID) error {
	return r.conn(ctx).WithContext(ctx).Where("lecture_id = ?", lectureID).Delete(&entities.QuizQuestion{}).Error
}

func (r *repo) UpsertMindMap(ctx context.Context, mindMap *entities.MindMap) error {
	return r.conn(ctx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "lecture_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"data", "mermaid_syntax", "node_count", "branch_count", "max_depth", "connection_count", "updated_at",
		}),
	}).Create(mindMap).Error
}

func (r *repo) FindMindMapByLectureId(ctx context.Context, lectureID uuid.UUID) (*entities.MindMap, error) {
	mindMap := &entities.MindMap{}
	err := r.conn(ctx).WithContext(ctx).First(mindMap, "lecture_id = ?", lectureID).Error
	if err != nil {
		return nil, notFoundOr(err, "MINDMAP_NOT_FOUND", "mind map not found")
	}
	return mindMap, nil
}

func (r *repo) DeleteMindMap(ctx context.Context, lectureID uuid.UUID) error {
	return r.conn(ctx).WithContext(ctx).Where("lecture_id = ?", lectureID).Delete(&entities.MindMap{}).Error
}

func (r *repo) CreateDeck(ctx context.Context, deck *entities.SlideDeck) error {
	return r.conn(ctx).WithContext(ctx).Create(deck).Error
}

func (r *repo) FindDeckById(ctx context.Context, id uuid.UUID) (*entities.SlideDeck, error) {
	deck := &entities.SlideDeck{}
	err := r.conn(ctx).WithContext(ctx).First(deck, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "DECK_NOT_FOUND", "slide deck not found")
	}
	return deck, nil
}

func (r *repo) UpdateDeckObject(ctx context.Context, id uuid.UUID, objectKey, checksum string, slideCount, interactionCount, estimatedSeconds int) error {
	return r.conn(ctx).WithContext(ctx).Model(&entities.SlideDeck{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"object_key":        objectKey,
			"checksum":          checksum,
			"slide_count":       slideCount,
			"interaction_count": interactionCount,
			"estimated_seconds": estimatedSeconds,
			"updated_at":        time.Now(),
		}).Error
}

func (r *repo) CreateJob(ctx context.Context, job *entities.GenerationJob) error {
	return r.conn(ctx).WithContext(ctx).Create(job).Error
}

func (r *repo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.GenerationJob, error) {
	job := &entities.GenerationJob{}
	err := r.conn(ctx).WithContext(ctx).First(job, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "JOB_NOT_FOUND", "generation job not found")
	}
	return job, nil
}

func (r *repo) FindLatestJobForLecture(ctx context.Context, lectureID uuid.UUID) (*entities.GenerationJob, error) {
	job := &entities.GenerationJob{}
	err := r.conn(ctx).WithContext(ctx).
		Where("lecture_id = ?", lectureID).
		Order("created_at DESC").
		First(job).Error
	if err != nil {
		return nil, notFoundOr(err, "JOB_NOT_FOUND", "generation job not found")
	}
	return job, nil
}

func (r *repo) FindLatestJobForDeck(ctx context.Context, deckID uuid.UUID) (*entities.GenerationJob, error) {
	job := &entities.GenerationJob{}
	err := r.conn(ctx).WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("created_at DESC").
		First(job).Error
	if err != nil {
		return nil, notFoundOr(err, "JOB_NOT_FOUND", "generation job not found")
	}
	return job, nil
}

func (r *repo) MarkJobStarted(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.conn(ctx).WithContext(ctx).Model(&entities.GenerationJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     constant.JobStatusProcessing,
			"started_at": now,
			"updated_at": now,
		}).Error
}

func (r *repo) UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int) error {
	return r.conn(ctx).WithContext(ctx).Model(&entities.GenerationJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"progress":   progress,
			"updated_at": time.Now(),
		}).Error
}

func (r *repo) FailJob(ctx context.Context, id uuid.UUID, code, message string) error {
	now := time.Now()
	return r.conn(ctx).WithContext(ctx).Model(&entities.GenerationJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        constant.JobStatusFailed,
			"error_code":    code,
			"error_message": message,
			"finished_at":   now,
			"updated_at":    now,
		}).Error
}

func (r *repo) CompleteJob(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.conn(ctx).WithContext(ctx).Model(&entities.GenerationJob{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      constant.JobStatusCompleted,
			"progress":    100,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func notFoundOr(err error, code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The message is data here, never a format string.
		return apperr.New(apperr.KindNotFound, code, "%s", message)
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) ||
		containsSQLState(err, "23505"))
}

func containsSQLState(err error, state string) bool {
	type sqlStater interface {
		SQLState() string
	}
	var s sqlStater
	if errors.As(err, &s) {
		return s.SQLState() == state
	}
	return false
}
