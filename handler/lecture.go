package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/service"
)

type LectureHandler struct {
	lectures *service.LectureService
}

func NewLectureHandler(lectures *service.LectureService) *LectureHandler {
	return &LectureHandler{lectures: lectures}
}

// Create handles POST /api/lectures.
func (h *LectureHandler) Create(c *gin.Context) {
	var req dto.CreateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	lecture, job, err := h.lectures.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"lecture": lecture,
		"jobId":   job.ID,
	})
}

// Generate handles POST /generate, the legacy submission shape. Length
// arrives as a free-form string and the response carries task_id for the
// polling endpoint.
func (h *LectureHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	lecture, _, err := h.lectures.Create(c.Request.Context(), dto.CreateLectureRequest{
		Topic:          req.Topic,
		TargetAudience: req.Audience,
		DesiredLength:  service.ParseLengthMinutes(req.Length),
		VisualTheme:    req.Theme,
	}, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": lecture.ID,
		"status":  lecture.VideoStatus.Legacy(),
	})
}

// Status handles GET /status/:taskId.
func (h *LectureHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "taskId is not a UUID"))
		return
	}

	status, err := h.lectures.Status(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Get handles GET /api/lectures/:id, slides included.
func (h *LectureHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	lecture, err := h.lectures.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lecture)
}

// List handles GET /api/lectures. Authenticated callers see their own
// lectures.
func (h *LectureHandler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	lectures, err := h.lectures.List(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lectures": lectures})
}

// Delete handles DELETE /api/lectures/:id. Slides, quiz, and mind map go
// with it.
func (h *LectureHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	if err := h.lectures.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
