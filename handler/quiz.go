package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/service"
)

type QuizHandler struct {
	quizzes *service.QuizService
}

func NewQuizHandler(quizzes *service.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

// Generate handles POST /generate-quiz/:lectureId. An empty body is allowed
// and uses the defaults.
func (h *QuizHandler) Generate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("lectureId"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	var req dto.GenerateQuizRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	resp, err := h.quizzes.Generate(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/lectures/:id/quiz?format=moodle.
func (h *QuizHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	resp, err := h.quizzes.Get(c.Request.Context(), id, constant.QuizFormat(c.Query("format")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
