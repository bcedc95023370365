package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/service"
)

type MindMapHandler struct {
	mindmaps *service.MindMapService
}

func NewMindMapHandler(mindmaps *service.MindMapService) *MindMapHandler {
	return &MindMapHandler{mindmaps: mindmaps}
}

// Health handles GET /v1/mindmap/health.
func (h *MindMapHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "mindmap"})
}

// Generate handles POST /v1/mindmap/generate.
func (h *MindMapHandler) Generate(c *gin.Context) {
	var req dto.MindMapGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.mindmaps.Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/mindmap/lecture/:id.
func (h *MindMapHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	resp, err := h.mindmaps.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /v1/mindmap/lecture/:id.
func (h *MindMapHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	if err := h.mindmaps.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
