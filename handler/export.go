package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/service"
)

type ExportHandler struct {
	exports *service.ExportService
}

func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// PDF handles POST /api/lectures/:id/export/pdf. An empty body uses auto
// orientation on the desktop preset.
func (h *ExportHandler) PDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	var req dto.ExportPDFRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}

	resp, err := h.exports.LecturePDF(c.Request.Context(), id, service.PDFOptions{
		Orientation:  req.Orientation,
		DevicePreset: req.DevicePreset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PPTX handles POST /api/lectures/:id/export/pptx.
func (h *ExportHandler) PPTX(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "lecture id is not a UUID"))
		return
	}

	resp, err := h.exports.LecturePPTX(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
