package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/storage"
	"github.com/varunaditya27/EduSynth/repository"
	"github.com/varunaditya27/EduSynth/service"
)

// AnimationHandler serves the interactive deck surface. The deck body lives
// in object storage; the API returns metadata plus a download URL.
type AnimationHandler struct {
	lectures *service.LectureService
	repo     repository.Repository
	store    storage.ObjectStore
}

func NewAnimationHandler(lectures *service.LectureService, repo repository.Repository, store storage.ObjectStore) *AnimationHandler {
	return &AnimationHandler{lectures: lectures, repo: repo, store: store}
}

// Generate handles POST /v1/animations/generate.
func (h *AnimationHandler) Generate(c *gin.Context) {
	var req dto.AnimationGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	deck, job, err := h.lectures.CreateDeck(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"deck":  deck,
		"jobId": job.ID,
	})
}

// Get handles GET /v1/animations/:taskId, returning the whole deck document
// once the build finishes.
func (h *AnimationHandler) Get(c *gin.Context) {
	deck, err := h.findDeck(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"deck": deck}
	if deck.ObjectKey != nil {
		resp["documentUrl"] = h.store.URL(*deck.ObjectKey)
		doc, err := h.loadDocument(c, deck)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["document"] = doc
	}
	c.JSON(http.StatusOK, resp)
}

// GetSlide handles GET /v1/animations/:taskId/slides/:i.
func (h *AnimationHandler) GetSlide(c *gin.Context) {
	deck, err := h.findDeck(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if deck.ObjectKey == nil {
		respondError(c, apperr.New(apperr.KindConflict, "DECK_NOT_READY", "deck document is not built yet"))
		return
	}

	index, err := strconv.Atoi(c.Param("i"))
	if err != nil || index < 0 {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_INDEX", "slide index must be a non-negative integer"))
		return
	}

	doc, err := h.loadDocument(c, deck)
	if err != nil {
		respondError(c, err)
		return
	}
	if index >= len(doc.Slides) {
		respondError(c, apperr.New(apperr.KindNotFound, "SLIDE_NOT_FOUND", "deck has %d slides", len(doc.Slides)))
		return
	}
	c.JSON(http.StatusOK, doc.Slides[index])
}

// Metadata handles GET /v1/animations/:taskId/metadata. Counts come from the
// deck row, so this never touches object storage.
func (h *AnimationHandler) Metadata(c *gin.Context) {
	deck, err := h.findDeck(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"deckId":           deck.ID,
		"topic":            deck.Topic,
		"audience":         deck.Audience,
		"theme":            deck.Theme,
		"durationMinutes":  deck.DurationMinutes,
		"slideCount":       deck.SlideCount,
		"interactionCount": deck.InteractionCount,
		"estimatedSeconds": deck.EstimatedSeconds,
	}
	if deck.Checksum != nil {
		resp["checksum"] = *deck.Checksum
	}
	if deck.ObjectKey != nil {
		resp["documentUrl"] = h.store.URL(*deck.ObjectKey)
	}
	c.JSON(http.StatusOK, resp)
}

// Progress handles POST /v1/animations/:taskId/progress, reading the latest
// job row for the deck.
func (h *AnimationHandler) Progress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		respondError(c, apperr.New(apperr.KindValidation, "BAD_ID", "deck id is not a UUID"))
		return
	}

	job, err := h.repo.FindLatestJobForDeck(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"deckId":   id,
		"status":   job.Status,
		"progress": job.Progress,
	}
	if job.ErrorMessage != nil {
		resp["errorMessage"] = *job.ErrorMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnimationHandler) findDeck(c *gin.Context) (*entities.SlideDeck, error) {
	id, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "BAD_ID", "deck id is not a UUID")
	}
	return h.repo.FindDeckById(c.Request.Context(), id)
}

func (h *AnimationHandler) loadDocument(c *gin.Context, deck *entities.SlideDeck) (*dto.DeckDocument, error) {
	data, err := h.store.Fetch(c.Request.Context(), *deck.ObjectKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "DECK_FETCH_FAILED", err)
	}
	var doc dto.DeckDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "DECK_CORRUPT", err)
	}
	return &doc, nil
}
