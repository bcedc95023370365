package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat handles POST /v1/chatbot/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream handles POST /v1/chatbot/chat/stream with server-sent events. Each
// content delta arrives as a "data:" line and the stream closes with
// "data: [DONE]".
func (h *ChatHandler) Stream(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	chunks, errs := h.chat.Stream(c.Request.Context(), req)

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				fmt.Fprint(c.Writer, "data: [DONE]\n\n")
				c.Writer.Flush()
				return
			}
			writeSSEData(c.Writer, chunk)
			c.Writer.Flush()
		case err, ok := <-errs:
			if !ok {
				// Closed without an error; keep draining chunks.
				errs = nil
				continue
			}
			if err != nil {
				// Headers are already out; surface the failure in-band.
				fmt.Fprintf(c.Writer, "data: {\"error\": %q}\n\n", err.Error())
				fmt.Fprint(c.Writer, "data: [DONE]\n\n")
				c.Writer.Flush()
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

// writeSSEData emits one SSE data event. A chunk with embedded newlines must
// become consecutive "data:" lines within the same event, otherwise the blank
// line inside the payload terminates the event early.
func writeSSEData(w io.Writer, chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// QuickAsk handles POST /v1/chatbot/quick-ask.
func (h *ChatHandler) QuickAsk(c *gin.Context) {
	var req dto.QuickAskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	resp, err := h.chat.QuickAsk(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
