package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/varunaditya27/EduSynth/pkg/groq"
	"github.com/varunaditya27/EduSynth/service"
)

type scriptedChatter struct {
	chunks []string
}

func (s *scriptedChatter) Chat(context.Context, []groq.Message) (string, int, error) {
	return strings.Join(s.chunks, ""), 0, nil
}

func (s *scriptedChatter) ChatStream(context.Context, []groq.Message) (<-chan string, <-chan error) {
	chunks := make(chan string, len(s.chunks))
	errs := make(chan error)
	for _, c := range s.chunks {
		chunks <- c
	}
	close(chunks)
	close(errs)
	return chunks, errs
}

func (s *scriptedChatter) Model() string { return "scripted" }

func streamResponse(t *testing.T, llm *scriptedChatter) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChatHandler(service.NewChatService(llm))
	r.POST("/stream", h.Stream)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/stream", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	return w.Body.String()
}

func TestStreamEmitsEventPerChunk(t *testing.T) {
	body := streamResponse(t, &scriptedChatter{chunks: []string{"hello", " world"}})

	want := "data: hello\n\ndata:  world\n\ndata: [DONE]\n\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestStreamSplitsMultilineChunkIntoOneEvent(t *testing.T) {
	body := streamResponse(t, &scriptedChatter{chunks: []string{"first line\nsecond line"}})

	// A newline inside the chunk must become consecutive data lines of the
	// same event, never a bare line that ends the event early.
	want := "data: first line\ndata: second line\n\ndata: [DONE]\n\n"
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
	for _, line := range strings.Split(body, "\n") {
		if line != "" && !strings.HasPrefix(line, "data: ") {
			t.Errorf("non-SSE line leaked into the stream: %q", line)
		}
	}
}
