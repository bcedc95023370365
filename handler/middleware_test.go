package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/pkg/apperr"
	"github.com/varunaditya27/EduSynth/pkg/token"
)

func testRouter(t *testing.T, tokens *token.Manager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(tokens), func(c *gin.Context) {
		id := currentUserID(c)
		if id == nil {
			t.Error("user id missing after AuthRequired")
		}
		c.JSON(http.StatusOK, gin.H{"user": id})
	})
	return r
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	tokens, _ := token.NewManager("secret", time.Hour)
	r := testRouter(t, tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredRejectsBadToken(t *testing.T) {
	tokens, _ := token.NewManager("secret", time.Hour)
	r := testRouter(t, tokens)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	tokens, _ := token.NewManager("secret", time.Hour)
	r := testRouter(t, tokens)

	raw, err := tokens.Issue(uuid.New(), "user@example.com")
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRespondErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{apperr.New(apperr.KindValidation, "X", "bad"), http.StatusBadRequest},
		{apperr.New(apperr.KindNotFound, "X", "missing"), http.StatusNotFound},
		{apperr.New(apperr.KindConflict, "X", "dupe"), http.StatusConflict},
		{apperr.New(apperr.KindUpstream, "X", "llm down"), http.StatusBadGateway},
		{apperr.New(apperr.KindInternal, "X", "boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		r := gin.New()
		r.GET("/", func(ctx *gin.Context) { respondError(ctx, c.err) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != c.want {
			t.Errorf("kind %s: status = %d, want %d", apperr.KindOf(c.err), w.Code, c.want)
		}
	}
}
