package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

type fakeLLM struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return f.responses[i], nil
}

func (f *fakeLLM) Model() string { return "fake-model" }

func TestSlideCountFor(t *testing.T) {
	cases := []struct{ minutes, want int }{
		{1, 5}, {3, 5}, {4, 6}, {5, 6}, {6, 7}, {10, 7},
	}
	for _, c := range cases {
		if got := SlideCountFor(c.minutes); got != c.want {
			t.Errorf("SlideCountFor(%d) = %d, want %d", c.minutes, got, c.want)
		}
	}
}

const validPlan = `{"slides":[
  {"index":0,"title":"Intro","points":["a","b"],"narration":"welcome to the lecture","duration":12,"image_query":"classroom"},
  {"index":1,"title":"Body","points":["c","d"],"narration":"the main content","duration":15},
  {"index":2,"title":"Summary","points":["e","f"],"narration":"what we learned","duration":12}
]}`

func TestGenerateSlidePlan(t *testing.T) {
	llm := &fakeLLM{responses: []string{validPlan}}
	svc := NewContentService(llm)

	slides, err := svc.GenerateSlidePlan(context.Background(), "Photosynthesis", "students", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) != 3 {
		t.Fatalf("got %d slides", len(slides))
	}
	if llm.calls != 1 {
		t.Errorf("llm called %d times, want 1", llm.calls)
	}
	for i, s := range slides {
		if s.Index != i {
			t.Errorf("slide %d has index %d", i, s.Index)
		}
	}
}

func TestGenerateSlidePlanRepromptsOnceOnMalformed(t *testing.T) {
	llm := &fakeLLM{responses: []string{"I cannot produce JSON, sorry", validPlan}}
	svc := NewContentService(llm)

	slides, err := svc.GenerateSlidePlan(context.Background(), "Topic", "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) != 3 {
		t.Fatalf("got %d slides", len(slides))
	}
	if llm.calls != 2 {
		t.Errorf("llm called %d times, want 2", llm.calls)
	}
	if !strings.Contains(llm.prompts[1], "Previous response") {
		t.Error("fix prompt should quote the previous response")
	}
}

func TestGenerateSlidePlanFailsAfterSecondMalformed(t *testing.T) {
	llm := &fakeLLM{responses: []string{"garbage", "still garbage"}}
	svc := NewContentService(llm)

	_, err := svc.GenerateSlidePlan(context.Background(), "Topic", "", 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.KindOf(err) != apperr.KindUpstream {
		t.Errorf("kind = %s, want upstream", apperr.KindOf(err))
	}
	if llm.calls != 2 {
		t.Errorf("llm called %d times, want exactly 2", llm.calls)
	}
}

func TestGenerateSlidePlanUpstreamError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("boom")}
	svc := NewContentService(llm)

	_, err := svc.GenerateSlidePlan(context.Background(), "Topic", "", 3)
	if apperr.CodeOf(err) != "LLM_UNAVAILABLE" {
		t.Errorf("code = %q", apperr.CodeOf(err))
	}
}

func TestGenerateSlidePlanToleratesFences(t *testing.T) {
	llm := &fakeLLM{responses: []string{"```json\n" + validPlan + "\n```"}}
	svc := NewContentService(llm)

	slides, err := svc.GenerateSlidePlan(context.Background(), "Topic", "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) != 3 {
		t.Fatalf("got %d slides", len(slides))
	}
}

func TestNormalizeSlidesClampsAndReindexes(t *testing.T) {
	long := strings.Repeat("x", 200)
	slides := []dto.SlidePlan{
		{Index: 7, Title: long, Points: []string{long, "", "a", "b", "c", "d"}, Narration: "n", Duration: 2},
		{Index: 3, Title: "t", Points: nil, Narration: "n", Duration: 99},
	}

	out := NormalizeSlides(slides, 1)

	if len(out[0].Title) != maxTitleChars {
		t.Errorf("title length = %d", len(out[0].Title))
	}
	if len(out[0].Points) != maxPoints {
		t.Errorf("points = %d, want %d", len(out[0].Points), maxPoints)
	}
	if len(out[0].Points[0]) != maxPointChars {
		t.Errorf("point length = %d", len(out[0].Points[0]))
	}
	if len(out[1].Points) != minPoints {
		t.Errorf("empty points should be padded to %d, got %d", minPoints, len(out[1].Points))
	}
	for i, s := range out {
		if s.Index != i {
			t.Errorf("index[%d] = %d", i, s.Index)
		}
		if s.Duration < minSlideSecs || s.Duration > maxSlideSecs {
			t.Errorf("duration[%d] = %f out of [%f, %f]", i, s.Duration, minSlideSecs, maxSlideSecs)
		}
	}
}

func TestNormalizeSlidesCapsNarrationWords(t *testing.T) {
	words := strings.Fields(strings.Repeat("word ", 120))
	slides := []dto.SlidePlan{{Title: "t", Narration: strings.Join(words, " "), Duration: 10, Points: []string{"a", "b"}}}

	out := NormalizeSlides(slides, 3)
	if got := len(strings.Fields(out[0].Narration)); got != maxNarrWords {
		t.Errorf("narration words = %d, want %d", got, maxNarrWords)
	}
}

func TestNormalizeSlidesScalesTowardTarget(t *testing.T) {
	// Five slides of 10s against a 60s target scale up.
	slides := make([]dto.SlidePlan, 5)
	for i := range slides {
		slides[i] = dto.SlidePlan{Title: "t", Narration: "n", Points: []string{"a", "b"}, Duration: 10}
	}

	out := NormalizeSlides(slides, 1)
	var total float64
	for _, s := range out {
		total += s.Duration
	}
	if total <= 50 {
		t.Errorf("total = %f, expected scaling toward 60", total)
	}
}
