package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/varunaditya27/EduSynth/dto"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

// TextGenerator is the structured-output LLM surface. The Gemini client
// satisfies it; tests use a canned fake.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
	Model() string
}

type ContentService struct {
	llm TextGenerator
}

func NewContentService(llm TextGenerator) *ContentService {
	return &ContentService{llm: llm}
}

// SlideCountFor maps the requested lecture length in minutes to a slide
// count. Short lectures get fewer, denser slides.
func SlideCountFor(minutes int) int {
	switch {
	case minutes <= 3:
		return 5
	case minutes <= 5:
		return 6
	default:
		return 7
	}
}

type slidePlanDoc struct {
	Slides []dto.SlidePlan `json:"slides"`
}

// GenerateSlidePlan asks the LLM for a structured slide plan and normalizes
// it. A malformed response gets exactly one corrective re-prompt before the
// call fails.
func (s *ContentService) GenerateSlidePlan(ctx context.Context, topic, audience string, minutes int) ([]dto.SlidePlan, error) {
	slideCount := SlideCountFor(minutes)
	prompt := buildSlidePrompt(topic, audience, minutes, slideCount)

	raw, err := s.llm.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "LLM_UNAVAILABLE", err)
	}

	slides, parseErr := parseSlidePlan(raw)
	if parseErr != nil {
		zerolog.Ctx(ctx).Warn().Err(parseErr).Msg("malformed slide plan, re-prompting once")

		fixPrompt := fmt.Sprintf(
			"The previous response was not valid JSON matching the requested schema (%v). "+
				"Return ONLY the corrected JSON object, no prose, no markdown fences.\n\nPrevious response:\n%s",
			parseErr, raw)
		raw, err = s.llm.GenerateJSON(ctx, fixPrompt)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, "LLM_UNAVAILABLE", err)
		}
		slides, parseErr = parseSlidePlan(raw)
		if parseErr != nil {
			return nil, apperr.Wrap(apperr.KindUpstream, "MALFORMED_CONTENT", parseErr)
		}
	}

	return NormalizeSlides(slides, minutes), nil
}

func buildSlidePrompt(topic, audience string, minutes, slideCount int) string {
	if audience == "" {
		audience = "a general audience"
	}
	return fmt.Sprintf(`You are an expert lecturer preparing a %d-minute video lecture.

Topic: %s
Audience: %s

Produce exactly %d slides as a JSON object with this shape:
{
  "slides": [
    {
      "index": 0,
      "title": "slide title, at most 60 characters",
      "points": ["2 to 4 bullet points, each at most 80 characters"],
      "narration": "spoken narration for this slide, at most 80 words",
      "duration": 12.0,
      "image_query": "short stock-photo search phrase"
    }
  ]
}

Rules:
- "duration" is seconds of narration time, between 8 and 20.
- Durations should sum close to %d seconds total.
- The first slide introduces the topic; the last slide summarizes.
- Narration must flow naturally when read aloud.
- Respond with ONLY the JSON object.`, minutes, topic, audience, slideCount, minutes*60)
}

// parseSlidePlan tolerates markdown fences and leading prose by extracting
// the outermost brace pair before unmarshalling.
func parseSlidePlan(raw string) ([]dto.SlidePlan, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var doc slidePlanDoc
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode slide plan: %w", err)
	}
	if len(doc.Slides) == 0 {
		return nil, fmt.Errorf("slide plan has no slides")
	}
	for i, slide := range doc.Slides {
		if strings.TrimSpace(slide.Title) == "" {
			return nil, fmt.Errorf("slide %d has no title", i)
		}
		if strings.TrimSpace(slide.Narration) == "" {
			return nil, fmt.Errorf("slide %d has no narration", i)
		}
	}
	return doc.Slides, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

const (
	maxTitleChars  = 60
	maxPointChars  = 80
	maxPoints      = 4
	minPoints      = 2
	maxNarrWords   = 80
	minSlideSecs   = 8.0
	maxSlideSecs   = 20.0
	totalTolerance = 0.10
)

// NormalizeSlides enforces the content contract: title and bullet lengths,
// narration word cap, per-slide duration clamp, total duration within 10%% of
// the requested length, and contiguous zero-based indices.
func NormalizeSlides(slides []dto.SlidePlan, minutes int) []dto.SlidePlan {
	out := make([]dto.SlidePlan, len(slides))
	copy(out, slides)

	for i := range out {
		out[i].Title = truncate(strings.TrimSpace(out[i].Title), maxTitleChars)
		out[i].Narration = capWords(strings.TrimSpace(out[i].Narration), maxNarrWords)
		out[i].Points = normalizePoints(out[i].Points, out[i].Title)

		if out[i].Duration < minSlideSecs {
			out[i].Duration = minSlideSecs
		}
		if out[i].Duration > maxSlideSecs {
			out[i].Duration = maxSlideSecs
		}
	}

	target := float64(minutes * 60)
	var total float64
	for i := range out {
		total += out[i].Duration
	}
	if total > 0 && (total < target*(1-totalTolerance) || total > target*(1+totalTolerance)) {
		scale := target / total
		for i := range out {
			d := out[i].Duration * scale
			if d < minSlideSecs {
				d = minSlideSecs
			}
			if d > maxSlideSecs {
				d = maxSlideSecs
			}
			out[i].Duration = d
		}
	}

	for i := range out {
		out[i].Index = i
	}
	return out
}

func normalizePoints(points []string, title string) []string {
	cleaned := make([]string, 0, len(points))
	for _, p := range points {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		cleaned = append(cleaned, truncate(p, maxPointChars))
		if len(cleaned) == maxPoints {
			break
		}
	}
	// Pad from the title so every slide renders at least two bullets.
	for len(cleaned) < minPoints {
		cleaned = append(cleaned, truncate(title, maxPointChars))
	}
	return cleaned
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func capWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}
