package constant

// VideoStatus is the lecture pipeline state machine. Transitions only move
// forward through the declared order, except FAILED which is reachable from
// any non-terminal state.
type VideoStatus string

const (
	VideoStatusPending           VideoStatus = "PENDING"
	VideoStatusGeneratingContent VideoStatus = "GENERATING_CONTENT"
	VideoStatusCreatingSlides    VideoStatus = "CREATING_SLIDES"
	VideoStatusFetchingImages    VideoStatus = "FETCHING_IMAGES"
	VideoStatusGeneratingAudio   VideoStatus = "GENERATING_AUDIO"
	VideoStatusAssemblingVideo   VideoStatus = "ASSEMBLING_VIDEO"
	VideoStatusCompleted         VideoStatus = "COMPLETED"
	VideoStatusFailed            VideoStatus = "FAILED"
)

var videoStatusOrder = map[VideoStatus]int{
	VideoStatusPending:           0,
	VideoStatusGeneratingContent: 1,
	VideoStatusCreatingSlides:    2,
	VideoStatusFetchingImages:    3,
	VideoStatusGeneratingAudio:   4,
	VideoStatusAssemblingVideo:   5,
	VideoStatusCompleted:         6,
}

// videoStatusProgress is a fixed per-stage lookup, not proportional to
// completion within a stage.
var videoStatusProgress = map[VideoStatus]int{
	VideoStatusPending:           0,
	VideoStatusGeneratingContent: 20,
	VideoStatusCreatingSlides:    40,
	VideoStatusFetchingImages:    60,
	VideoStatusGeneratingAudio:   75,
	VideoStatusAssemblingVideo:   90,
	VideoStatusCompleted:         100,
}

func (s VideoStatus) String() string {
	return string(s)
}

func (s VideoStatus) Terminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

// CanTransition reports whether moving from s to next is legal: strictly
// forward in the pipeline order, or to FAILED from any non-terminal state.
func (s VideoStatus) CanTransition(next VideoStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == VideoStatusFailed {
		return true
	}
	from, ok := videoStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := videoStatusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// Progress maps the status to its fixed percentage. FAILED has no entry;
// callers report the last persisted job progress instead.
func (s VideoStatus) Progress() int {
	return videoStatusProgress[s]
}

// Legacy collapses the pipeline states into the coarse status strings the
// polling clients expect.
func (s VideoStatus) Legacy() string {
	switch s {
	case VideoStatusPending:
		return "pending"
	case VideoStatusCompleted:
		return "completed"
	case VideoStatusFailed:
		return "failed"
	default:
		return "processing"
	}
}

type VisualTheme string

const (
	ThemeMinimalist VisualTheme = "MINIMALIST"
	ThemeChalkboard VisualTheme = "CHALKBOARD"
	ThemeCorporate  VisualTheme = "CORPORATE"
	ThemeModern     VisualTheme = "MODERN"
	ThemeGradient   VisualTheme = "GRADIENT"
)

var themes = map[VisualTheme]bool{
	ThemeMinimalist: true,
	ThemeChalkboard: true,
	ThemeCorporate:  true,
	ThemeModern:     true,
	ThemeGradient:   true,
}

func (t VisualTheme) Valid() bool {
	return themes[t]
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCompleted  JobStatus = "COMPLETED"
)

type JobType string

const (
	JobTypeLecturePipeline JobType = "lecture_pipeline"
	JobTypeDeckBuild       JobType = "deck_build"
)

type DeckFormat string

const (
	DeckFormatVideo       DeckFormat = "video"
	DeckFormatInteractive DeckFormat = "interactive"
)

type QuizFormat string

const (
	QuizFormatPlain  QuizFormat = "plain"
	QuizFormatMoodle QuizFormat = "moodle"
	QuizFormatCanvas QuizFormat = "canvas"
)

func (f QuizFormat) Valid() bool {
	switch f {
	case QuizFormatPlain, QuizFormatMoodle, QuizFormatCanvas:
		return true
	}
	return false
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
