package constant

import "testing"

func TestVideoStatusCanTransitionForwardOnly(t *testing.T) {
	if !VideoStatusPending.CanTransition(VideoStatusGeneratingContent) {
		t.Error("PENDING should transition to GENERATING_CONTENT")
	}
	if !VideoStatusPending.CanTransition(VideoStatusAssemblingVideo) {
		t.Error("forward skips are allowed")
	}
	if VideoStatusCreatingSlides.CanTransition(VideoStatusGeneratingContent) {
		t.Error("backward transition must be rejected")
	}
	if VideoStatusGeneratingAudio.CanTransition(VideoStatusGeneratingAudio) {
		t.Error("self transition must be rejected")
	}
}

func TestVideoStatusFailedReachableFromNonTerminal(t *testing.T) {
	for _, s := range []VideoStatus{
		VideoStatusPending,
		VideoStatusGeneratingContent,
		VideoStatusCreatingSlides,
		VideoStatusFetchingImages,
		VideoStatusGeneratingAudio,
		VideoStatusAssemblingVideo,
	} {
		if !s.CanTransition(VideoStatusFailed) {
			t.Errorf("%s should transition to FAILED", s)
		}
	}
	if VideoStatusCompleted.CanTransition(VideoStatusFailed) {
		t.Error("COMPLETED is terminal")
	}
	if VideoStatusFailed.CanTransition(VideoStatusGeneratingContent) {
		t.Error("FAILED is terminal")
	}
}

func TestVideoStatusProgress(t *testing.T) {
	cases := map[VideoStatus]int{
		VideoStatusPending:           0,
		VideoStatusGeneratingContent: 20,
		VideoStatusCreatingSlides:    40,
		VideoStatusFetchingImages:    60,
		VideoStatusGeneratingAudio:   75,
		VideoStatusAssemblingVideo:   90,
		VideoStatusCompleted:         100,
	}
	for status, want := range cases {
		if got := status.Progress(); got != want {
			t.Errorf("%s progress = %d, want %d", status, got, want)
		}
	}
}

func TestVideoStatusLegacy(t *testing.T) {
	if got := VideoStatusPending.Legacy(); got != "pending" {
		t.Errorf("PENDING legacy = %q", got)
	}
	if got := VideoStatusFetchingImages.Legacy(); got != "processing" {
		t.Errorf("FETCHING_IMAGES legacy = %q", got)
	}
	if got := VideoStatusCompleted.Legacy(); got != "completed" {
		t.Errorf("COMPLETED legacy = %q", got)
	}
	if got := VideoStatusFailed.Legacy(); got != "failed" {
		t.Errorf("FAILED legacy = %q", got)
	}
}

func TestVisualThemeValid(t *testing.T) {
	if !ThemeChalkboard.Valid() {
		t.Error("CHALKBOARD should be valid")
	}
	if VisualTheme("NEON").Valid() {
		t.Error("unknown theme should be invalid")
	}
}
