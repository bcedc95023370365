package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

func writeTestFrames(t *testing.T, dir string, count int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for x := 0; x < 16; x++ {
		for y := 0; y < 9; y++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("slide_%03d.png", i))
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func testLectureAndSlides() (*entities.Lecture, []*entities.Slide) {
	lecture := &entities.Lecture{ID: uuid.New(), Topic: "Photosynthesis & Light"}
	slides := []*entities.Slide{
		{SlideNumber: 0, Title: "Intro <one>", Narration: "Welcome to the lecture."},
		{SlideNumber: 1, Title: "Details", Narration: "The \"main\" content."},
	}
	return lecture, slides
}

func TestExportSlidesPDF(t *testing.T) {
	dir := t.TempDir()
	writeTestFrames(t, dir, 2)
	lecture, slides := testLectureAndSlides()

	path, err := ExportSlidesPDF(lecture, slides, dir, PDFOptions{})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
	if len(data) < 500 {
		t.Errorf("suspiciously small PDF: %d bytes", len(data))
	}
}

func TestExportSlidesPDFOptions(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts PDFOptions
	}{
		{"portrait desktop", PDFOptions{Orientation: OrientationPortrait, DevicePreset: PresetDesktop}},
		{"landscape tablet", PDFOptions{Orientation: OrientationLandscape, DevicePreset: PresetTablet}},
		{"auto mobile", PDFOptions{Orientation: OrientationAuto, DevicePreset: PresetMobile}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTestFrames(t, dir, 2)
			lecture, slides := testLectureAndSlides()

			path, err := ExportSlidesPDF(lecture, slides, dir, tc.opts)
			if err != nil {
				t.Fatal(err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF")) {
				t.Error("output is not a PDF")
			}
		})
	}
}

func TestPDFOptionsRejectsUnknownValues(t *testing.T) {
	if _, err := (PDFOptions{Orientation: "diagonal"}).Normalize(); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("orientation error = %v", err)
	}
	if _, err := (PDFOptions{DevicePreset: "watch"}).Normalize(); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("preset error = %v", err)
	}

	opts, err := (PDFOptions{}).Normalize()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Orientation != OrientationLandscape || opts.DevicePreset != PresetDesktop {
		t.Errorf("defaults = %+v", opts)
	}
}

func TestExportSlidesPDFMissingFrame(t *testing.T) {
	dir := t.TempDir()
	lecture, slides := testLectureAndSlides()

	if _, err := ExportSlidesPDF(lecture, slides, dir, PDFOptions{}); err == nil {
		t.Error("missing frames should fail the export")
	}
}

// frameStore serves a tiny PNG for every frame download.
type frameStore struct {
	memStore
	png []byte
}

func (f *frameStore) Download(_ context.Context, _, localPath string) error {
	return os.WriteFile(localPath, f.png, 0644)
}

func exportFixture(t *testing.T, rendered bool) (*ExportService, *frameStore, uuid.UUID) {
	t.Helper()
	repo := newMemRepo()
	lecture := &entities.Lecture{ID: uuid.New(), Topic: "Photosynthesis"}
	if err := repo.CreateLecture(context.Background(), lecture); err != nil {
		t.Fatal(err)
	}

	slides := []*entities.Slide{
		{ID: uuid.New(), LectureID: lecture.ID, SlideNumber: 0, Title: "Intro", Narration: "welcome"},
		{ID: uuid.New(), LectureID: lecture.ID, SlideNumber: 1, Title: "Body", Narration: "content"},
	}
	if rendered {
		for _, s := range slides {
			url := "http://store.test/frames/" + s.ID.String()
			s.SlideImageURL = &url
		}
	}
	if err := repo.CreateSlides(context.Background(), slides); err != nil {
		t.Fatal(err)
	}

	store := &frameStore{png: tinyPNG(t)}
	return NewExportService(repo, store), store, lecture.ID
}

func TestExportServiceLecturePDF(t *testing.T) {
	svc, store, lectureID := exportFixture(t, true)

	resp, err := svc.LecturePDF(context.Background(), lectureID, PDFOptions{Orientation: OrientationPortrait})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Format != "pdf" || resp.LectureID != lectureID {
		t.Errorf("response = %+v", resp)
	}

	wantKey := "lectures/" + lectureID.String() + "/exports/slides_portrait_desktop.pdf"
	if _, ok := store.uploaded[wantKey]; !ok {
		t.Errorf("uploaded keys = %v, want %s", store.uploaded, wantKey)
	}
	if !strings.HasSuffix(resp.URL, wantKey) {
		t.Errorf("url = %q", resp.URL)
	}
}

func TestExportServiceLecturePPTX(t *testing.T) {
	svc, store, lectureID := exportFixture(t, true)

	resp, err := svc.LecturePPTX(context.Background(), lectureID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Format != "pptx" {
		t.Errorf("format = %q", resp.Format)
	}
	wantKey := "lectures/" + lectureID.String() + "/exports/slides.pptx"
	if _, ok := store.uploaded[wantKey]; !ok {
		t.Errorf("uploaded keys = %v", store.uploaded)
	}
}

func TestExportServiceRequiresRenderedSlides(t *testing.T) {
	svc, _, lectureID := exportFixture(t, false)

	_, err := svc.LecturePDF(context.Background(), lectureID, PDFOptions{})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
	if apperr.CodeOf(err) != "CONTENT_NOT_READY" {
		t.Errorf("code = %q", apperr.CodeOf(err))
	}
}

func TestExportServiceRejectsBadOptions(t *testing.T) {
	svc, _, lectureID := exportFixture(t, true)

	_, err := svc.LecturePDF(context.Background(), lectureID, PDFOptions{Orientation: "sideways"})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestExportSlidesPPTX(t *testing.T) {
	dir := t.TempDir()
	writeTestFrames(t, dir, 2)
	lecture, slides := testLectureAndSlides()

	path, err := ExportSlidesPPTX(lecture, slides, dir)
	if err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	parts := make(map[string]bool)
	for _, f := range zr.File {
		parts[f.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"ppt/presentation.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/media/image1.png",
		"ppt/media/image2.png",
		"ppt/notesSlides/notesSlide1.xml",
	} {
		if !parts[want] {
			t.Errorf("missing part %s", want)
		}
	}
}

func TestPPTXEscapesXML(t *testing.T) {
	out := pptxSlide(`Title <with> "specials" & more`)
	if strings.Contains(out, "<with>") {
		t.Error("title not escaped")
	}
	if !strings.Contains(out, "&lt;with&gt;") {
		t.Error("expected escaped angle brackets")
	}

	notes := pptxNotesSlide(`a < b & c`)
	if !strings.Contains(notes, "a &lt; b &amp; c") {
		t.Errorf("narration not escaped:\n%s", notes)
	}
}
