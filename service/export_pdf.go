package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/varunaditya27/EduSynth/entities"
	"github.com/varunaditya27/EduSynth/pkg/apperr"
)

const (
	OrientationAuto      = "auto"
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"

	PresetDesktop = "desktop"
	PresetTablet  = "tablet"
	PresetMobile  = "mobile"
)

// PDFOptions control the handout layout. The zero value means auto
// orientation on the desktop preset.
type PDFOptions struct {
	Orientation  string
	DevicePreset string
}

// Normalize fills defaults and rejects unknown values. Auto resolves to
// landscape because the slide frames are 16:9.
func (o PDFOptions) Normalize() (PDFOptions, error) {
	switch o.Orientation {
	case "", OrientationAuto:
		o.Orientation = OrientationLandscape
	case OrientationPortrait, OrientationLandscape:
	default:
		return o, apperr.New(apperr.KindValidation, "INVALID_ORIENTATION", "unknown orientation %q", o.Orientation)
	}
	switch o.DevicePreset {
	case "":
		o.DevicePreset = PresetDesktop
	case PresetDesktop, PresetTablet, PresetMobile:
	default:
		return o, apperr.New(apperr.KindValidation, "INVALID_PRESET", "unknown device preset %q", o.DevicePreset)
	}
	return o, nil
}

func newHandoutPDF(o PDFOptions) *fpdf.Fpdf {
	orient := "L"
	if o.Orientation == OrientationPortrait {
		orient = "P"
	}
	switch o.DevicePreset {
	case PresetTablet:
		return fpdf.New(orient, "mm", "A5", "")
	case PresetMobile:
		// Phone-shaped page, roughly 16:9.
		return fpdf.NewCustom(&fpdf.InitType{
			OrientationStr: orient,
			UnitStr:        "mm",
			Size:           fpdf.SizeType{Wd: 90, Ht: 160},
		})
	default:
		return fpdf.New(orient, "mm", "A4", "")
	}
}

// ExportSlidesPDF writes a handout with one rendered slide frame per page,
// followed by a narration transcript. Expects workDir to contain
// slide_%03d.png for every slide.
func ExportSlidesPDF(lecture *entities.Lecture, slides []*entities.Slide, workDir string, opts PDFOptions) (string, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return "", err
	}

	pdf := newHandoutPDF(opts)
	pdf.SetTitle(lecture.Topic, true)
	pdf.SetAutoPageBreak(false, 0)

	pageW, pageH := pdf.GetPageSize()

	for _, slide := range slides {
		framePath := filepath.Join(workDir, fmt.Sprintf("slide_%03d.png", slide.SlideNumber))
		if _, err := os.Stat(framePath); err != nil {
			return "", fmt.Errorf("missing slide frame %s: %w", framePath, err)
		}

		pdf.AddPage()
		// 16:9 frame centered on the page.
		imgW := pageW - 20
		imgH := imgW * 9 / 16
		if imgH > pageH-20 {
			imgH = pageH - 20
			imgW = imgH * 16 / 9
		}
		x := (pageW - imgW) / 2
		y := (pageH - imgH) / 2
		pdf.ImageOptions(framePath, x, y, imgW, imgH, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Narration Transcript", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, slide := range slides {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("Slide %d: %s", slide.SlideNumber+1, slide.Title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, slide.Narration, "", "L", false)
		pdf.Ln(3)
	}

	outputPath := filepath.Join(workDir, "slides.pdf")
	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return outputPath, nil
}
