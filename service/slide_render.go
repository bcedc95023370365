package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/varunaditya27/EduSynth/constant"
	"github.com/varunaditya27/EduSynth/dto"
)

const (
	slideWidth  = 1280
	slideHeight = 720

	titleFontSize = 44
	bodyFontSize  = 28
	footFontSize  = 16
)

type themePalette struct {
	background color.NRGBA
	accent     color.NRGBA
	title      color.NRGBA
	body       color.NRGBA
	gradientTo color.NRGBA
}

var palettes = map[constant.VisualTheme]themePalette{
	constant.ThemeMinimalist: {
		background: color.NRGBA{250, 250, 250, 255},
		accent:     color.NRGBA{37, 99, 235, 255},
		title:      color.NRGBA{17, 24, 39, 255},
		body:       color.NRGBA{55, 65, 81, 255},
	},
	constant.ThemeChalkboard: {
		background: color.NRGBA{30, 41, 34, 255},
		accent:     color.NRGBA{252, 211, 77, 255},
		title:      color.NRGBA{243, 244, 246, 255},
		body:       color.NRGBA{209, 213, 219, 255},
	},
	constant.ThemeCorporate: {
		background: color.NRGBA{255, 255, 255, 255},
		accent:     color.NRGBA{30, 58, 138, 255},
		title:      color.NRGBA{30, 58, 138, 255},
		body:       color.NRGBA{51, 65, 85, 255},
	},
	constant.ThemeModern: {
		background: color.NRGBA{15, 23, 42, 255},
		accent:     color.NRGBA{34, 211, 238, 255},
		title:      color.NRGBA{248, 250, 252, 255},
		body:       color.NRGBA{203, 213, 225, 255},
	},
	constant.ThemeGradient: {
		background: color.NRGBA{76, 29, 149, 255},
		gradientTo: color.NRGBA{190, 24, 93, 255},
		accent:     color.NRGBA{251, 191, 36, 255},
		title:      color.NRGBA{255, 255, 255, 255},
		body:       color.NRGBA{237, 233, 254, 255},
	},
}

// SlideRenderer composites 1280x720 PNG frames from slide content. The font
// is parsed once at startup; faces per size are derived from it.
type SlideRenderer struct {
	titleFace font.Face
	bodyFace  font.Face
	footFace  font.Face
}

func NewSlideRenderer(fontPath string) (*SlideRenderer, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}

	face := func(size float64) font.Face {
		return truetype.NewFace(parsedFont, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}

	return &SlideRenderer{
		titleFace: face(titleFontSize),
		bodyFace:  face(bodyFontSize),
		footFace:  face(footFontSize),
	}, nil
}

// Render draws one slide. photo is optional; when present it fills the right
// third of the frame, center-cropped.
func (r *SlideRenderer) Render(slide dto.SlidePlan, theme constant.VisualTheme, photo image.Image, attribution string) ([]byte, error) {
	pal, ok := palettes[theme]
	if !ok {
		pal = palettes[constant.ThemeMinimalist]
	}

	dc := gg.NewContext(slideWidth, slideHeight)

	if theme == constant.ThemeGradient {
		grad := gg.NewLinearGradient(0, 0, slideWidth, slideHeight)
		grad.AddColorStop(0, pal.background)
		grad.AddColorStop(1, pal.gradientTo)
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, slideWidth, slideHeight)
		dc.Fill()
	} else {
		dc.SetColor(pal.background)
		dc.Clear()
	}

	textRight := float64(slideWidth) - 80
	if photo != nil {
		drawPhotoPanel(dc, photo)
		textRight = float64(slideWidth)*2/3 - 40
	}

	// Accent bar under the title.
	dc.SetColor(pal.accent)
	dc.DrawRectangle(80, 150, 120, 6)
	dc.Fill()

	dc.SetFontFace(r.titleFace)
	dc.SetColor(pal.title)
	dc.DrawStringWrapped(slide.Title, 80, 70, 0, 0, textRight-80, 1.2, gg.AlignLeft)

	dc.SetFontFace(r.bodyFace)
	dc.SetColor(pal.body)
	y := 220.0
	for _, point := range slide.Points {
		dc.SetColor(pal.accent)
		dc.DrawCircle(92, y+12, 5)
		dc.Fill()

		dc.SetColor(pal.body)
		dc.DrawStringWrapped(point, 115, y, 0, 0, textRight-115, 1.3, gg.AlignLeft)

		lines := dc.WordWrap(point, textRight-115)
		y += float64(len(lines))*float64(bodyFontSize)*1.3 + 24
	}

	if attribution != "" {
		dc.SetFontFace(r.footFace)
		dc.SetColor(pal.body)
		dc.DrawString("Photo: "+attribution, 80, slideHeight-24)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// drawPhotoPanel center-crops the photo to the right-third panel aspect and
// scales it in.
func drawPhotoPanel(dc *gg.Context, photo image.Image) {
	panelW := slideWidth / 3
	panelH := slideHeight
	panelX := slideWidth - panelW

	b := photo.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	targetRatio := float64(panelW) / float64(panelH)
	cropW, cropH := srcW, srcH
	if float64(srcW)/float64(srcH) > targetRatio {
		cropW = int(float64(srcH) * targetRatio)
	} else {
		cropH = int(float64(srcW) / targetRatio)
	}
	x0 := b.Min.X + (srcW-cropW)/2
	y0 := b.Min.Y + (srcH-cropH)/2

	dst := image.NewRGBA(image.Rect(0, 0, panelW, panelH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), photo, image.Rect(x0, y0, x0+cropW, y0+cropH), draw.Over, nil)

	dc.DrawImage(dst, panelX, 0)
}
