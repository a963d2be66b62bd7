package recognition

import (
	"image"
	"image/color"
	stddraw "image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	matchedColor   = color.RGBA{0, 200, 0, 255}
	unmatchedColor = color.RGBA{255, 0, 0, 255}
)

// FaceLabel pairs a bounding box with the text drawn next to it. An
// empty Name marks a face nobody on the roster claimed.
type FaceLabel struct {
	BBox []float64
	Name string
}

// Annotate copies the image and draws a rectangle per face, green with
// the student name for matched faces and red with "Unknown" for faces
// nobody on the roster claimed.
func Annotate(img image.Image, labels []FaceLabel) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	stddraw.Draw(dst, bounds, img, bounds.Min, stddraw.Src)

	for _, l := range labels {
		if len(l.BBox) != 4 {
			continue
		}
		c := matchedColor
		name := l.Name
		if name == "" {
			c = unmatchedColor
			name = "Unknown"
		}
		drawRect(dst, l.BBox, 2, c)
		drawLabel(dst, name, int(l.BBox[0]), int(l.BBox[3])+14, c)
	}

	return dst
}

func drawRect(dst *image.RGBA, bbox []float64, lineWidth int, c color.RGBA) {
	x1 := int(bbox[0])
	y1 := int(bbox[1])
	x2 := int(bbox[2])
	y2 := int(bbox[3])

	for w := 0; w < lineWidth; w++ {
		drawHLine(dst, x1, x2, y1+w, c)
		drawHLine(dst, x1, x2, y2-w, c)
		drawVLine(dst, y1, y2, x1+w, c)
		drawVLine(dst, y1, y2, x2-w, c)
	}
}

// drawHLine draws a horizontal line on the image.
func drawHLine(dst *image.RGBA, x1, x2, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := x1; x <= x2; x++ {
		if x >= bounds.Min.X && x < bounds.Max.X {
			dst.Set(x, y, c)
		}
	}
}

// drawVLine draws a vertical line on the image.
func drawVLine(dst *image.RGBA, y1, y2, x int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := y1; y <= y2; y++ {
		if y >= bounds.Min.Y && y < bounds.Max.Y {
			dst.Set(x, y, c)
		}
	}
}

func drawLabel(dst *image.RGBA, text string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
