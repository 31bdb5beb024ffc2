package overlay

import (
	"image"
	"image/color"
	"image/draw"
)

// StripHeight is the height of the progress strip in pixels
const StripHeight = 6

var (
	trackColor = color.RGBA{0, 0, 0, 160}
	fillColor  = color.RGBA{66, 133, 244, 255}
	tickColor  = color.RGBA{255, 255, 255, 255}
)

// ApplyProgress draws a reading-progress strip along the bottom of every
// frame: frame i of n fills (i+1)/n of the width, with a tick between pages.
func ApplyProgress(frames []image.Image) []image.Image {
	result := make([]image.Image, len(frames))
	for i, frame := range frames {
		result[i] = drawProgress(frame, i+1, len(frames))
	}
	return result
}

// drawProgress returns a copy of frame with the strip for page of total.
func drawProgress(frame image.Image, page, total int) image.Image {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	height := min(StripHeight, bounds.Dy())
	strip := image.Rect(bounds.Min.X, bounds.Max.Y-height, bounds.Max.X, bounds.Max.Y)
	draw.Draw(result, strip, &image.Uniform{trackColor}, image.Point{}, draw.Over)

	filled := strip
	filled.Max.X = strip.Min.X + strip.Dx()*page/total
	draw.Draw(result, filled, &image.Uniform{fillColor}, image.Point{}, draw.Src)

	for p := 1; p < total; p++ {
		x := strip.Min.X + strip.Dx()*p/total
		for y := strip.Min.Y; y < strip.Max.Y; y++ {
			setPixelSafe(result, x, y, tickColor)
		}
	}
	return result
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		img.Set(x, y, c)
	}
}
