package gifgen

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nfnt/resize"

	"github.com/v0xg/storygrab/internal/overlay"
	"github.com/v0xg/storygrab/internal/story"
)

// ErrNoFrames is returned when a story has no captured page images.
var ErrNoFrames = errors.New("no captured page images")

// Options configures the flip-book
type Options struct {
	PageDelay time.Duration // how long each page stays on screen
	MaxWidth  uint
	Progress  bool // draw a reading-progress strip on every page
}

// FromStory renders the captured image of every page into an animated GIF at
// outputPath. Relative image paths are resolved against base. Pages without
// an image are skipped.
func FromStory(s *story.Story, base, outputPath string, opts Options) (int64, error) {
	var frames []image.Image
	for _, p := range s.Pages {
		if p.Image == "" {
			continue
		}
		path := p.Image
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}
		img, err := loadFrame(path)
		if err != nil {
			return 0, fmt.Errorf("page %d: %w", p.ID, err)
		}
		frames = append(frames, img)
	}
	if len(frames) == 0 {
		return 0, ErrNoFrames
	}
	return Generate(frames, outputPath, opts)
}

func loadFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Generate creates a GIF from frames
func Generate(frames []image.Image, outputPath string, opts Options) (int64, error) {
	if len(frames) == 0 {
		return 0, ErrNoFrames
	}

	// GIF delays are in 100ths of a second
	delay := int(opts.PageDelay / (10 * time.Millisecond))
	if delay <= 0 {
		delay = 300
	}

	bounds := frames[0].Bounds()
	outputWidth := opts.MaxWidth
	if outputWidth == 0 {
		outputWidth = 800
	}
	if uint(bounds.Dx()) < outputWidth {
		outputWidth = uint(bounds.Dx())
	}

	// Keep the first frame's aspect ratio for every page
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	outputHeight := uint(float64(outputWidth) * aspectRatio)

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}

	resized := make([]image.Image, len(frames))
	for i, frame := range frames {
		resized[i] = resize.Resize(outputWidth, outputHeight, frame, resize.Lanczos3)
	}
	if opts.Progress {
		resized = overlay.ApplyProgress(resized)
	}

	palette := generatePalette(resized...)

	for i, frame := range resized {
		paletted := image.NewPaletted(frame.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, frame.Bounds(), frame, image.Point{})

		g.Image[i] = paletted
		g.Delay[i] = delay
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// generatePalette builds a 256-color palette from the most frequent colors
// sampled across all frames.
func generatePalette(frames ...image.Image) color.Palette {
	colorMap := make(map[color.RGBA]int)

	step := 4 // sample every 4th pixel
	for _, img := range frames {
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
			for x := bounds.Min.X; x < bounds.Max.X; x += step {
				r, g, b, _ := img.At(x, y).RGBA()
				c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
				colorMap[c]++
			}
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(colorMap))
	for c, count := range colorMap {
		colors = append(colors, colorCount{c, count})
	}
	sort.Slice(colors, func(i, j int) bool {
		return colors[i].count > colors[j].count
	})

	palette := make(color.Palette, 0, 256)
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}

	// Pad with grayscale
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}

	return palette
}
