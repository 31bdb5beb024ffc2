package gifgen

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/storygrab/internal/story"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestGenerate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "book", "story.gif")
	frames := []image.Image{
		solid(200, 100, color.RGBA{255, 0, 0, 255}),
		solid(200, 100, color.RGBA{0, 0, 255, 255}),
	}

	size, err := Generate(frames, out, Options{PageDelay: 2 * time.Second, MaxWidth: 100})
	require.NoError(t, err)
	assert.Positive(t, size)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)

	require.Len(t, g.Image, 2)
	assert.Equal(t, []int{200, 200}, g.Delay)
	assert.Equal(t, 100, g.Image[0].Bounds().Dx())
	assert.Equal(t, 50, g.Image[0].Bounds().Dy())
}

func TestGenerateKeepsSmallFrames(t *testing.T) {
	out := filepath.Join(t.TempDir(), "small.gif")
	_, err := Generate([]image.Image{solid(40, 20, color.White)}, out, Options{})
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Equal(t, 40, g.Image[0].Bounds().Dx())
	assert.Equal(t, []int{300}, g.Delay)
}

func TestFromStory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	writePNG(t, filepath.Join(dir, "images", "page_1.png"), solid(60, 40, color.Black))
	writePNG(t, filepath.Join(dir, "images", "page_3.png"), solid(60, 40, color.White))

	s := &story.Story{Pages: []story.Page{
		{ID: 1, Text: "one", Image: "images/page_1.png"},
		{ID: 2, Text: "two"},
		{ID: 3, Text: "three", Image: "images/page_3.png"},
	}}
	out := filepath.Join(dir, "story.gif")
	_, err := FromStory(s, dir, out, Options{})
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 2)
}

func TestFromStoryErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := FromStory(&story.Story{Pages: []story.Page{{ID: 1, Text: "no image"}}}, dir, filepath.Join(dir, "a.gif"), Options{})
	assert.ErrorIs(t, err, ErrNoFrames)

	_, err = FromStory(&story.Story{Pages: []story.Page{{ID: 1, Image: "missing.png"}}}, dir, filepath.Join(dir, "b.gif"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1")
}

func TestGenerateWithProgress(t *testing.T) {
	out := filepath.Join(t.TempDir(), "progress.gif")
	frames := []image.Image{solid(80, 40, color.White), solid(80, 40, color.White)}

	_, err := Generate(frames, out, Options{Progress: true})
	require.NoError(t, err)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)

	require.Len(t, g.Image, 2)
	r, _, _, _ := g.Image[1].At(70, 39).RGBA()
	assert.Less(t, r>>8, uint32(200), "strip should darken the bottom row")
}
