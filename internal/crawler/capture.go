package crawler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/go-rod/rod/lib/proto"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/v0xg/storygrab/internal/story"
)

// Capturer screenshots accepted spreads into dir as page_<id>.png.
type Capturer struct {
	b        *Browser
	dir      string
	maxWidth uint
}

// Capturer returns a story.Capturer writing into dir. Images wider than
// maxWidth are scaled down; zero keeps the native size.
func (b *Browser) Capturer(dir string, maxWidth uint) *Capturer {
	return &Capturer{b: b, dir: dir, maxWidth: maxWidth}
}

var _ story.Capturer = (*Capturer)(nil)

// Capture shoots the region element when it is a live element, otherwise
// the visible viewport.
func (c *Capturer) Capture(ctx context.Context, page story.Page, region story.Element) (string, error) {
	var (
		data []byte
		err  error
	)
	if el, ok := region.(*liveElement); ok {
		data, err = el.el.Context(ctx).Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	} else {
		data, err = c.b.page.Context(ctx).Screenshot(false, nil)
	}
	if err != nil {
		return "", fmt.Errorf("screenshot page %d: %w", page.ID, err)
	}

	data, err = c.scale(data)
	if err != nil {
		return "", fmt.Errorf("scale page %d: %w", page.ID, err)
	}

	path := filepath.Join(c.dir, fmt.Sprintf("page_%d.png", page.ID))
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	c.b.log.Debug("captured page", zap.Int("page", page.ID), zap.String("path", path))
	return path, nil
}

func (c *Capturer) scale(data []byte) ([]byte, error) {
	if c.maxWidth == 0 {
		return data, nil
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if uint(img.Bounds().Dx()) <= c.maxWidth {
		return data, nil
	}
	return encodePNG(resize.Resize(c.maxWidth, 0, img, resize.Lanczos3))
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
