// Package image converts a HTML page into a PNG screenshot.
package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
)

// Renderer knows how to take a screenshot from a HTML input and writes it as PNG.
type Renderer struct {
	options

	l *slog.Logger
}

// New builds an image [Renderer] from HTML.
func New(opts ...Option) *Renderer {
	return &Renderer{
		options: optionsWithDefaults(opts),
		l:       slog.Default().With(slog.String("module", "image")),
	}
}

// Render a PNG image as a screenshot from a HTML input [io.Reader].
func (r *Renderer) Render(dest io.Writer, source io.Reader) error {
	return r.RenderContext(context.Background(), dest, source)
}

// RenderContext renders a PNG screenshot like [Renderer.Render], and stops when the context is done.
func (r *Renderer) RenderContext(ctx context.Context, dest io.Writer, source io.Reader) error {
	screenshot, err := r.screenshot(ctx, source)
	if err != nil {
		return fmt.Errorf("taking screenshot: %w", err)
	}

	_, err = dest.Write(screenshot)
	if err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	r.l.Info("rendered screenshot", slog.Int("bytes", len(screenshot)))

	return nil
}

func (r *Renderer) screenshot(parent context.Context, reader io.Reader) ([]byte, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	// pages embed large tables and plot data: load them from a file rather than a data URL
	page, err := os.CreateTemp("", "flathubviz-*.html")
	if err != nil {
		return nil, fmt.Errorf("create page file: %w", err)
	}
	defer func() {
		_ = os.Remove(page.Name())
	}()

	if _, err := page.Write(content); err != nil {
		_ = page.Close()

		return nil, fmt.Errorf("write page file: %w", err)
	}
	if err := page.Close(); err != nil {
		return nil, fmt.Errorf("close page file: %w", err)
	}

	location, err := filepath.Abs(page.Name())
	if err != nil {
		return nil, fmt.Errorf("locate page file: %w", err)
	}

	ctx, cancel := context.WithTimeout(parent, r.Timeout)
	defer cancel()

	ctx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	var screenshot []byte
	const qualityPNG = 100 // 100 to force PNG

	err = chromedp.Run(ctx,
		chromedp.Emulate(device.Info{
			Height:    r.Height,
			Width:     r.Width,
			Landscape: true,
		}),
		chromedp.Navigate("file://"+filepath.ToSlash(location)),
		chromedp.Sleep(r.SleepDuration), // we need to wait some time to get the rendering done
		chromedp.FullScreenshot(&screenshot, qualityPNG),
	)
	if err != nil {
		return nil, err
	}

	return screenshot, nil
}
