// Package capture renders the widget page in headless Chromium and stores
// it as a PNG.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "jaincal/internal/log"
)

// Default capture parameters; they match the layout of the /widget page.
const (
	DefaultWidth      = 480
	DefaultHeight     = 280
	DefaultTimeoutSec = 30
	DefaultReadySel   = `[data-ready="true"]`
)

// Options defines parameters for a widget capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/widget".
	URL string

	// OutputPath is where the PNG is written. The file is replaced
	// atomically, so readers never see a partial image.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels.
	Width  int
	Height int

	// ReadySelector is waited for before the screenshot is taken.
	ReadySelector string

	Timeout time.Duration
}

func (o Options) withDefaults() (Options, error) {
	if o.URL == "" {
		return o, fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return o, fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.ReadySelector == "" {
		o.ReadySelector = DefaultReadySel
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return o, nil
}

// CaptureWidgetPNG launches a headless Chromium via chromedp, navigates to
// opts.URL, waits until the page marks itself ready and writes a PNG
// screenshot of the viewport to opts.OutputPath.
func CaptureWidgetPNG(parentCtx context.Context, opts Options) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(opts.ReadySelector, chromedp.ByQuery),
		chromedp.CaptureScreenshot(&png),
	}

	started := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := writeFileAtomic(opts.OutputPath, png); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("widget captured", "path", opts.OutputPath, "bytes", len(png), "elapsed", time.Since(started).String())
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".widget-*.png.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
