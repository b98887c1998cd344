// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	defaultTimeout = 60 * time.Second
	defaultSettle  = 3 * time.Second
)

// Renderer drives a headless Chrome to fetch the fully rendered HTML
// of a page. The zero value works when Chrome is on PATH; set ExecPath
// to pin a specific binary (see FindChrome).
type Renderer struct {
	// ExecPath is the Chrome binary to launch. Empty means let
	// chromedp locate one.
	ExecPath string
	// Timeout bounds a single page render. Zero means 60 s.
	Timeout time.Duration
	// Settle is how long to wait after the body is ready, giving
	// client-side scripts time to fill in the listing. Zero means 3 s.
	Settle time.Duration
}

// HTML navigates to url and returns the serialized document after the
// page has settled.
func (r *Renderer) HTML(ctx context.Context, url string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	settle := r.Settle
	if settle <= 0 {
		settle = defaultSettle
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}
	return html, nil
}
