package main

/*
WHAT'S GOING ON HERE?

This file renders the attention-map result as a self-contained HTML file:
the original image, the rollout relevance mask as a heatmap, and the
masked overlay, side by side - the same three panels the usual
matplotlib figure would show, but with no plotting stack required.

WHY HTML?
- Works everywhere (just open in browser)
- Self-contained (no server, no external assets)
- Easy to share and archive runs
*/

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// SaveAttentionHTML writes an HTML report showing the original image, the
// relevance-mask heatmap, and the attention overlay.
//
// img and overlay must be (height, width, 3) tensors with values in
// [0, 255]; mask must be 2D with values in [0, 1] (any grid size - it is
// drawn scaled to the image panel).
func SaveAttentionHTML(path string, img, overlay, mask *Tensor) error {
	if img.Dims() != 3 || overlay.Dims() != 3 || mask.Dims() != 2 {
		return fmt.Errorf("%w: want image (H,W,3), overlay (H,W,3), mask (g,g)", ErrInvalidShape)
	}
	if !shapeEqual(img.shape, overlay.shape) {
		return fmt.Errorf("%w: image %v vs overlay %v", ErrShapeMismatch, img.Shape(), overlay.Shape())
	}

	h, w := img.shape[0], img.shape[1]
	gh, gw := mask.shape[0], mask.shape[1]

	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Attention Map</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background: #0d1117;
            color: #c9d1d9;
            padding: 20px;
        }
        h1 { color: #58a6ff; font-size: 24px; margin-bottom: 20px; }
        .panels { display: flex; gap: 20px; flex-wrap: wrap; }
        .panel {
            background: #161b22;
            border: 1px solid #30363d;
            border-radius: 6px;
            padding: 15px;
            text-align: center;
        }
        .panel-title { color: #8b949e; font-size: 13px; margin-bottom: 10px; }
        canvas { image-rendering: pixelated; width: 280px; height: 280px; }
        .footer { color: #8b949e; font-size: 12px; margin-top: 30px; }
    </style>
</head>
<body>
    <h1>Attention rollout</h1>
    <div class="panels">
        <div class="panel"><div class="panel-title">Original</div><canvas id="original" width="%d" height="%d"></canvas></div>
        <div class="panel"><div class="panel-title">Relevance mask (%dx%d grid)</div><canvas id="mask" width="%d" height="%d"></canvas></div>
        <div class="panel"><div class="panel-title">Overlay</div><canvas id="overlay" width="%d" height="%d"></canvas></div>
    </div>
    <div class="footer">Head-averaged, residual-adjusted attention composed across all layers (Abnar &amp; Zuidema rollout).</div>

    <script>
        const width = %d, height = %d;
        const maskW = %d, maskH = %d;
        const original = %s;
        const overlay = %s;
        const mask = %s;

        function drawRGB(canvasId, pixels) {
            const ctx = document.getElementById(canvasId).getContext('2d');
            const im = ctx.createImageData(width, height);
            for (let i = 0; i < width * height; i++) {
                im.data[4*i]   = pixels[3*i];
                im.data[4*i+1] = pixels[3*i+1];
                im.data[4*i+2] = pixels[3*i+2];
                im.data[4*i+3] = 255;
            }
            ctx.putImageData(im, 0, 0);
        }

        function drawMask() {
            const ctx = document.getElementById('mask').getContext('2d');
            const im = ctx.createImageData(maskW, maskH);
            for (let i = 0; i < maskW * maskH; i++) {
                const v = Math.max(0, Math.min(1, mask[i]));
                // Blue-to-yellow heat ramp
                im.data[4*i]   = Math.round(255 * v);
                im.data[4*i+1] = Math.round(215 * v);
                im.data[4*i+2] = Math.round(120 * (1 - v));
                im.data[4*i+3] = 255;
            }
            ctx.putImageData(im, 0, 0);
        }

        drawRGB('original', original);
        drawRGB('overlay', overlay);
        drawMask();
    </script>
</body>
</html>`,
		w, h, gw, gh, gw, gh, w, h,
		w, h, gw, gh,
		formatJSPixels(img),
		formatJSPixels(overlay),
		formatJSArrayFloat(mask.data))

	return os.WriteFile(path, []byte(html), 0644)
}

// formatJSPixels flattens a (H, W, 3) tensor into a JavaScript array of
// rounded byte values.
func formatJSPixels(t *Tensor) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range t.data {
		if i > 0 {
			sb.WriteString(",")
		}
		c := math.Max(0, math.Min(255, math.Round(v)))
		sb.WriteString(fmt.Sprintf("%d", int(c)))
	}
	sb.WriteString("]")
	return sb.String()
}

// formatJSArrayFloat formats a float64 slice as a JavaScript array
func formatJSArrayFloat(arr []float64) string {
	if len(arr) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteString("[")
	for i, v := range arr {
		if i > 0 {
			sb.WriteString(",")
		}
		// Handle NaN and Inf
		if math.IsNaN(v) {
			sb.WriteString("null")
		} else if math.IsInf(v, 1) {
			sb.WriteString("1e308")
		} else if math.IsInf(v, -1) {
			sb.WriteString("-1e308")
		} else {
			sb.WriteString(fmt.Sprintf("%.6f", v))
		}
	}
	sb.WriteString("]")
	return sb.String()
}
