// Package render produces thumbnail images locally when the remote design
// service is unavailable.
package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const (
	// Canvas size matches the remote export resolution.
	Width  = 1280
	Height = 720

	// Title lines must fit within the canvas width minus this total margin.
	horizontalMargin = 100

	maxTitleLines = 3

	titleFontSize    = 64.0
	subtitleFontSize = 36.0
	titleLineHeight  = 84.0
)

// Renderer rasterizes a title card: vertical gradient background, accent
// borders on both sides, a word-wrapped centered title with drop shadow and
// an optional subtitle.
type Renderer struct {
	outDir string
}

// NewRenderer creates a Renderer writing PNGs into outDir, or the system
// temp directory when outDir is empty.
func NewRenderer(outDir string) *Renderer {
	if outDir == "" {
		outDir = os.TempDir()
	}
	return &Renderer{outDir: outDir}
}

// Render draws the title card and returns the path of the persisted PNG.
func (r *Renderer) Render(title, subtitle string) (string, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return "", fmt.Errorf("render: parse font: %w", err)
	}
	titleFace, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: titleFontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return "", fmt.Errorf("render: build title face: %w", err)
	}
	subtitleFace, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: subtitleFontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return "", fmt.Errorf("render: build subtitle face: %w", err)
	}

	dc := gg.NewContext(Width, Height)
	drawBackground(dc)
	drawAccentBorders(dc)

	dc.SetFontFace(titleFace)
	lines := wrapLines(func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}, title, Width-horizontalMargin, maxTitleLines)

	blockTop := Height/2.0 - titleLineHeight*float64(len(lines)-1)/2.0
	if subtitle != "" {
		blockTop -= 40
	}
	for i, line := range lines {
		y := blockTop + titleLineHeight*float64(i)
		// 2px drop shadow behind the title.
		dc.SetRGBA(0, 0, 0, 0.8)
		dc.DrawStringAnchored(line, Width/2+2, y+2, 0.5, 0.5)
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(line, Width/2, y, 0.5, 0.5)
	}

	if subtitle != "" {
		dc.SetFontFace(subtitleFace)
		y := blockTop + titleLineHeight*float64(len(lines)) + 20
		dc.SetRGBA(0, 0, 0, 0.8)
		dc.DrawStringAnchored(subtitle, Width/2+1, y+1, 0.5, 0.5)
		dc.SetRGBA(0.85, 0.88, 0.95, 1)
		dc.DrawStringAnchored(subtitle, Width/2, y, 0.5, 0.5)
	}

	path := filepath.Join(r.outDir, fmt.Sprintf("thumbnail_%s.png", uuid.NewString()))
	if err := dc.SavePNG(path); err != nil {
		return "", fmt.Errorf("render: save png: %w", err)
	}
	return path, nil
}

func drawBackground(dc *gg.Context) {
	grad := gg.NewLinearGradient(0, 0, 0, Height)
	grad.AddColorStop(0, rgb(0x1E, 0x2A, 0x52))
	grad.AddColorStop(1, rgb(0x0B, 0x0E, 0x1A))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, Width, Height)
	dc.Fill()
}

func drawAccentBorders(dc *gg.Context) {
	dc.SetColor(rgb(0x4A, 0x90, 0xE2))
	dc.DrawRectangle(0, 0, 10, Height)
	dc.Fill()
	dc.DrawRectangle(Width-10, 0, 10, Height)
	dc.Fill()
}

// wrapLines breaks text into at most maxLines lines that each measure within
// maxWidth. Breaks happen at spaces when possible, otherwise per rune (for
// unspaced text such as Japanese). Overflow past the last line is marked
// with an ellipsis.
func wrapLines(measure func(string) float64, text string, maxWidth float64, maxLines int) []string {
	tokens := tokenize(measure, text, maxWidth)
	if len(tokens) == 0 {
		return []string{""}
	}

	var lines []string
	line := ""
	for _, tok := range tokens {
		candidate := tok
		if line != "" {
			candidate = line + " " + tok
		}
		if measure(candidate) <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = tok
	}
	lines = append(lines, line)

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] += "…"
	}
	return lines
}

// tokenize splits text at spaces, further breaking any word wider than
// maxWidth into rune chunks that fit.
func tokenize(measure func(string) float64, text string, maxWidth float64) []string {
	var tokens []string
	for _, word := range strings.Fields(text) {
		if measure(word) <= maxWidth {
			tokens = append(tokens, word)
			continue
		}
		chunk := ""
		for _, r := range word {
			if chunk != "" && measure(chunk+string(r)) > maxWidth {
				tokens = append(tokens, chunk)
				chunk = ""
			}
			chunk += string(r)
		}
		if chunk != "" {
			tokens = append(tokens, chunk)
		}
	}
	return tokens
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
