// Package raster draws scorecards to PNG using go-chart's raster renderer.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/nilsimda/court-scorecard/scorecard"
)

// Card geometry in CSS pixels; 9:16.
const (
	BaseWidth  = 432
	BaseHeight = 768
)

var ErrInvalidPixelRatio = errors.New("pixel ratio must be positive")

// Rasterizer implements scorecard.Rasterizer.
type Rasterizer struct {
	font *truetype.Font
}

var _ scorecard.Rasterizer = (*Rasterizer)(nil)

// New returns a rasterizer drawing text with font, or go-chart's bundled
// font when font is nil.
func New(font *truetype.Font) (*Rasterizer, error) {
	if font == nil {
		f, err := chart.GetDefaultFont()
		if err != nil {
			return nil, fmt.Errorf("failed to load default font: %w", err)
		}
		font = f
	}
	return &Rasterizer{font: font}, nil
}

// LoadFont parses a TrueType font file.
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	return f, nil
}

// Size returns the output dimensions for a pixel ratio.
func Size(pixelRatio float64) (width, height int) {
	return int(math.Round(BaseWidth * pixelRatio)), int(math.Round(BaseHeight * pixelRatio))
}

func (r *Rasterizer) Rasterize(ctx context.Context, card scorecard.Card, pixelRatio float64) ([]byte, error) {
	if pixelRatio <= 0 || math.IsNaN(pixelRatio) || math.IsInf(pixelRatio, 0) {
		return nil, ErrInvalidPixelRatio
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := Size(pixelRatio)
	rr, err := chart.PNG(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	// Font sizes are given in CSS pixels, so one point maps to one pixel per ratio.
	rr.SetDPI(72 * pixelRatio)

	p := &painter{r: rr, scale: pixelRatio, font: r.font}
	steps := []func(){
		p.background,
		p.courtLines,
		p.corners,
		func() { p.header(card) },
		func() { p.contestant(card.Player, 250, colorPrimary) },
		func() { p.separator(card.Separator, 395) },
		func() { p.contestant(card.Opponent, 430, colorAccent) },
		func() { p.footer(card.Date) },
	}
	for _, step := range steps {
		step()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := rr.Save(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
