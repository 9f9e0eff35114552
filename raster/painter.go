package raster

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/nilsimda/court-scorecard/scorecard"
)

var (
	colorPrimary = drawing.ColorFromHex("32574C")
	colorMid     = drawing.ColorFromHex("4a7366")
	colorSand    = drawing.ColorFromHex("d4c5b0")
	colorAccent  = drawing.ColorFromHex("82644f")
	colorPanel   = drawing.ColorFromHex("f5ebe0")
	colorWhite   = drawing.ColorWhite
)

const (
	gradientSteps = 192
	padding       = 32.0
	panelHeight   = 110.0
	ellipsis      = "..."
)

// painter draws in CSS pixels and scales to device pixels.
type painter struct {
	r     chart.Renderer
	scale float64
	font  *truetype.Font
}

func (p *painter) px(v float64) int {
	return int(math.Round(v * p.scale))
}

func alpha(c drawing.Color, a float64) drawing.Color {
	return c.WithAlpha(uint8(math.Round(a * 255)))
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func (p *painter) rectPath(x, y, w, h float64) {
	p.r.MoveTo(p.px(x), p.px(y))
	p.r.LineTo(p.px(x+w), p.px(y))
	p.r.LineTo(p.px(x+w), p.px(y+h))
	p.r.LineTo(p.px(x), p.px(y+h))
	p.r.Close()
}

func (p *painter) roundRectPath(x, y, w, h, radius float64) {
	radius = math.Min(radius, math.Min(w, h)/2)
	p.r.MoveTo(p.px(x+radius), p.px(y))
	p.r.LineTo(p.px(x+w-radius), p.px(y))
	p.r.QuadCurveTo(p.px(x+w), p.px(y), p.px(x+w), p.px(y+radius))
	p.r.LineTo(p.px(x+w), p.px(y+h-radius))
	p.r.QuadCurveTo(p.px(x+w), p.px(y+h), p.px(x+w-radius), p.px(y+h))
	p.r.LineTo(p.px(x+radius), p.px(y+h))
	p.r.QuadCurveTo(p.px(x), p.px(y+h), p.px(x), p.px(y+h-radius))
	p.r.LineTo(p.px(x), p.px(y+radius))
	p.r.QuadCurveTo(p.px(x), p.px(y), p.px(x+radius), p.px(y))
	p.r.Close()
}

func (p *painter) fillRect(x, y, w, h float64, fill drawing.Color) {
	p.r.SetFillColor(fill)
	p.rectPath(x, y, w, h)
	p.r.Fill()
}

func (p *painter) fillRoundRect(x, y, w, h, radius float64, fill drawing.Color) {
	p.r.SetFillColor(fill)
	p.roundRectPath(x, y, w, h, radius)
	p.r.Fill()
}

func (p *painter) strokeRoundRect(x, y, w, h, radius, width float64, stroke drawing.Color) {
	p.r.SetStrokeColor(stroke)
	p.r.SetStrokeWidth(width * p.scale)
	p.roundRectPath(x, y, w, h, radius)
	p.r.Stroke()
}

func (p *painter) line(x1, y1, x2, y2, width float64, stroke drawing.Color) {
	p.r.SetStrokeColor(stroke)
	p.r.SetStrokeWidth(width * p.scale)
	p.r.MoveTo(p.px(x1), p.px(y1))
	p.r.LineTo(p.px(x2), p.px(y2))
	p.r.Stroke()
}

func (p *painter) circle(cx, cy, radius float64, fill drawing.Color) {
	p.r.SetFillColor(fill)
	p.r.Circle(radius*p.scale, p.px(cx), p.px(cy))
	p.r.Fill()
}

func (p *painter) setText(size float64, c drawing.Color) {
	p.r.SetFont(p.font)
	p.r.SetFontSize(size)
	p.r.SetFontColor(c)
}

// textWidth returns the width of s in CSS pixels for the current font size.
func (p *painter) textWidth(s string) float64 {
	return float64(p.r.MeasureText(s).Width()) / p.scale
}

func (p *painter) textHeight(s string) float64 {
	return float64(p.r.MeasureText(s).Height()) / p.scale
}

// narrowGlyphs bound glyph advances from below when capping long text.
// Runes narrower than all of them may be cut early.
const narrowGlyphs = " .,:;'|!iIlj"

func (p *painter) minGlyphWidth() float64 {
	minWidth := math.Inf(1)
	for _, r := range narrowGlyphs {
		if w := p.textWidth(string(r)); w > 0 && w < minWidth {
			minWidth = w
		}
	}
	return math.Max(1, math.Min(minWidth, padding))
}

// prefix returns the first n runes of s and whether anything was cut.
func prefix(s string, n int) (string, bool) {
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// fit shortens s with an ellipsis until it fits maxWidth. Only as many runes
// as could possibly fit are ever measured.
func (p *painter) fit(s string, maxWidth float64) string {
	head, cut := prefix(s, int(maxWidth/p.minGlyphWidth())+1)
	if !cut && p.textWidth(s) <= maxWidth {
		return s
	}
	runes := []rune(head)
	n := sort.Search(len(runes)+1, func(i int) bool {
		return p.textWidth(string(runes[:i])+ellipsis) > maxWidth
	}) - 1
	if n <= 0 {
		return ellipsis
	}
	return string(runes[:n]) + ellipsis
}

// textCentered draws s centered on cx with its middle on cy.
func (p *painter) textCentered(s string, cx, cy float64) {
	w := p.textWidth(s)
	h := p.textHeight(s)
	p.r.Text(s, p.px(cx-w/2), p.px(cy+h/2))
}

func (p *painter) textLeft(s string, x, baseline float64) {
	p.r.Text(s, p.px(x), p.px(baseline))
}

func (p *painter) background() {
	step := float64(BaseHeight) / float64(gradientSteps)
	for i := 0; i < gradientSteps; i++ {
		t := float64(i) / float64(gradientSteps-1)
		var c drawing.Color
		if t < 0.5 {
			c = lerp(colorPrimary, colorMid, t*2)
		} else {
			c = lerp(colorMid, colorSand, (t-0.5)*2)
		}
		// Overlap by one pixel to avoid seams between strips.
		p.fillRect(0, float64(i)*step, BaseWidth, step+1, c)
	}
}

func (p *painter) courtLines() {
	c := alpha(colorWhite, 0.2)
	p.line(BaseWidth/2, 0, BaseWidth/2, BaseHeight, 2, c)
	p.line(0, BaseHeight/4, BaseWidth, BaseHeight/4, 2, c)
	p.line(0, BaseHeight*3/4, BaseWidth, BaseHeight*3/4, 2, c)
	p.strokeRoundRect(padding, padding, BaseWidth-2*padding, BaseHeight-2*padding, 8, 2, c)
}

func (p *painter) corners() {
	const size = 80.0
	c := alpha(colorWhite, 0.3)
	w, h := float64(BaseWidth), float64(BaseHeight)
	p.line(2, 0, 2, size, 4, c)
	p.line(0, 2, size, 2, 4, c)
	p.line(w-2, 0, w-2, size, 4, c)
	p.line(w-size, 2, w, 2, 4, c)
	p.line(2, h-size, 2, h, 4, c)
	p.line(0, h-2, size, h-2, 4, c)
	p.line(w-2, h-size, w-2, h, 4, c)
	p.line(w-size, h-2, w, h-2, 4, c)
}

func (p *painter) header(card scorecard.Card) {
	cx := float64(BaseWidth) / 2

	p.setText(30, colorPrimary)
	titleWidth := p.textWidth(card.Title) + 48
	p.fillRoundRect(cx-titleWidth/2, 64, titleWidth, 52, 12, alpha(colorPanel, 0.9))
	p.textCentered(card.Title, cx, 90)

	p.setText(16, colorWhite)
	court := p.fit(card.Court, BaseWidth-2*padding-140)
	courtWidth := p.textWidth(court) + 24
	p.fillRoundRect(cx-courtWidth/2, 136, courtWidth, 30, 15, alpha(colorWhite, 0.2))
	p.textCentered(court, cx, 151)
	p.line(cx-courtWidth/2-56, 151, cx-courtWidth/2-8, 151, 1, alpha(colorWhite, 0.5))
	p.line(cx+courtWidth/2+8, 151, cx+courtWidth/2+56, 151, 1, alpha(colorWhite, 0.5))
}

func (p *painter) contestant(c scorecard.Contestant, top float64, badge drawing.Color) {
	left, width := padding, float64(BaseWidth)-2*padding

	p.fillRoundRect(left, top, width, panelHeight, 16, alpha(colorPanel, 0.95))
	p.strokeRoundRect(left, top, width, panelHeight, 16, 2, alpha(colorWhite, 0.6))

	p.circle(left+8, top+8, 20, badge)
	p.setText(18, colorWhite)
	p.textCentered(strconv.Itoa(c.Seat), left+8, top+8)

	p.setText(48, colorWhite)
	score := p.fit(c.Score, width/2-16)
	scoreWidth := math.Max(70, p.textWidth(score)+40)
	scoreLeft := left + width - 20 - scoreWidth
	p.fillRoundRect(scoreLeft, top+15, scoreWidth, panelHeight-30, 16, colorPrimary)
	p.strokeRoundRect(scoreLeft, top+15, scoreWidth, panelHeight-30, 16, 2, alpha(colorWhite, 0.4))
	p.textCentered(score, scoreLeft+scoreWidth/2, top+panelHeight/2)

	nameLeft := left + 20
	nameWidth := scoreLeft - nameLeft - 16

	p.setText(12, colorAccent)
	p.textLeft(p.fit(strings.ToUpper(c.Label), nameWidth), nameLeft, top+40)

	p.setText(24, colorPrimary)
	p.textLeft(p.fit(c.Name, nameWidth), nameLeft, top+72)
}

func (p *painter) separator(label string, cy float64) {
	const w, h = 96.0, 44.0
	cx := float64(BaseWidth) / 2

	p.line(padding, cy, BaseWidth-padding, cy, 1, alpha(colorWhite, 0.4))
	p.fillRoundRect(cx-w/2, cy-h/2, w, h, h/2, colorPanel)
	p.strokeRoundRect(cx-w/2, cy-h/2, w, h, h/2, 4, colorAccent)

	p.setText(20, colorPrimary)
	p.textCentered(label, cx, cy)
}

func (p *painter) footer(date string) {
	cx := float64(BaseWidth) / 2

	p.setText(12, colorWhite)
	w := p.textWidth(date) + 48
	top := float64(BaseHeight) - padding - 56
	p.fillRoundRect(cx-w/2, top, w, 32, 16, alpha(colorWhite, 0.2))
	p.strokeRoundRect(cx-w/2, top, w, 32, 16, 1, alpha(colorWhite, 0.4))
	p.textCentered(date, cx, top+16)
}
