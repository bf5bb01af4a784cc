// Package display renders composed screens into 240x240 frames. The
// engine never touches pixels itself; it hands screen values across
// this boundary.
package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/epicweatherbox/weatherbox/screen"
)

const (
	Width  = 240
	Height = 240

	margin     = 12
	cardRadius = 0 // square cards, matching the device face
	dotSize    = 4
	dotGap     = 10
)

// Sink receives finished frames. The production sink pushes to the
// panel; FileSink below covers the debug path.
type Sink interface {
	Present(frame *image.RGBA) error
}

// AnimationSink receives a validated animated asset by path. Frame
// decoding lives entirely on the playback side of this boundary.
type AnimationSink interface {
	PresentAnimation(path string) error
}

// Renderer draws screens with the fixed 7x13 face.
type Renderer struct {
	face font.Face
}

func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// Render produces the frame for a screen. The layout depends on the
// screen's page.
func (r *Renderer) Render(s screen.Screen) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, Width, Height))
	fill(frame, frame.Bounds(), rgb565(s.Colors.Background))

	switch s.Page {
	case screen.PageCurrent:
		r.drawCurrent(frame, s)
	case screen.PageForecastEarly, screen.PageForecastLate:
		r.drawForecast(frame, s)
	case screen.PageCountdown:
		r.drawCountdown(frame, s)
	case screen.PageCustom:
		r.drawCustom(frame, s)
	case screen.PageStats:
		r.drawStats(frame, s)
	default:
		r.drawUnavailable(frame, s)
	}

	r.drawIndicator(frame, s)
	return frame
}

func (r *Renderer) drawCurrent(frame *image.RGBA, s screen.Screen) {
	y := margin + s.NudgeY
	r.text(frame, s.Title, margin, y, rgb565(s.Colors.Text))
	y += 24

	card := image.Rect(margin, y, Width-margin, y+96)
	fill(frame, card, rgb565(s.Colors.Card))
	r.textCentered(frame, formatTemp(s.Temperature, s.UseCelsius), Width/2, y+28, rgb565(s.Colors.AccentOnCard))
	r.textCentered(frame, s.Subtitle, Width/2, y+52, rgb565(s.Colors.TextOnCard))
	r.textCentered(frame, fmt.Sprintf("feels %s", formatTemp(s.FeelsLike, s.UseCelsius)),
		Width/2, y+72, rgb565(s.Colors.SecondaryOnCard))
	y += 96 + 12

	r.text(frame, fmt.Sprintf("wind %.0f %s %s", s.WindSpeed, windUnit(s.UseCelsius), windArrow(s.WindDirection)),
		margin, y, rgb565(s.Colors.Secondary))
}

func (r *Renderer) drawForecast(frame *image.RGBA, s screen.Screen) {
	y := margin + s.NudgeY
	label := "Forecast"
	if s.Page == screen.PageForecastLate {
		label = "Later"
	}
	r.text(frame, fmt.Sprintf("%s  %s", s.Title, label), margin, y, rgb565(s.Colors.Text))
	y += 24

	rowHeight := 56
	for _, day := range s.Forecast {
		card := image.Rect(margin, y, Width-margin, y+rowHeight-6)
		fill(frame, card, rgb565(s.Colors.Card))
		r.text(frame, day.DayName, margin+8, y+8, rgb565(s.Colors.TextOnCard))
		r.text(frame, day.Condition.Short(), margin+8, y+26, rgb565(s.Colors.SecondaryOnCard))
		hi := rgb565(s.Colors.WarmOnCard)
		lo := rgb565(s.Colors.CoolOnCard)
		r.text(frame, formatTemp(day.TempMax, s.UseCelsius), Width-margin-64, y+8, hi)
		r.text(frame, formatTemp(day.TempMin, s.UseCelsius), Width-margin-64, y+26, lo)
		y += rowHeight
	}
}

func (r *Renderer) drawCountdown(frame *image.RGBA, s screen.Screen) {
	card := image.Rect(margin, 60+s.NudgeY, Width-margin, 180+s.NudgeY)
	fill(frame, card, rgb565(s.Colors.Card))
	r.textCentered(frame, s.Title, Width/2, 84+s.NudgeY, rgb565(s.Colors.TextOnCard))
	r.textCentered(frame, fmt.Sprintf("%d", s.DaysLeft), Width/2, 118+s.NudgeY, rgb565(s.Colors.AccentOnCard))
	r.textCentered(frame, s.Subtitle, Width/2, 150+s.NudgeY, rgb565(s.Colors.SecondaryOnCard))
}

func (r *Renderer) drawCustom(frame *image.RGBA, s screen.Screen) {
	y := margin + s.NudgeY
	r.textCentered(frame, s.Title, Width/2, y+8, rgb565(s.Colors.Accent))
	y += 36

	for _, line := range wrapText(s.Body, 30) {
		r.text(frame, line, margin, y, rgb565(s.Colors.Text))
		y += 18
		if y > Height-48 {
			break
		}
	}

	r.textCentered(frame, s.Footer, Width/2, Height-36, rgb565(s.Colors.Secondary))
}

func (r *Renderer) drawStats(frame *image.RGBA, s screen.Screen) {
	y := margin + s.NudgeY
	r.textCentered(frame, s.Title, Width/2, y+8, rgb565(s.Colors.Text))
	y += 36

	card := image.Rect(margin, y, Width-margin, y+120)
	fill(frame, card, rgb565(s.Colors.Card))
	r.textCentered(frame, s.Subtitle, Width/2, y+24, rgb565(s.Colors.AccentOnCard))
	r.textCentered(frame, fmt.Sprintf("%d views", s.Stats.Views), Width/2, y+56, rgb565(s.Colors.TextOnCard))
	r.textCentered(frame, fmt.Sprintf("%d videos", s.Stats.Videos), Width/2, y+84, rgb565(s.Colors.SecondaryOnCard))
}

func (r *Renderer) drawUnavailable(frame *image.RGBA, s screen.Screen) {
	if s.Title != "" {
		r.textCentered(frame, s.Title, Width/2, 72+s.NudgeY, rgb565(s.Colors.Text))
	}
	r.textCentered(frame, s.Body, Width/2, Height/2+s.NudgeY, rgb565(s.Colors.Secondary))
}

// drawIndicator plots the sibling-position dots along the bottom edge.
func (r *Renderer) drawIndicator(frame *image.RGBA, s screen.Screen) {
	if s.Indicator.Total <= 1 {
		return
	}

	totalWidth := s.Indicator.Total*dotSize + (s.Indicator.Total-1)*(dotGap-dotSize)
	x := (Width - totalWidth) / 2
	y := Height - margin
	for i := 0; i < s.Indicator.Total; i++ {
		clr := rgb565(s.Colors.Secondary)
		if i == s.Indicator.Index {
			clr = rgb565(s.Colors.Accent)
		}
		fill(frame, image.Rect(x, y, x+dotSize, y+dotSize), clr)
		x += dotGap
	}
}

// text draws a string with its top-left corner at (x, y).
func (r *Renderer) text(frame *image.RGBA, text string, x, y int, clr color.Color) {
	d := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(clr),
		Face: r.face,
		Dot:  fixed.P(x, y+r.face.Metrics().Ascent.Round()),
	}
	d.DrawString(text)
}

// textCentered draws a string horizontally centered on centerX.
func (r *Renderer) textCentered(frame *image.RGBA, text string, centerX, y int, clr color.Color) {
	d := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(clr),
		Face: r.face,
	}
	x := centerX - d.MeasureString(text).Round()/2
	d.Dot = fixed.P(x, y+r.face.Metrics().Ascent.Round())
	d.DrawString(text)
}

func fill(frame *image.RGBA, rect image.Rectangle, clr color.Color) {
	draw.Draw(frame, rect, image.NewUniform(clr), image.Point{}, draw.Src)
}

// rgb565 expands a packed panel color to 8-bit channels.
func rgb565(v uint16) color.RGBA {
	r := uint8((v >> 11) & 0x1F)
	g := uint8((v >> 5) & 0x3F)
	b := uint8(v & 0x1F)
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xFF,
	}
}

func formatTemp(t float64, celsius bool) string {
	unit := "F"
	if celsius {
		unit = "C"
	}
	return fmt.Sprintf("%.0f°%s", t, unit)
}

// windUnit follows the temperature unit, matching what the fetch
// requested.
func windUnit(celsius bool) string {
	if celsius {
		return "km/h"
	}
	return "mph"
}

// windArrow maps a bearing in degrees to a compass label.
func windArrow(deg float64) string {
	dirs := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int((deg+22.5)/45) % len(dirs)
	if idx < 0 {
		idx = 0
	}
	return dirs[idx]
}

// wrapText breaks a body string into lines of at most width runes,
// breaking at spaces where possible.
func wrapText(s string, width int) []string {
	var lines []string
	var line []rune
	lastSpace := -1

	for _, r := range s {
		if r == '\n' {
			lines = append(lines, string(line))
			line = line[:0]
			lastSpace = -1
			continue
		}
		line = append(line, r)
		if r == ' ' {
			lastSpace = len(line) - 1
		}
		if len(line) >= width {
			if lastSpace > 0 {
				lines = append(lines, string(line[:lastSpace]))
				line = append(line[:0], line[lastSpace+1:]...)
			} else {
				lines = append(lines, string(line))
				line = line[:0]
			}
			lastSpace = -1
		}
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	return lines
}

// FileSink writes each frame as a PNG, for the framebuffer shim and
// for debugging without a panel attached.
type FileSink struct {
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Present(frame *image.RGBA) error {
	tmp := f.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := png.Encode(out, frame); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close frame file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}

// PresentAnimation publishes the asset next to the frame file; the
// panel process picks it up from there and plays it.
func (f *FileSink) PresentAnimation(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read animation: %w", err)
	}
	target := filepath.Join(filepath.Dir(f.path), "animation.gif")
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to stage animation: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to publish animation: %w", err)
	}
	return nil
}

var (
	_ Sink          = (*FileSink)(nil)
	_ AnimationSink = (*FileSink)(nil)
)

// FramePath returns the default frame location under the root path.
func FramePath(rootPath string) string {
	return filepath.Join(rootPath, "frame.png")
}
