package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/milk9111/stagehand/common"
	"github.com/milk9111/stagehand/timeline"
)

var (
	trackColor   = color.NRGBA{R: 0x55, G: 0x5a, B: 0x66, A: 0xff}
	phaseColor   = color.NRGBA{R: 0x8a, G: 0xb4, B: 0xf8, A: 0xff}
	markerColor  = color.NRGBA{R: 0xf8, G: 0xd8, B: 0x6a, A: 0xff}
	stationColor = color.NRGBA{R: 0x6a, G: 0xc2, B: 0x8f, A: 0xff}
	tokenColor   = color.NRGBA{R: 0xf2, G: 0x7d, B: 0x5c, A: 0xff}
	errorColor   = color.NRGBA{R: 0xe0, G: 0x6c, B: 0x75, A: 0xff}
)

func (g *Game) drawScene(screen *ebiten.Image) {
	screen.Fill(color.NRGBA{R: 0x1e, G: 0x20, B: 0x26, A: 0xff})

	if g.spec == nil {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("scene failed to load: %v", g.loadErr), 16, 16)
		return
	}

	g.drawTrack(screen)
	g.drawStations(screen)
	g.drawTokens(screen)
	g.drawHUD(screen)
}

// drawTrack renders the phase track: a horizontal line with one notch per
// phase at its proportional position, plus a looping marker showing where
// "now" falls in the timeline.
func (g *Game) drawTrack(screen *ebiten.Image) {
	x := float32(g.spec.Track.X)
	y := float32(g.spec.Track.Y)
	length := float32(g.spec.Track.Length)

	vector.StrokeLine(screen, x, y, x+length, y, 2, trackColor, true)

	total := timeline.TotalDuration(g.positions)
	loopT := 0.0
	if total > 0 {
		loopT = math.Mod(g.now(), total)
	}

	currentID, _ := timeline.CurrentPhaseAt(loopT, g.positions)
	for _, p := range g.positions {
		px := x + float32(p.Position)
		vector.StrokeLine(screen, px, y-8, px, y+8, 2, phaseColor, true)
		label := p.Label
		if label == "" {
			label = p.ID
		}
		if p.ID == currentID {
			label = "[" + label + "]"
		}
		ebitenutil.DebugPrintAt(screen, label, int(px)-4, int(y)-28)
	}

	markerX := x + float32(timeline.MarkerPositionAt(loopT, g.positions, g.spec.Track.Length))
	vector.DrawFilledCircle(screen, markerX, y, 5, markerColor, true)
}

func (g *Game) drawStations(screen *ebiten.Image) {
	for name, p := range g.spec.Stations {
		vector.DrawFilledCircle(screen, float32(p.X), float32(p.Y), 14, stationColor, true)
		label := p.Label
		if label == "" {
			label = name
		}
		ebitenutil.DebugPrintAt(screen, label, int(p.X)-len(label)*3, int(p.Y)+20)
	}
}

func (g *Game) drawTokens(screen *ebiten.Image) {
	if g.chor == nil {
		return
	}
	for _, ts := range g.chor.ActiveTokens() {
		clr := tokenColor
		clr.A = uint8(255 * common.Clamp(ts.Opacity, 0, 1))
		vector.DrawFilledCircle(screen, float32(ts.Position.X), float32(ts.Position.Y), 8, clr, true)
		if ts.Token.Label != "" && ts.Opacity > 0.5 {
			ebitenutil.DebugPrintAt(screen, ts.Token.Label, int(ts.Position.X)+12, int(ts.Position.Y)-6)
		}
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	mode := "full motion"
	if g.reduced {
		mode = "reduced motion"
	}
	seqName := "-"
	if seq, ok := g.currentSequence(); ok {
		seqName = seq.Name
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf(
		"%s  |  %s  |  sequence: %s (space=play, tab=next, m=motion, r=reload)  FPS: %.0f",
		g.spec.Name, mode, seqName, ebiten.ActualFPS()), 16, 8)

	row := 0
	for _, name := range g.spec.Effects {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%-16s %d", name, g.counts[name]), 16, 48+row*16)
		row++
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%-16s %d", "tokens landed", g.landed), 16, 48+row*16)

	for i, entry := range g.effectLog {
		ebitenutil.DebugPrintAt(screen, entry, baseWidth-220, 48+i*16)
	}

	if g.loadErr != nil {
		// Degrade to a static rendering with the error on screen rather
		// than crashing the panel.
		vector.DrawFilledRect(screen, 12, baseHeight-40, baseWidth-24, 28, color.NRGBA{A: 0xc0}, false)
		vector.StrokeRect(screen, 12, baseHeight-40, baseWidth-24, 28, 1, errorColor, false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("error: %v", g.loadErr), 16, baseHeight-34)
	}
}
