package main

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/stagehand/choreo"
	"github.com/milk9111/stagehand/motion"
	"github.com/milk9111/stagehand/scene"
	"github.com/milk9111/stagehand/script"
	"github.com/milk9111/stagehand/timeline"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	// 60 TPS; the engine wants milliseconds.
	tickMs = 1000.0 / 60.0
)

type Game struct {
	frames  int
	reduced bool

	sceneName string
	spec      *scene.Spec
	positions []timeline.Position
	chor      *choreo.Choreographer
	effects   scene.Effects

	counts    map[string]int
	effectLog []string
	landed    int
	seqIdx    int
	loadErr   error

	watcher *scene.Watcher
	ui      *ebitenui.UI
}

func NewGame(sceneName string, reduced bool) *Game {
	g := &Game{
		sceneName: normalizeSceneName(sceneName),
		reduced:   reduced,
		counts:    map[string]int{},
	}
	g.reload()

	w, err := scene.NewWatcher("scene", filepath.Join("scene", "scripts"))
	if err != nil {
		// Embedded content still works; only live editing is lost.
		log.Printf("scene watcher unavailable: %v", err)
	} else {
		g.watcher = w
	}

	g.ui = NewControlUI(g)
	return g
}

func normalizeSceneName(name string) string {
	if name == "" {
		return "render_pipeline.yaml"
	}
	if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
		return name + ".yaml"
	}
	return name
}

// now is the engine clock: milliseconds derived from the tick counter.
func (g *Game) now() float64 {
	return float64(g.frames) * tickMs
}

func (g *Game) reload() {
	spec, err := scene.LoadScene(g.sceneName)
	if err != nil {
		g.loadErr = err
		log.Printf("load scene: %v", err)
		return
	}

	positions, err := timeline.ComputePositions(spec.TimelinePhases(), spec.Track.Length)
	if err != nil {
		g.loadErr = err
		log.Printf("phase layout: %v", err)
		return
	}

	g.spec = spec
	g.positions = positions
	g.loadErr = nil
	if g.seqIdx >= len(spec.Sequences) {
		g.seqIdx = 0
	}
	g.rebuildEngine()
}

// rebuildEngine swaps in a fresh Choreographer. A Gate is immutable for the
// lifetime of an engine instance, so toggling reduced motion means deriving
// new components, not flipping a flag mid-animation.
func (g *Game) rebuildEngine() {
	if g.spec == nil {
		return
	}

	var opts []choreo.Option
	if g.spec.Tokens.MaxVisible > 0 {
		opts = append(opts, choreo.WithMaxVisibleTokens(g.spec.Tokens.MaxVisible))
	}
	if g.spec.Tokens.FadeStart > 0 {
		opts = append(opts, choreo.WithTokenFadeStart(g.spec.Tokens.FadeStart))
	}
	g.chor = choreo.New(motion.FixedGate(g.reduced), opts...)

	g.effects = make(scene.Effects, len(g.spec.Effects))
	for _, name := range g.spec.Effects {
		g.effects[name] = func() {
			g.counts[name]++
			g.logEffect(name)
		}
	}
}

func (g *Game) logEffect(entry string) {
	g.effectLog = append(g.effectLog, entry)
	if len(g.effectLog) > 6 {
		g.effectLog = g.effectLog[len(g.effectLog)-6:]
	}
}

func (g *Game) toggleReduced() {
	g.reduced = !g.reduced
	g.rebuildEngine()
}

func (g *Game) cycleSequence() {
	if g.spec == nil || len(g.spec.Sequences) == 0 {
		return
	}
	g.seqIdx = (g.seqIdx + 1) % len(g.spec.Sequences)
}

func (g *Game) currentSequence() (scene.SequenceSpec, bool) {
	if g.spec == nil || len(g.spec.Sequences) == 0 {
		return scene.SequenceSpec{}, false
	}
	return g.spec.Sequences[g.seqIdx], true
}

// trigger replays the selected sequence, superseding whatever this panel's
// engine still has in flight.
func (g *Game) trigger() {
	seq, ok := g.currentSequence()
	if !ok || g.chor == nil {
		return
	}

	steps, err := script.BuildSequence(g.spec, seq, g.effects, func(tokenID string) {
		g.landed++
		g.logEffect("landed " + tokenID)
	})
	if err != nil {
		g.loadErr = err
		log.Printf("build sequence %q: %v", seq.Name, err)
		return
	}

	g.loadErr = nil
	if err := g.chor.Replace(steps); err != nil {
		g.loadErr = err
		log.Printf("schedule sequence %q: %v", seq.Name, err)
	}
}

func (g *Game) Update() error {
	g.frames++

	if g.watcher != nil {
	drain:
		for {
			select {
			case name, ok := <-g.watcher.Events:
				if !ok {
					g.watcher = nil
					break drain
				}
				log.Printf("scene changed: %s", name)
				g.reload()
			case err, ok := <-g.watcher.Errors:
				if ok && err != nil {
					log.Printf("scene watcher: %v", err)
				}
			default:
				break drain
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.trigger()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.cycleSequence()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.toggleReduced()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reload()
	}

	if g.ui != nil {
		g.ui.Update()
	}

	if g.chor != nil {
		g.chor.Advance(g.now())
	}

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawScene(screen)
	if g.ui != nil {
		g.ui.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
