package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	sceneName := flag.String("scene", "render_pipeline.yaml", "scene document in scene/ (basename, .yaml optional)")
	reduced := flag.Bool("reduced", false, "start with reduced motion (animations resolve instantly)")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("stagehand")

	game := NewGame(*sceneName, *reduced)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
