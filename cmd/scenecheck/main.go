// scenecheck validates scene documents and their sequence scripts without
// opening a window: it loads each document, builds every sequence, and
// dry-runs it through a choreographer under a reduced-motion gate so the
// whole schedule executes synchronously.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/milk9111/stagehand/choreo"
	"github.com/milk9111/stagehand/motion"
	"github.com/milk9111/stagehand/scene"
	"github.com/milk9111/stagehand/script"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: scenecheck [scene.yaml ...]\n\nWith no arguments, checks every embedded scene.\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	names := flag.Args()
	if len(names) == 0 {
		names = scene.Names()
	}
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "scenecheck: no scenes to check")
		os.Exit(1)
	}

	failed := false
	for _, name := range names {
		if err := check(name); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok\n", name)
	}
	if failed {
		os.Exit(1)
	}
}

func check(name string) error {
	spec, err := scene.LoadScene(name)
	if err != nil {
		return err
	}

	effects := make(scene.Effects, len(spec.Effects))
	for _, e := range spec.Effects {
		effects[e] = func() {}
	}

	for _, seq := range spec.Sequences {
		steps, err := script.BuildSequence(spec, seq, effects, nil)
		if err != nil {
			return err
		}
		chor := choreo.New(motion.FixedGate(true))
		if err := chor.Schedule(steps); err != nil {
			return fmt.Errorf("sequence %q: %w", seq.Name, err)
		}
	}
	return nil
}
