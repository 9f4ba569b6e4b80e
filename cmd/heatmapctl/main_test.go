package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/viewer"
)

func TestGenerateThenRender(t *testing.T) {
	t.Setenv("HEATMAP_CONFIG", "")
	dir := t.TempDir()
	samples := filepath.Join(dir, "samples.yaml")
	scriptPath := filepath.Join(dir, "script.yaml")
	out := filepath.Join(dir, "frame.png")

	generateCount, generateSeed, generateOutput = 40, 3, samples
	if err := runGenerate(generateCmd, nil); err != nil {
		t.Fatalf("generate: %v", err)
	}
	var file sampleFile
	if err := readYAML(samples, &file); err != nil {
		t.Fatal(err)
	}
	if len(file.Samples) != 40 || file.Samples[0].Name == "" {
		t.Fatalf("generated file = %+v", file)
	}

	script := `
flags: {tiles: true, bubbles: true, grid: true}
events:
  - {kind: wheel, x: 300, y: 200, deltaY: -1}
  - {kind: pointerdown, x: 400, y: 300}
  - {kind: pointermove, x: 450, y: 320}
  - {kind: pointerup, x: 450, y: 320}
`
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	renderSamples, renderScript, renderOutput = samples, scriptPath, out
	renderWidth, renderHeight, renderNormalize = 320, 200, false
	var stderr bytes.Buffer
	renderCmd.SetErr(&stderr)
	if err := runRender(renderCmd, nil); err != nil {
		t.Fatalf("render: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("png bounds = %v", b)
	}
	if stderr.Len() == 0 {
		t.Error("no summary written")
	}
}

func TestReplay(t *testing.T) {
	file := sampleFile{}
	sc := script{Events: []interaction.Event{
		{Kind: interaction.KindWheel, X: 300, Y: 200, DeltaY: -1},
		{Kind: interaction.KindPointerDown, X: 400, Y: 300},
		{Kind: interaction.KindPointerMove, X: 450, Y: 320},
		{Kind: interaction.KindPointerUp, X: 450, Y: 320},
	}}
	f, err := replay(file, sc, 1050, 530, viewer.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if f.Transform.ScaleX != 1.125 || f.Transform.OriginX != 50 || f.Transform.OriginY != 20 {
		t.Errorf("transform = %+v", f.Transform)
	}

	sc.Events = append(sc.Events, interaction.Event{Kind: "tap"})
	if _, err := replay(file, sc, 1050, 530, viewer.DefaultConfig()); err == nil {
		t.Error("expected an error for an unknown event")
	}
}
