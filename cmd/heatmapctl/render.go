package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jengzang/heatmap-viewer-go/internal/config"
	"github.com/jengzang/heatmap-viewer-go/internal/frame"
	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/projector"
	"github.com/jengzang/heatmap-viewer-go/internal/render"
	"github.com/jengzang/heatmap-viewer-go/internal/service"
	"github.com/jengzang/heatmap-viewer-go/internal/viewer"
)

// script is a recorded interaction replayed before the frame is drawn.
type script struct {
	Flags  *projector.Flags    `yaml:"flags,omitempty"`
	Events []interaction.Event `yaml:"events"`
}

var (
	renderSamples   string
	renderScript    string
	renderOutput    string
	renderWidth     int
	renderHeight    int
	renderNormalize bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a sample file to PNG, optionally after replaying events",
	Example: `  heatmapctl render --samples samples.yaml -o frame.png
  heatmapctl render --samples raw.yaml --normalize --script zoom.yaml -o zoomed.png`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderSamples, "samples", "", "YAML sample file")
	renderCmd.Flags().StringVar(&renderScript, "script", "", "YAML event script to replay")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "frame.png", "Output PNG path (- for stdout)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 1050, "Canvas width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 530, "Canvas height in pixels")
	renderCmd.Flags().BoolVar(&renderNormalize, "normalize", false, "Rescale x and y to [0,1] before rendering")
	renderCmd.MarkFlagRequired("samples")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	limit := int(cfg.MaxContainer)
	if renderWidth <= 0 || renderHeight <= 0 || renderWidth > limit || renderHeight > limit {
		return fmt.Errorf("canvas must be between 1 and %d pixels on each side, got %dx%d", limit, renderWidth, renderHeight)
	}

	var file sampleFile
	if err := readYAML(renderSamples, &file); err != nil {
		return err
	}
	var sc script
	if renderScript != "" {
		if err := readYAML(renderScript, &sc); err != nil {
			return err
		}
	}

	vc := cfg.Viewer()
	vc.Scheduler = &frame.ManualScheduler{}
	if renderNormalize {
		rx, ry := service.NormalizeSamples(file.Samples)
		vc.Axes.X, vc.Axes.Y = rx, ry
	} else {
		if file.RangeX != nil {
			vc.Axes.X = *file.RangeX
		}
		if file.RangeY != nil {
			vc.Axes.Y = *file.RangeY
		}
	}
	if sc.Flags != nil {
		vc.Flags = *sc.Flags
	}

	f, err := replay(file, sc, float64(renderWidth), float64(renderHeight), vc)
	if err != nil {
		return err
	}

	path := renderOutput
	if path == "-" {
		path = ""
	}
	if err := withOutput(cmd.OutOrStdout(), path, func(w io.Writer) error {
		return render.EncodePNG(w, f.Primitives, renderWidth, renderHeight)
	}); err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s: %d buckets, %d samples, mode %s\n", path, f.Buckets, f.Samples, f.Mode)
	}
	return nil
}

// replay feeds the script to a fresh viewer and returns the final frame.
func replay(file sampleFile, sc script, width, height float64, vc viewer.Config) (viewer.Frame, error) {
	v := viewer.New(file.Samples, width, height, vc)
	defer v.Close()
	for i, e := range sc.Events {
		if _, err := v.Dispatch(e); err != nil {
			return viewer.Frame{}, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return v.Frame()
}
