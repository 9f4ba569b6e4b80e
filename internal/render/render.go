// Package render rasterizes projected primitives with gogpu/gg.
package render

import (
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/jengzang/heatmap-viewer-go/internal/projector"
)

// LabelSize is the font size of axis and badge labels in points.
const LabelSize = 11

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
	fontErr    error
)

func labelFace() (text.Face, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewFontSource(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to load label font: %w", fontErr)
	}
	return fontSource.Face(LabelSize), nil
}

// Render draws prims onto a white canvas of the given size.
func Render(prims []projector.Primitive, width, height int) (image.Image, error) {
	dc, err := draw(prims, width, height)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// EncodePNG draws prims and writes the result to w as PNG.
func EncodePNG(w io.Writer, prims []projector.Primitive, width, height int) error {
	dc, err := draw(prims, width, height)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

func draw(prims []projector.Primitive, width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	face, err := labelFace()
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.White)
	dc.SetFont(face)
	dc.SetLineWidth(1)

	for _, p := range prims {
		if err := drawOne(dc, p); err != nil {
			dc.Close()
			return nil, fmt.Errorf("failed to draw %s in %s: %w", p.Kind, p.Layer, err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		dc.Close()
		return nil, fmt.Errorf("failed to flush frame: %w", err)
	}
	return dc, nil
}

func setColor(dc *gg.Context, c *projector.Color) {
	rgba := gg.HSL(c.H, c.S, c.L)
	dc.SetRGBA(rgba.R, rgba.G, rgba.B, c.A)
}

// paint fills and strokes the current path as the primitive asks.
func paint(dc *gg.Context, p projector.Primitive) error {
	if p.Fill != nil {
		setColor(dc, p.Fill)
		if p.Stroke != nil {
			if err := dc.FillPreserve(); err != nil {
				return err
			}
		} else if err := dc.Fill(); err != nil {
			return err
		}
	}
	if p.Stroke != nil {
		setColor(dc, p.Stroke)
		return dc.Stroke()
	}
	dc.ClearPath()
	return nil
}

func drawOne(dc *gg.Context, p projector.Primitive) error {
	switch p.Kind {
	case projector.KindRect:
		dc.DrawRectangle(p.X, p.Y, p.Width, p.Height)
	case projector.KindEllipse:
		dc.DrawEllipse(p.X, p.Y, p.RX, p.RY)
	case projector.KindCircle:
		dc.DrawCircle(p.X, p.Y, p.RX)
	case projector.KindLine:
		dc.DrawLine(p.X, p.Y, p.X2, p.Y2)
		if p.Stroke == nil {
			dc.ClearPath()
			return nil
		}
		setColor(dc, p.Stroke)
		return dc.Stroke()
	case projector.KindText:
		if p.Fill != nil {
			setColor(dc, p.Fill)
		}
		dc.DrawStringAnchored(p.Text, p.X, p.Y, p.AnchorX, p.AnchorY)
		return nil
	default:
		return fmt.Errorf("unknown primitive kind %q", p.Kind)
	}
	return paint(dc, p)
}
