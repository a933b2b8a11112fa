// Package placeholder renders local placeholder JPEGs, used when the remote
// image source is unavailable and image.fallback_local is enabled.
package placeholder

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/jpeg"
	"math/rand/v2"
	"time"

	"tusky-uploader/internal/infra/log"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
)

// Generator draws a random gradient with a few translucent shapes.
type Generator struct {
	Width   int
	Height  int
	Quality int
	rnd     *rand.Rand
}

func NewGenerator(width, height int) *Generator {
	seed := uint64(time.Now().UnixNano())
	return &Generator{Width: width, Height: height, Quality: 85, rnd: rand.New(rand.NewPCG(seed, seed>>1))}
}

func (g *Generator) randomColor(alpha uint8) color.NRGBA {
	return color.NRGBA{R: uint8(g.rnd.IntN(256)), G: uint8(g.rnd.IntN(256)), B: uint8(g.rnd.IntN(256)), A: alpha}
}

// Generate returns JPEG bytes.
func (g *Generator) Generate() ([]byte, error) {
	w, h := float64(g.Width), float64(g.Height)
	dc := gg.NewContext(g.Width, g.Height)

	grad := gg.NewLinearGradient(0, 0, w, h)
	grad.AddColorStop(0, g.randomColor(255))
	grad.AddColorStop(1, g.randomColor(255))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	for i := 0; i < 6+g.rnd.IntN(6); i++ {
		dc.SetColor(g.randomColor(uint8(60 + g.rnd.IntN(120))))
		dc.DrawCircle(g.rnd.Float64()*w, g.rnd.Float64()*h, 20+g.rnd.Float64()*w/4)
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: g.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Fetch makes Generator usable as an image source.
func (g *Generator) Fetch(context.Context) ([]byte, error) { return g.Generate() }

// Fetcher is any image source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Fallback tries Primary and, on error, renders locally.
type Fallback struct {
	Primary   Fetcher
	Secondary Fetcher
	Log       *log.Logger
}

func (f *Fallback) Fetch(ctx context.Context) ([]byte, error) {
	data, err := f.Primary.Fetch(ctx)
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	if f.Log != nil {
		f.Log.Warn("Remote image unavailable, rendering placeholder locally", zap.Error(err))
	}
	return f.Secondary.Fetch(ctx)
}
