package render

import (
	"context"
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/observability"
	"github.com/matzehuels/ductrouter/pkg/routing"
	"github.com/matzehuels/ductrouter/pkg/scenario"
)

// Supported artifact formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatText = "txt"
)

// Formats lists every supported format in rendering order.
var Formats = []string{FormatJSON, FormatText, FormatSVG, FormatPNG}

// Options configures rendering. The zero value renders at scale 1 without
// cost labels.
type Options struct {
	// Scale multiplies the drawing size of svg and png output.
	Scale float64

	// ShowCosts labels path corners with the search's F values.
	ShowCosts bool
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// ValidateFormat checks that f is a supported format.
func ValidateFormat(f string) error {
	if !slices.Contains(Formats, f) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"unknown format %q (supported: %s)", f, strings.Join(Formats, ", "))
	}
	return nil
}

// Artifact renders res in a single format.
func Artifact(ctx context.Context, res *routing.Result, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return scenario.MarshalResult(res)
	case FormatText:
		s, err := ASCII(res, opts)
		return []byte(s), err
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(res, opts))
	case FormatPNG:
		return RenderPNG(res, opts)
	}
	return nil, ValidateFormat(format)
}

// Render produces every requested format. It stops at the first failure.
func Render(ctx context.Context, res *routing.Result, formats []string, opts Options) (map[string][]byte, error) {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	out := make(map[string][]byte, len(formats))
	var err error
	for _, f := range formats {
		if err = ctx.Err(); err != nil {
			break
		}
		var data []byte
		if data, err = Artifact(ctx, res, f, opts); err != nil {
			err = fmt.Errorf("render %s: %w", f, err)
			break
		}
		out[f] = data
	}

	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Marker returns the single-character label of the i-th terminal. Labels
// cycle after 35 terminals.
func Marker(i int) rune {
	const markers = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	return rune(markers[i%len(markers)])
}

var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

// RouteColor returns the colour the i-th terminal's path is drawn in.
func RouteColor(i int) color.RGBA { return palette[i%len(palette)] }

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
