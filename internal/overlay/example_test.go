package overlay_test

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/xswordsx/gifcompare/internal/overlay"
)

func fill(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func ExampleEngine_Composite() {
	gt := fill(4, 2, color.NRGBA{200, 100, 50, 255})
	pred := fill(4, 2, color.NRGBA{0, 0, 0, 255})

	e := overlay.NewEngine()
	fmt.Println(e.Mode(), e.Composite(gt, pred).Bounds().Size())

	e.SetMode(overlay.Blend)
	fmt.Println(e.Mode(), e.Composite(gt, pred).NRGBAAt(0, 0))
	// Output:
	// side_by_side (8,2)
	// blend {100 50 25 255}
}

func ExampleGrid_Apply() {
	g := overlay.NewGrid()
	g.SetEnabled(true)
	g.SetSize(4)
	g.SetColor(color.NRGBA{0, 0, 0, 255})

	out := g.Apply(fill(8, 8, color.White)).(*image.NRGBA)
	fmt.Println(out.NRGBAAt(0, 0), out.NRGBAAt(0, 1), out.NRGBAAt(1, 1))
	// Output:
	// {63 63 63 255} {127 127 127 255} {255 255 255 255}
}
