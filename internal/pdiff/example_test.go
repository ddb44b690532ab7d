package pdiff_test

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/xswordsx/gifcompare/internal/pdiff"
)

func Example_basic() {
	gt := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	draw.Draw(gt, gt.Rect, image.NewUniform(color.Black), image.Point{}, draw.Src)
	pred := image.NewNRGBA(gt.Rect)
	draw.Draw(pred, pred.Rect, image.NewUniform(color.White), image.Point{}, draw.Src)

	res := pdiff.Compare(gt, pred, pdiff.DefaultParameters)
	fmt.Printf("Identical: %v\n", res.Pass)
	fmt.Printf("Reason:    %s\n", res.Reason)
	fmt.Printf("Failed:    %d\n", res.NumPixelsFailed)
	// Output:
	// Identical: false
	// Reason:    Images are visibly different
	// Failed:    1024
}
