package compositor

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

const (
	// pixels per point kept in the embedded raster, bounds for the density
	// derived from the source image
	minDensity = 1.0
	maxDensity = 4.0
)

// fitToRect resamples src so that its pixel aspect equals the target rect.
// The stamp is later placed with one uniform scale factor, which then fills
// width x height exactly. It returns the encoded raster and the scale factor
// from pixels to points.
func fitToRect(src image.Image, kind ImageKind, width, height float64) ([]byte, float64, error) {
	b := src.Bounds()

	density := math.Max(float64(b.Dx())/width, float64(b.Dy())/height)
	density = math.Min(math.Max(density, minDensity), maxDensity)

	w := int(math.Max(1, math.Round(width*density)))
	h := int(math.Max(1, math.Round(height*density)))

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	var buf bytes.Buffer
	var err error
	if kind == ImageJPEG {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 92})
	} else {
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return nil, 0, err
	}

	return buf.Bytes(), width / float64(w), nil
}
