// Package placement converts picks made on a rendered page into PDF page space.
//
// A rendered page has its origin at the top-left corner and is measured in
// pixels; a PDF page has its origin at the bottom-left corner and is measured
// in points. Scale is the number of pixels per point used for rendering.
package placement

import (
	"errors"
	"math"
)

var ErrInvalidScale = errors.New("render scale must be a finite number greater than zero")

// Rect is a rectangle in PDF points, y measured from the bottom edge.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Viewport describes how a page was rasterised for display.
type Viewport struct {
	Scale            float64
	PageHeightPixels float64
}

func (v Viewport) Validate() error {
	if math.IsNaN(v.Scale) || math.IsInf(v.Scale, 0) || v.Scale <= 0 {
		return ErrInvalidScale
	}
	return nil
}

// MapStamp maps a fixed-size stamp whose visual top-left corner is the click
// point. The stamp's bottom-left corner becomes the PDF anchor, hence the
// stamp height is subtracted before flipping. Click coordinates are not
// clamped to the canvas.
func (v Viewport) MapStamp(clickX, clickY, stampW, stampH float64) (Rect, error) {
	if err := v.Validate(); err != nil {
		return Rect{}, err
	}

	return Rect{
		X:      clickX / v.Scale,
		Y:      (v.PageHeightPixels - clickY - stampH) / v.Scale,
		Width:  stampW / v.Scale,
		Height: stampH / v.Scale,
	}, nil
}

// MapBox maps a free-form drawn or selected bounding box given by its
// top-left corner and size in pixels.
func (v Viewport) MapBox(left, top, width, height float64) (Rect, error) {
	if err := v.Validate(); err != nil {
		return Rect{}, err
	}

	return Rect{
		X:      left / v.Scale,
		Y:      (v.PageHeightPixels - top - height) / v.Scale,
		Width:  width / v.Scale,
		Height: height / v.Scale,
	}, nil
}

// Top is the y coordinate of the upper edge.
func (r Rect) Top() float64 {
	return r.Y + r.Height
}
