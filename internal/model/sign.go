package model

import (
	"errors"
	"math"
	"strings"

	"go.uber.org/multierr"
)

// SignRequest carries one committed AnnotationPlacement. Coordinates are PDF
// points with y measured from the bottom edge of the page.
type SignRequest struct {
	PageIndex    *int
	X            *float64
	Y            *float64
	Width        *float64
	Height       *float64
	ImageDataURL string
	Notes        string

	// Filename is only read by the legacy filename-addressed route.
	Filename string
}

// Validate reports every malformed field at once.
func (r SignRequest) Validate() error {
	var err error

	if r.PageIndex == nil {
		err = multierr.Append(err, errors.New("pageIndex is missing"))
	} else if *r.PageIndex < 0 {
		err = multierr.Append(err, errors.New("pageIndex must not be negative"))
	}

	err = multierr.Append(err, requireFinite("x", r.X))
	err = multierr.Append(err, requireFinite("y", r.Y))
	err = multierr.Append(err, requirePositive("width", r.Width))
	err = multierr.Append(err, requirePositive("height", r.Height))

	if strings.TrimSpace(r.ImageDataURL) == "" {
		err = multierr.Append(err, errors.New("imageDataUrl is missing"))
	}

	return err
}

func (r SignRequest) Page() int {
	if r.PageIndex == nil {
		return 0
	}
	return *r.PageIndex
}

func requireFinite(name string, v *float64) error {
	if v == nil {
		return errors.New(name + " is missing")
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return errors.New(name + " must be a finite number")
	}
	return nil
}

func requirePositive(name string, v *float64) error {
	if err := requireFinite(name, v); err != nil {
		return err
	}
	if *v <= 0 {
		return errors.New(name + " must be greater than zero")
	}
	return nil
}
