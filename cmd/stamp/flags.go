package main

import (
	"errors"
	"strconv"
	"strings"
)

type point struct {
	X, Y float64
}

// parsePoint reads "x,y" in canvas pixels.
func parsePoint(s string) (point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return point{}, errors.New("expected x,y but got " + strconv.Quote(s))
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return point{}, errors.New("bad x in " + strconv.Quote(s) + ": " + err.Error())
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return point{}, errors.New("bad y in " + strconv.Quote(s) + ": " + err.Error())
	}
	return point{X: x, Y: y}, nil
}

// parseSize reads "WxH" in canvas pixels.
func parseSize(s string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, errors.New("expected WxH but got " + strconv.Quote(s))
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil || w <= 0 {
		return 0, 0, errors.New("bad width in " + strconv.Quote(s))
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil || h <= 0 {
		return 0, 0, errors.New("bad height in " + strconv.Quote(s))
	}
	return w, h, nil
}
