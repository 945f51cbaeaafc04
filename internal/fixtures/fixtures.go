// Package fixtures builds small documents and images for tests.
package fixtures

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"codeberg.org/go-pdf/fpdf"
)

// PDF renders a letter sized document with one labelled line per page.
func PDF(pages int) ([]byte, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Cell(200, 20, fmt.Sprintf("Contract page %d", i+1))
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func signature(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	ink := color.NRGBA{R: 20, G: 30, B: 120, A: 255}
	for x := 0; x < width; x++ {
		y := height/2 + (x%7 - 3)
		img.Set(x, y, ink)
	}
	return img
}

func PNG(width, height int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, signature(width, height))
	return buf.Bytes()
}

func JPEG(width, height int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, signature(width, height), nil)
	return buf.Bytes()
}

// DataURL wraps data as a base64 data URI of the given image subtype.
func DataURL(subtype string, data []byte) string {
	return "data:image/" + subtype + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func PNGDataURL() string {
	return DataURL("png", PNG(340, 140))
}
