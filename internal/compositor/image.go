package compositor

import (
	"bytes"
	"contract-signing/internal/apperrors"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"regexp"
	"strings"
)

type ImageKind string

const (
	ImagePNG  ImageKind = "png"
	ImageJPEG ImageKind = "jpeg"
)

// Image is a raster to embed, still in its wire encoding.
type Image struct {
	Kind ImageKind
	Data []byte
}

var dataURLPattern = regexp.MustCompile(`(?is)^data:image/(png|jpeg);base64,(.*)$`)

// ParseDataURL accepts only base64 PNG and JPEG data URIs. Anything else is
// classified as a client error.
func ParseDataURL(dataURL string) (Image, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(dataURL))
	if m == nil {
		return Image{}, apperrors.Validation(apperrors.CodeUnsupportedImage, "imageDataUrl must be a base64 PNG or JPEG data URI", nil)
	}

	payload := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, m[2])

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, apperrors.Validation(apperrors.CodeImageDecode, "imageDataUrl is not valid base64", err)
	}
	if len(data) == 0 {
		return Image{}, apperrors.Validation(apperrors.CodeImageDecode, "imageDataUrl carries no image data", nil)
	}

	return Image{Kind: ImageKind(strings.ToLower(m[1])), Data: data}, nil
}

// DetectImage sniffs raw file bytes, for callers that read the stamp from
// disk instead of a data URI.
func DetectImage(data []byte) (Image, error) {
	switch http.DetectContentType(data) {
	case "image/png":
		return Image{Kind: ImagePNG, Data: data}, nil
	case "image/jpeg":
		return Image{Kind: ImageJPEG, Data: data}, nil
	}
	return Image{}, apperrors.Validation(apperrors.CodeUnsupportedImage, "stamp image must be PNG or JPEG", nil)
}

// Decode decodes the raster according to its declared kind.
func (img Image) Decode() (image.Image, error) {
	if len(img.Data) == 0 {
		return nil, apperrors.Validation(apperrors.CodeImageDecode, "image is empty", nil)
	}

	var (
		decoded image.Image
		err     error
	)
	switch img.Kind {
	case ImagePNG:
		decoded, err = png.Decode(bytes.NewReader(img.Data))
	case ImageJPEG:
		decoded, err = jpeg.Decode(bytes.NewReader(img.Data))
	default:
		return nil, apperrors.Validation(apperrors.CodeUnsupportedImage, "unsupported image kind: "+string(img.Kind), nil)
	}
	if err != nil {
		return nil, apperrors.Validation(apperrors.CodeImageDecode, "failed to decode the "+string(img.Kind)+" image", err)
	}

	b := decoded.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, apperrors.Validation(apperrors.CodeImageDecode, "image has no pixels", errors.New("empty bounds"))
	}

	return decoded, nil
}
