// Package compositor stamps a raster image onto one page of a PDF and emits a
// new document. It never touches storage; naming and persistence belong to
// the ledger.
package compositor

import (
	"bytes"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/placement"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

var pdfHeader = []byte("%PDF-")

var configDirOnce sync.Once

type Compositor struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) Compositor {
	// keep pdfcpu from creating a config dir in the user's home
	configDirOnce.Do(api.DisableConfigDir)

	return Compositor{logger: logger}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// LooksLikePDF checks the file header only.
func LooksLikePDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfHeader)
}

// PageCount parses the document and returns its number of pages.
func (c Compositor) PageCount(source []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(source), newConfiguration())
	if err != nil {
		return 0, apperrors.New(apperrors.KindInternal, apperrors.CodeSourceUnreadable, "failed to read the source document", err)
	}
	return count, nil
}

// Compose draws img at rect on page pageIndex of source. rect is already in
// the page's PDF space. An out of range page index falls back to the first
// page. source is never modified.
func (c Compositor) Compose(source []byte, pageIndex int, rect placement.Rect, img Image) ([]byte, error) {
	if err := validateRect(rect); err != nil {
		return nil, err
	}

	raster, err := img.Decode()
	if err != nil {
		return nil, err
	}

	pageCount, err := c.PageCount(source)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, apperrors.New(apperrors.KindInternal, apperrors.CodeSourceUnreadable, "source document has no pages", nil)
	}

	page := pageIndex
	if page < 0 || page >= pageCount {
		c.logger.Debug("page index out of range, stamping the first page", zap.Int("pageIndex", pageIndex), zap.Int("pageCount", pageCount))
		page = 0
	}

	stamp, scale, err := fitToRect(raster, img.Kind, rect.Width, rect.Height)
	if err != nil {
		return nil, apperrors.Internal("failed to prepare the stamp image", err)
	}

	desc := fmt.Sprintf("pos:bl, off:%.4f %.4f, scale:%.6f abs, rot:0, op:1", rect.X, rect.Y, scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(stamp), desc, true, false, types.POINTS)
	if err != nil {
		return nil, apperrors.Internal("failed to configure the stamp", err)
	}

	var out bytes.Buffer
	selected := []string{strconv.Itoa(page + 1)}
	if err := api.AddWatermarks(bytes.NewReader(source), &out, selected, wm, newConfiguration()); err != nil {
		return nil, apperrors.Internal("failed to stamp page "+selected[0], err)
	}

	c.logger.Debug("document composed", zap.Int("page", page), zap.Int("sourceSize", len(source)), zap.Int("outputSize", out.Len()))

	return out.Bytes(), nil
}

func validateRect(rect placement.Rect) error {
	for _, v := range []float64{rect.X, rect.Y, rect.Width, rect.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.Validation(apperrors.CodeBadPayload, "placement coordinates must be finite numbers", nil)
		}
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return apperrors.Validation(apperrors.CodeBadPayload, "placement width and height must be greater than zero", nil)
	}
	return nil
}
