package app

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/model"
	"path"
	"strings"

	"go.uber.org/zap"
)

// The filename addressed flow predates contracts: the client names the
// upload to sign and nothing is recorded besides the files themselves.

func (a App) UploadFile(ctx context.Context, filename string, data []byte) (model.FileRef, error) {
	if err := requirePDF(data); err != nil {
		return model.FileRef{}, err
	}

	ref, _, err := a.ledger.StoreNew(ctx, func() model.FileRef { return a.namer.Upload(filename) }, data)
	if err != nil {
		return model.FileRef{}, err
	}

	a.logger.Info("file uploaded", zap.String("path", ref.Path()), zap.Int("size", len(data)))
	return ref, nil
}

// ListUploads returns the PDF names of the upload area.
func (a App) ListUploads(ctx context.Context) ([]string, error) {
	names, err := a.blobs.List(ctx, model.AreaUploads)
	if err != nil {
		return nil, apperrors.Internal("failed to list uploads", err)
	}

	pdfs := make([]string, 0, len(names))
	for _, name := range names {
		if strings.EqualFold(path.Ext(name), ".pdf") {
			pdfs = append(pdfs, name)
		}
	}
	return pdfs, nil
}

// SignFile stamps an upload named by the client. Only the base name is used
// and the file has to exist.
func (a App) SignFile(ctx context.Context, req model.SignRequest) (model.FileRef, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(req.Filename), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return model.FileRef{}, apperrors.Validation(apperrors.CodeBadPayload, "filename is required", nil)
	}

	in, err := prepareSign(req)
	if err != nil {
		return model.FileRef{}, err
	}

	source := model.FileRef{Area: model.AreaUploads, Name: name}
	exists, err := a.blobs.Exists(ctx, source)
	if err != nil {
		return model.FileRef{}, apperrors.Internal("failed to look up "+source.Path(), err)
	}
	if !exists {
		return model.FileRef{}, apperrors.NotFound(apperrors.CodeFileNotFound, "file "+name+" not found")
	}

	ctx, cancel := a.detach(ctx)
	defer cancel()

	sourceBytes, err := a.ledger.Load(ctx, source)
	if err != nil {
		return model.FileRef{}, err
	}

	signed, err := a.stamp(sourceBytes, in)
	if err != nil {
		return model.FileRef{}, err
	}

	out, _, err := a.ledger.StoreNew(ctx, func() model.FileRef { return a.namer.LegacySigned(name) }, signed)
	if err != nil {
		return model.FileRef{}, err
	}

	a.logger.Info("file signed", zap.String("source", source.Path()), zap.String("path", out.Path()))
	return out, nil
}
