package app

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/blobstore"
	"contract-signing/internal/compositor"
	"contract-signing/internal/ledger"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"contract-signing/internal/workflow"
	"errors"

	"go.uber.org/zap"
)

func requirePDF(data []byte) error {
	if len(data) == 0 {
		return apperrors.Validation(apperrors.CodeNotPDF, "a PDF file is required", nil)
	}
	if !compositor.LooksLikePDF(data) {
		return apperrors.Validation(apperrors.CodeNotPDF, "only PDF files are accepted", nil)
	}
	return nil
}

// UploadOriginal stores a new original for the contract. Any previous
// original and signed artifact are superseded and reclaimed.
func (a App) UploadOriginal(ctx context.Context, contractID int64, filename string, data []byte) (ContractView, error) {
	if err := requirePDF(data); err != nil {
		return ContractView{}, err
	}

	// fail before writing anything for an unknown contract
	if err := a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		_, err := workflow.LoadContract(ctx, tx, contractID)
		return err
	}); err != nil {
		return ContractView{}, err
	}

	ctx, cancel := a.detach(ctx)
	defer cancel()

	ref, digest, err := a.ledger.StoreNew(ctx, func() model.FileRef { return a.namer.Upload(filename) }, data)
	if err != nil {
		return ContractView{}, err
	}

	var (
		view       ContractView
		superseded []model.FileRef
	)
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		contract, replaced, err := a.ledger.RecordUpload(ctx, tx, contractID, ref, digest, a.now())
		if err != nil {
			return err
		}
		files, err := a.ledger.Files(ctx, tx, contractID)
		if err != nil {
			return err
		}
		view = ContractView{Contract: contract, Files: files}
		superseded = replaced
		return nil
	})
	if err != nil {
		a.ledger.Reclaim(ref)
		return ContractView{}, err
	}

	a.ledger.Reclaim(superseded...)
	a.logger.Info("original uploaded", zap.Int64("contractID", contractID), zap.String("path", ref.Path()), zap.Int("size", len(data)))
	return view, nil
}

// SignContract stamps the latest version of the contract document and makes
// the result the contract's signed artifact.
func (a App) SignContract(ctx context.Context, contractID int64, req model.SignRequest) (ContractView, error) {
	in, err := prepareSign(req)
	if err != nil {
		return ContractView{}, err
	}

	var source ledger.SourceVersion
	if err := a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := workflow.LoadContract(ctx, tx, contractID); err != nil {
			return err
		}
		src, err := a.ledger.Source(ctx, tx, contractID)
		source = src
		return err
	}); err != nil {
		return ContractView{}, err
	}

	ctx, cancel := a.detach(ctx)
	defer cancel()

	sourceBytes, err := a.ledger.LoadSource(ctx, source)
	if err != nil {
		return ContractView{}, err
	}

	signed, err := a.stamp(sourceBytes, in)
	if err != nil {
		return ContractView{}, err
	}

	ref, digest, err := a.ledger.StoreNew(ctx, func() model.FileRef { return a.namer.ContractSigned(contractID) }, signed)
	if err != nil {
		return ContractView{}, err
	}

	var (
		view       ContractView
		superseded []model.FileRef
	)
	err = a.tx(ctx, func(ctx context.Context, tx repository.Tx) error {
		contract, replaced, err := a.ledger.RecordSigned(ctx, tx, contractID, ref, digest, a.now())
		if err != nil {
			return err
		}
		files, err := a.ledger.Files(ctx, tx, contractID)
		if err != nil {
			return err
		}
		view = ContractView{Contract: contract, Files: files}
		superseded = replaced
		return nil
	})
	if err != nil {
		a.ledger.Reclaim(ref)
		return ContractView{}, err
	}

	a.ledger.Reclaim(superseded...)
	a.logger.Info("contract signed", zap.Int64("contractID", contractID), zap.String("source", source.Ref.Path()), zap.String("path", ref.Path()))
	return view, nil
}

// OpenFile reads a stored blob for read-only serving.
func (a App) OpenFile(ctx context.Context, ref model.FileRef) ([]byte, error) {
	data, err := a.ledger.Load(ctx, ref)
	if apperrors.Is(err, apperrors.KindNotFound) || errors.Is(err, blobstore.ErrBadRef) {
		return nil, apperrors.NotFound(apperrors.CodeFileNotFound, ref.Path()+" not found")
	}
	return data, err
}
