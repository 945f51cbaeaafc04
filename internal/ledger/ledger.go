// Package ledger tracks, per contract, the chain original -> signed of
// immutable file references. Sign operations always read the latest version
// afresh and write a new artifact; nothing is ever rewritten in place.
package ledger

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/blobstore"
	"contract-signing/internal/hashing"
	"contract-signing/internal/model"
	"contract-signing/internal/repository"
	"contract-signing/internal/workflow"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultReclaimTimeout = 30 * time.Second

type Ledger struct {
	logger  *zap.Logger
	blobs   blobstore.Store
	namer   blobstore.Namer
	machine workflow.Machine

	reclaimTimeout time.Duration
	// tracks background reclaims so shutdown and tests can wait for them
	reclaims *sync.WaitGroup
}

func New(logger *zap.Logger, blobs blobstore.Store, namer blobstore.Namer, machine workflow.Machine) Ledger {
	return Ledger{
		logger:         logger,
		blobs:          blobs,
		namer:          namer,
		machine:        machine,
		reclaimTimeout: defaultReclaimTimeout,
		reclaims:       &sync.WaitGroup{},
	}
}

func (l Ledger) Namer() blobstore.Namer {
	return l.namer
}

// ResolveSource returns the signed artifact when present, else the original.
func (l Ledger) ResolveSource(ctx context.Context, tx repository.Tx, contractID int64) (model.FileRef, error) {
	src, err := l.Source(ctx, tx, contractID)
	return src.Ref, err
}

// SourceVersion is a resolved source with the digest recorded for it.
type SourceVersion struct {
	Ref    model.FileRef
	Digest string
}

// Source is ResolveSource plus the recorded digest.
func (l Ledger) Source(ctx context.Context, tx repository.Tx, contractID int64) (SourceVersion, error) {
	files, err := tx.GetFiles(ctx, contractID)
	if err != nil {
		return SourceVersion{}, l.recordError("failed to read the document set", err)
	}

	ref, ok := files.Latest()
	if !ok {
		return SourceVersion{}, apperrors.NotFound(apperrors.CodeSourceNotUploaded, "no PDF uploaded yet for contract "+strconv.FormatInt(contractID, 10))
	}

	digest := files.OriginalHash
	if ref == files.Signed {
		digest = files.SignedHash
	}
	return SourceVersion{Ref: ref, Digest: digest}, nil
}

// Files returns the document set of a contract.
func (l Ledger) Files(ctx context.Context, tx repository.Tx, contractID int64) (model.DocumentVersionSet, error) {
	files, err := tx.GetFiles(ctx, contractID)
	if err != nil {
		return model.DocumentVersionSet{}, l.recordError("failed to read the document set", err)
	}
	return files, nil
}

// Load reads the bytes behind ref. A missing blob is a client facing not
// found since the record points at nothing usable.
func (l Ledger) Load(ctx context.Context, ref model.FileRef) ([]byte, error) {
	data, err := l.blobs.Get(ctx, ref)
	if errors.Is(err, blobstore.ErrNotExist) {
		return nil, apperrors.NotFound(apperrors.CodeSourceMissing, "source file "+ref.Path()+" not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read "+ref.Path(), err)
	}
	return data, nil
}

// Store writes a new artifact and returns its digest. Called before the
// pointer update so a crash in between leaves an orphan, never a dangling
// reference.
func (l Ledger) Store(ctx context.Context, ref model.FileRef, data []byte) (string, error) {
	if err := l.blobs.Put(ctx, ref, data); err != nil {
		return "", storeError(ref, err)
	}

	l.logger.Debug("artifact stored", zap.String("path", ref.Path()), zap.Int("size", len(data)))
	return hashing.Calculate(data), nil
}

// StoreNew is Store under a name drawn from name. Names are only unique
// within one process, so a name another instance already took is retried
// once with a fresh one.
func (l Ledger) StoreNew(ctx context.Context, name func() model.FileRef, data []byte) (model.FileRef, string, error) {
	ref := name()
	err := l.blobs.Put(ctx, ref, data)
	if errors.Is(err, blobstore.ErrExists) {
		taken := ref
		ref = name()
		l.logger.Warn("artifact name already taken, retrying", zap.String("taken", taken.Path()), zap.String("path", ref.Path()))
		err = l.blobs.Put(ctx, ref, data)
	}
	if err != nil {
		return model.FileRef{}, "", storeError(ref, err)
	}

	l.logger.Debug("artifact stored", zap.String("path", ref.Path()), zap.Int("size", len(data)))
	return ref, hashing.Calculate(data), nil
}

func storeError(ref model.FileRef, err error) error {
	if errors.Is(err, blobstore.ErrExists) {
		return apperrors.Conflict(apperrors.CodeDuplicate, "artifact "+ref.Path()+" already exists")
	}
	return apperrors.Internal("failed to store "+ref.Path(), err)
}

// RecordUpload replaces the original, clears the signed artifact and moves
// the contract to in_progress. It returns the references it superseded.
func (l Ledger) RecordUpload(ctx context.Context, tx repository.Tx, contractID int64, original model.FileRef, digest string, now time.Time) (model.Contract, []model.FileRef, error) {
	files, err := l.Files(ctx, tx, contractID)
	if err != nil {
		return model.Contract{}, nil, err
	}

	superseded := collect(files.Original, files.Signed)

	files.ContractID = contractID
	files.Original = original
	files.OriginalHash = digest
	files.Signed = model.FileRef{}
	files.SignedHash = ""
	if err := tx.PutFiles(ctx, files); err != nil {
		return model.Contract{}, nil, l.recordError("failed to record the upload", err)
	}

	contract, err := l.machine.Apply(ctx, tx, contractID, workflow.EventUploaded, now)
	if err != nil {
		return model.Contract{}, nil, err
	}
	return contract, superseded, nil
}

// RecordSigned points the contract at a new signed artifact and moves it to
// active_contract. Concurrent signers race; the last writer wins.
func (l Ledger) RecordSigned(ctx context.Context, tx repository.Tx, contractID int64, signed model.FileRef, digest string, now time.Time) (model.Contract, []model.FileRef, error) {
	files, err := l.Files(ctx, tx, contractID)
	if err != nil {
		return model.Contract{}, nil, err
	}
	if files.Original.IsZero() {
		return model.Contract{}, nil, apperrors.NotFound(apperrors.CodeSourceNotUploaded, "original was removed while signing")
	}

	superseded := collect(files.Signed)

	files.Signed = signed
	files.SignedHash = digest
	if err := tx.PutFiles(ctx, files); err != nil {
		return model.Contract{}, nil, l.recordError("failed to record the signed artifact", err)
	}

	contract, err := l.machine.Apply(ctx, tx, contractID, workflow.EventOwnerSigned, now)
	if err != nil {
		return model.Contract{}, nil, err
	}
	return contract, superseded, nil
}

// RecordApprovalSigned stores the approval's own artifact. The contract's
// signed reference is left alone.
func (l Ledger) RecordApprovalSigned(ctx context.Context, tx repository.Tx, approvalID int64, signed model.FileRef, digest string) (model.Approval, error) {
	approval, err := tx.GetApproval(ctx, approvalID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Approval{}, apperrors.NotFound(apperrors.CodeApprovalNotFound, "approval "+strconv.FormatInt(approvalID, 10)+" not found")
	}
	if err != nil {
		return model.Approval{}, l.recordError("failed to read the approval", err)
	}

	approval.Signed = signed
	approval.SignedHash = digest
	if err := tx.UpdateApproval(ctx, approval); err != nil {
		return model.Approval{}, l.recordError("failed to record the approval artifact", err)
	}
	return approval, nil
}

// LoadSource reads a resolved source. A digest mismatch is logged, not
// fatal: the bytes are still the only version there is.
func (l Ledger) LoadSource(ctx context.Context, src SourceVersion) ([]byte, error) {
	data, err := l.Load(ctx, src.Ref)
	if err != nil {
		return nil, err
	}
	if !hashing.Verify(data, src.Digest) {
		l.logger.Warn("source digest mismatch", zap.String("path", src.Ref.Path()))
	}
	return data, nil
}

// Reclaim deletes refs in the background with its own deadline. Failures are
// logged and never reach the caller.
func (l Ledger) Reclaim(refs ...model.FileRef) {
	refs = collect(refs...)
	if len(refs) == 0 {
		return
	}

	l.reclaims.Add(1)
	go func() {
		defer l.reclaims.Done()

		ctx, cancel := context.WithTimeout(context.Background(), l.reclaimTimeout)
		defer cancel()

		if err := l.reclaim(ctx, refs); err != nil {
			l.logger.Warn("failed to reclaim superseded files", zap.Error(err))
		}
	}()
}

func (l Ledger) reclaim(ctx context.Context, refs []model.FileRef) error {
	var err error
	for _, ref := range refs {
		if delErr := l.blobs.Delete(ctx, ref); delErr != nil {
			err = multierr.Append(err, errors.New(ref.Path()+": "+delErr.Error()))
			continue
		}
		l.logger.Debug("file reclaimed", zap.String("path", ref.Path()))
	}
	return err
}

// WaitReclaims blocks until background reclaims finish.
func (l Ledger) WaitReclaims() {
	l.reclaims.Wait()
}

func (l Ledger) recordError(msg string, err error) error {
	if errors.Is(err, repository.ErrSchemaMismatch) {
		return apperrors.Integrity(apperrors.CodeSchemaMismatch, msg, err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(apperrors.CodeContractNotFound, msg+": contract not found")
	}
	return errors.New(msg + ": " + err.Error())
}

func collect(refs ...model.FileRef) []model.FileRef {
	var out []model.FileRef
	for _, ref := range refs {
		if !ref.IsZero() {
			out = append(out, ref)
		}
	}
	return out
}
