package app

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/blobstore"
	"contract-signing/internal/compositor"
	"contract-signing/internal/ledger"
	"contract-signing/internal/model"
	"contract-signing/internal/placement"
	"contract-signing/internal/repository"
	"contract-signing/internal/workflow"
	"errors"
	"time"

	"go.uber.org/zap"
)

const defaultSignTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	store      repository.RecordStore
	blobs      blobstore.Store
	compositor compositor.Compositor
	ledger     ledger.Ledger
	machine    workflow.Machine
	namer      blobstore.Namer

	now         func() time.Time
	signTimeout time.Duration
}

type Option func(*App)

// WithSignTimeout bounds the detached part of sign operations.
func WithSignTimeout(timeout time.Duration) Option {
	return func(a *App) {
		if timeout > 0 {
			a.signTimeout = timeout
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

func NewApp(logger *zap.Logger, store repository.RecordStore, blobs blobstore.Store, opts ...Option) App {
	machine := workflow.NewMachine(logger.Named("workflow"))
	namer := blobstore.NewNamer()

	a := App{
		logger:      logger,
		store:       store,
		blobs:       blobs,
		compositor:  compositor.New(logger.Named("compositor")),
		ledger:      ledger.New(logger.Named("ledger"), blobs, namer, machine),
		machine:     machine,
		namer:       namer,
		now:         time.Now,
		signTimeout: defaultSignTimeout,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Ping checks the record store.
func (a App) Ping(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return apperrors.Internal("record store is unreachable", err)
	}
	return nil
}

// Shutdown waits for background file reclaims and closes the record store.
func (a App) Shutdown(ctx context.Context) error {
	a.ledger.WaitReclaims()
	return a.store.Close(ctx)
}

// detach keeps request values but drops the cancellation of ctx: once
// composing has started the pointer update is always attempted.
func (a App) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), a.signTimeout)
}

func (a App) tx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return classify(a.store.WithinTx(ctx, fn))
}

// classify turns repository sentinels into the error taxonomy. Errors already
// classified pass through.
func classify(err error) error {
	if err == nil || apperrors.As(err) != nil {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.New(apperrors.KindConflict, apperrors.CodeDuplicate, "record already exists", err)
	case errors.Is(err, repository.ErrSchemaMismatch):
		return apperrors.Integrity(apperrors.CodeSchemaMismatch, "stored record is inconsistent", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.New(apperrors.KindNotFound, apperrors.CodeContractNotFound, "record not found", err)
	}
	return err
}

// signInput is a validated sign request.
type signInput struct {
	page  int
	rect  placement.Rect
	image compositor.Image
	notes string
}

func prepareSign(req model.SignRequest) (signInput, error) {
	if err := req.Validate(); err != nil {
		return signInput{}, apperrors.Validation(apperrors.CodeBadPayload, "incomplete sign payload", err)
	}

	img, err := compositor.ParseDataURL(req.ImageDataURL)
	if err != nil {
		return signInput{}, err
	}

	return signInput{
		page:  req.Page(),
		rect:  placement.Rect{X: *req.X, Y: *req.Y, Width: *req.Width, Height: *req.Height},
		image: img,
		notes: req.Notes,
	}, nil
}

func (a App) stamp(source []byte, in signInput) ([]byte, error) {
	return a.compositor.Compose(source, in.page, in.rect, in.image)
}
