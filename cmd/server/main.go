package main

import (
	"context"
	"contract-signing/internal/app"
	"contract-signing/internal/blobstore"
	"contract-signing/internal/config"
	"contract-signing/internal/model"
	"contract-signing/internal/ports/http"
	"contract-signing/internal/repository"
	"contract-signing/internal/repository/memory"
	"contract-signing/internal/repository/mongodb"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.Init(); err != nil {
		log.Fatalln("reading the configuration failed: ", err)
		return
	}

	logger, err := getLogger(config.GetLogLevel())
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
		return
	}
	defer logger.Sync()

	logger.Info("application started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openRecordStore(ctx, logger)
	if err != nil {
		logger.Fatal("failed to open the record store: " + err.Error())
	}

	blobs, err := blobstore.NewStoreFromConfig(ctx)
	if err != nil {
		logger.Fatal("failed to open the blob store: " + err.Error())
	}

	a := app.NewApp(logger.Named("app"), store, blobs, app.WithSignTimeout(config.GetRequestTimeout()))
	ser := http.NewServer(logger.Named("http"), a, http.Config{
		Addr:            config.GetPort(),
		MaxFileSize:     config.GetMaxFileSize(),
		MaxJSONBodySize: config.GetMaxJSONBodySize(),
		CorsOrigins:     config.GetCorsOrigins(),
		AuthEnabled:     config.GetAuthEnabled(),
		AuthSecret:      config.GetAuthSecret(),
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- ser.Run()
	}()

	select {
	case err := <-runErr:
		if err != nil {
			logger.Error("failed to run the server: " + err.Error())
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = multierr.Combine(
		ser.Shutdown(shutdownCtx),
		a.Shutdown(shutdownCtx),
	)
	if err != nil {
		logger.Error("unclean shutdown: " + err.Error())
	}

	logger.Info("application finished")
}

// openRecordStore connects the configured store and makes sure the seed
// users exist, so contracts and approvals can reference them.
func openRecordStore(ctx context.Context, logger *zap.Logger) (repository.RecordStore, error) {
	var store repository.RecordStore

	switch kind := config.GetRecordStore(); kind {
	case "memory":
		logger.Warn("using the in-memory record store, nothing survives a restart")
		store = memory.New()
	case "mongo", "":
		repo, err := mongodb.NewConnection(logger.Named("mongodb"), config.GetDbConnectionURI(), config.GetDatabaseName())
		if err != nil {
			return nil, err
		}
		store = repo
	default:
		return nil, errors.New("unknown record store: " + kind)
	}

	seed := config.GetSeedUsers()
	if len(seed) == 0 {
		return store, nil
	}

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		for id, name := range seed {
			if err := tx.UpsertUser(ctx, model.User{ID: id, FullName: name}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, multierr.Append(errors.New("seeding users failed: "+err.Error()), store.Close(ctx))
	}

	logger.Info("seed users ready", zap.Int("count", len(seed)))
	return store, nil
}

func getLogger(level string) (*zap.Logger, error) {
	options := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.FatalLevel),
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	cfg.Development = true

	lvl := zap.DebugLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, errors.New("invalid log level " + level + ": " + err.Error())
		}
	}
	cfg.Level.SetLevel(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(options...), nil
}
