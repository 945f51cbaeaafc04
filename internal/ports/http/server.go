package http

import (
	"context"
	"contract-signing/internal/app"
	"contract-signing/internal/ports/http/middleware/auth"
	"contract-signing/internal/ports/http/middleware/cors"
	"contract-signing/internal/ports/http/middleware/requestid"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const readHeaderTimeout = 10 * time.Second

type Config struct {
	Addr            string
	MaxFileSize     int64
	MaxJSONBodySize int64
	CorsOrigins     []string
	AuthEnabled     bool
	AuthSecret      string
}

type server struct {
	app        app.App
	httpServer *http.Server
	cfg        Config
	logger     *zap.Logger
}

func NewServer(logger *zap.Logger, a app.App, cfg Config) server {
	ser := server{
		app:    a,
		cfg:    cfg,
		logger: logger,
	}
	ser.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           ser.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return ser
}

// log returns the request scoped logger.
func (ser server) log(r *http.Request) *zap.Logger {
	return requestid.Logger(r.Context(), ser.logger)
}

func (ser server) registerHandlers(router *mux.Router) {

	router.HandleFunc("/api/health", ser.healthcheck).Methods(http.MethodGet)
	router.HandleFunc("/api/db-test", ser.dbTest).Methods(http.MethodGet)

	router.HandleFunc("/uploads/{name}", ser.serveUpload).Methods(http.MethodGet)
	router.HandleFunc("/storage/{name}", ser.serveArtifact).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	if ser.cfg.AuthEnabled {
		validator := auth.NewTokenValidator(ser.logger.Named("auth"), ser.cfg.AuthSecret)
		api.Use(validator.Authenticate)
	}

	api.HandleFunc("/upload", ser.uploadFile).Methods(http.MethodPost)
	api.HandleFunc("/pdf/list", ser.listUploads).Methods(http.MethodGet)
	api.HandleFunc("/pdf/sign", ser.signFile).Methods(http.MethodPost)

	api.HandleFunc("/contracts", ser.listContracts).Methods(http.MethodGet)
	api.HandleFunc("/contracts", ser.createContract).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{id}", ser.getContract).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{id}", ser.updateContract).Methods(http.MethodPut)
	api.HandleFunc("/contracts/{id}", ser.deleteContract).Methods(http.MethodDelete)
	api.HandleFunc("/contracts/{id}/upload", ser.uploadOriginal).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{id}/sign", ser.signContract).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{id}/request-approval", ser.requestApproval).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{id}/approvals", ser.contractApprovals).Methods(http.MethodGet)

	api.HandleFunc("/approvals", ser.listApprovals).Methods(http.MethodGet)
	api.HandleFunc("/approvals/{approvalId}/sign", ser.signApproval).Methods(http.MethodPost)
	api.HandleFunc("/approvals/{approvalId}/reject", ser.rejectApproval).Methods(http.MethodPost)
}

// Handler is the complete middleware chain around the router.
func (ser server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(requestid.Middleware(ser.logger))
	ser.registerHandlers(router)

	return cors.AddCorsPolicy(router, ser.cfg.CorsOrigins)
}

func (ser server) Run() error {
	ser.logger.Info("listening", zap.String("addr", ser.cfg.Addr))
	if err := ser.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (ser server) Shutdown(ctx context.Context) error {
	return ser.httpServer.Shutdown(ctx)
}

func (ser server) healthcheck(w http.ResponseWriter, r *http.Request) {
	ser.respond(w, r, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (ser server) dbTest(w http.ResponseWriter, r *http.Request) {
	if err := ser.app.Ping(r.Context()); err != nil {
		ser.serverError(w, r, "database connection failed", err)
		return
	}
	ser.respond(w, r, http.StatusOK, message("database connection ok"))
}
