package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/config"
	"github.com/heyfriend/heyfriend/internal/rpc"
	"github.com/heyfriend/heyfriend/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HTTPServer serves blob uploads and downloads, health and metrics.
type HTTPServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewHTTPServer binds the configured HTTP address.
func NewHTTPServer(p Params, logger *zap.Logger, db *store.DB, metrics *Metrics) (*HTTPServer, error) {
	cfg := p.server()
	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	return &HTTPServer{
		srv: &http.Server{
			Handler:           NewRouter(cfg, db, metrics, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		logger:   logger,
	}, nil
}

// Addr returns the address the server listens on.
func (s *HTTPServer) Addr() string {
	return s.listener.Addr().String()
}

// Start serves until Stop. A clean shutdown returns nil.
func (s *HTTPServer) Start() error {
	s.logger.Info("HTTP server starting", zap.String("addr", s.Addr()))
	if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *HTTPServer) Stop(ctx context.Context) {
	s.logger.Info("HTTP server stopping")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP shutdown", zap.Error(err))
	}
}

// NewRouter builds the daemon's HTTP routes.
func NewRouter(cfg config.ServerConfig, db *store.DB, metrics *Metrics, logger *zap.Logger) http.Handler {
	blobs := &blobHandler{
		db:        db,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		maxBytes:  cfg.MaxBlobBytes,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", rpc.PrincipalHeader},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Put("/blobs", blobs.upload)
	r.Get("/blobs/{id}", blobs.download)
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

type blobHandler struct {
	db        *store.DB
	publicURL string
	maxBytes  int64
	logger    *zap.Logger
}

func (h *blobHandler) upload(w http.ResponseWriter, r *http.Request) {
	owner := backend.Principal(r.Header.Get(rpc.PrincipalHeader))
	if owner == "" {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, fmt.Sprintf("blob exceeds %s", humanize.IBytes(uint64(h.maxBytes))), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty blob", http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	b := &store.Blob{
		ID:          uuid.NewString(),
		Owner:       owner,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   store.Now(),
	}
	if err := h.db.InsertBlob(b); err != nil {
		h.logger.Error("store blob", zap.Error(err))
		http.Error(w, "store blob", http.StatusInternalServerError)
		return
	}
	h.logger.Info("blob stored",
		zap.String("id", b.ID),
		zap.String("owner", string(owner)),
		zap.String("content_type", contentType),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(rpc.UploadReply{
		ID:   b.ID,
		URL:  h.publicURL + "/blobs/" + b.ID,
		Size: int64(len(data)),
	})
}

func (h *blobHandler) download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := h.db.GetBlob(id)
	if err != nil {
		h.logger.Error("load blob", zap.String("id", id), zap.Error(err))
		http.Error(w, "load blob", http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	_, _ = w.Write(b.Data)
}
