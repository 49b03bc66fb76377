package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dtnitsch/pdf-viewer/pkg/db"
	"github.com/dtnitsch/pdf-viewer/pkg/mediastore"
	"github.com/dustin/go-humanize"
)

// DefaultMaxUploadBytes caps POST /media bodies.
const DefaultMaxUploadBytes = 64 << 20

// MediaStore is the subset of mediastore.Store the server uses.
type MediaStore interface {
	Open(id string) (*os.File, *db.MediaRecord, error)
	AddReader(r io.Reader, name string) (*mediastore.Media, error)
}

// Server is the media HTTP server.
type Server struct {
	store     MediaStore
	logger    *slog.Logger
	maxUpload int64
	mux       *http.ServeMux
}

// New creates a Server. A nil logger uses slog.Default().
func New(store MediaStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:     store,
		logger:    logger,
		maxUpload: DefaultMaxUploadBytes,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /media/{file}", s.handleMedia)
	s.mux.HandleFunc("POST /media", s.handleUpload)
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(allowCrossOrigin(s.mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("media server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down media server: %w", err)
		}
		s.logger.Info("media server stopped")
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// handleMedia serves GET and HEAD /media/<id>.pdf, with range support.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := mediastore.ParseMediaPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, rec, err := s.store.Open(id)
	if errors.Is(err, mediastore.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.logger.Error("failed to open media", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	modTime := rec.CreatedAt
	if info, err := f.Stat(); err == nil {
		modTime = info.ModTime()
	}

	w.Header().Set("Content-Type", rec.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", `"`+id+`"`)
	http.ServeContent(w, r, id+mediastore.Extension, modTime, f)
}

type uploadResponse struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Size    int64  `json:"size_bytes"`
	Created bool   `json:"created"`
}

// handleUpload stores the request body and answers with its media reference.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.maxUpload)
	m, err := s.store.AddReader(body, r.URL.Query().Get("name"))
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, fmt.Sprintf("upload exceeds %s", humanize.Bytes(uint64(s.maxUpload))), http.StatusRequestEntityTooLarge)
		case errors.Is(err, mediastore.ErrEmpty):
			http.Error(w, "empty upload", http.StatusBadRequest)
		default:
			s.logger.Error("failed to store upload", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusOK
	if m.Created {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", m.URL)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(uploadResponse{ID: m.ID, URL: m.URL, Size: m.SizeBytes, Created: m.Created})
}

// allowCrossOrigin lets viewers embedded under another origin fetch media.
func allowCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Range, Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", humanize.Bytes(uint64(rec.bytes)),
			"duration", time.Since(start),
		)
	})
}
