package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"udlaeg/internal/app"
	"udlaeg/internal/cache"
	applog "udlaeg/internal/log"
	appweb "udlaeg/web"
)

const (
	defaultMaxUploadBytes = 32 << 20
	imageCacheBytes       = 64 << 20
	imageCacheTTL         = 15 * time.Minute
)

type Options struct {
	MaxUploadBytes int64
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	app            *app.App
	templates      *template.Template
	images         *cache.ImageCache
	rateLimiter    *rateLimiter
	metrics        *securityMetrics
	requests       *applog.StructuredLogger
	maxUploadBytes int64
	stopJanitor    chan struct{}
	stopOnce       sync.Once
	shutdownOnce   sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, a *app.App, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	mux := http.NewServeMux()
	s := &Server{
		app:            a,
		images:         cache.NewImageCache(imageCacheBytes, imageCacheTTL),
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
		requests:       applog.NewStructuredLogger(logger),
		maxUploadBytes: opts.MaxUploadBytes,
		stopJanitor:    make(chan struct{}),
	}
	go s.janitor(logger)
	// Only receipts of the open expense are cached, and leaving it discards them.
	a.OnLeaveExpense(s.images.Purge)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(applog.ComponentTemplate).Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /screen/{name}", s.handleShowScreen)
	mux.HandleFunc("POST /receipts", s.handleCaptureReceipts)
	mux.HandleFunc("POST /receipts/{id}/amount", s.handleSetAmount)
	mux.HandleFunc("POST /receipts/{id}/delete", s.handleDeleteReceipt)
	mux.HandleFunc("GET /receipts/{id}/image", s.handleReceiptImage)
	mux.HandleFunc("POST /settings", s.handleSaveSettings)
	mux.HandleFunc("POST /expenses/send", s.handleSendExpense)
	mux.HandleFunc("POST /history/{id}/toggle", s.handleToggleReceived)
	mux.HandleFunc("GET /history/export.xlsx", s.handleExportHistory)

	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(requestIDFromHeader)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.withSecurityHeaders(handler)

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) stopBackground() {
	s.stopOnce.Do(func() {
		close(s.stopJanitor)
		s.rateLimiter.stop()
	})
}

// janitor drops expired image cache entries.
func (s *Server) janitor(logger *applog.Logger) {
	ticker := time.NewTicker(imageCacheTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.images.CleanExpired(); n > 0 {
				logger.Debug("Expired cached receipt images", "removed", n)
			}
		case <-s.stopJanitor:
			return
		}
	}
}

// withSecurityHeaders adds security headers, rate limiting, request IDs and
// request logging.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		r.Header.Set(requestIDHeader, requestID)
		w.Header().Set(requestIDHeader, requestID)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(r.Context(), "Suspicious request",
				applog.FieldRequestID, requestID,
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(r.Context(), "Rate limit exceeded", applog.FieldClientIP, clientIP, applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.requests.LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
