package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

// Services bundles the application services the server exposes.
type Services struct {
	Ledger   *services.LedgerService
	Schedule *services.ScheduleService
	Loans    *services.LoanService
	Reports  *services.ReportService
	Data     *services.DataService
}

type Server struct {
	http.Server
	svc          Services
	logger       *applog.Logger
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

const (
	writeRequestLimit = 60
	limitWindow       = time.Minute
	limiterSweepEvery = 5 * time.Minute
	limiterIdleEvict  = 10 * time.Minute
)

// rateLimiter caps write traffic per client IP. Counters live in
// process memory; a background sweep evicts idle clients.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientWindow
	done      chan struct{}
	closeOnce sync.Once
}

type clientWindow struct {
	last  time.Time
	count int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.done:
			return
		}
	}
}

func (rl *rateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-limiterIdleEvict)
	for ip, w := range rl.clients {
		if w.last.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// allow records one request from the IP and reports whether it stays
// inside the per-minute write budget. The window restarts after a full
// minute of silence.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w := rl.clients[clientIP]
	if w == nil || now.Sub(w.last) > limitWindow {
		rl.clients[clientIP] = &clientWindow{last: now, count: 1}
		return true
	}

	w.count++
	w.last = now
	return w.count <= writeRequestLimit
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc Services, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:         svc,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Month ledger
	mux.HandleFunc("POST /api/months/init", s.handleInitMonth)
	mux.HandleFunc("GET /api/months", s.handleListPeriods)
	mux.HandleFunc("GET /api/months/current", s.handleCurrentMonth)
	mux.HandleFunc("GET /api/months/{period}", s.handleGetMonth)

	for _, col := range []string{"income", "assets", "liabilities"} {
		mux.HandleFunc("POST /api/months/current/"+col, s.handleAddEntry(col))
		mux.HandleFunc("PUT /api/months/current/"+col+"/{id}", s.handleEditEntry(col))
		mux.HandleFunc("DELETE /api/months/current/"+col+"/{id}", s.handleDeleteEntry(col))
	}

	// Scheduled obligations
	mux.HandleFunc("GET /api/obligations", s.handleListObligations)
	mux.HandleFunc("POST /api/obligations", s.handleCreateObligation)
	mux.HandleFunc("GET /api/obligations/pending", s.handlePendingObligations)
	mux.HandleFunc("GET /api/obligations/due", s.handleObligationsDue)
	mux.HandleFunc("POST /api/obligations/materialize", s.handleMaterializePending)
	mux.HandleFunc("PUT /api/obligations/{id}", s.handleEditObligation)
	mux.HandleFunc("DELETE /api/obligations/{id}", s.handleDeleteObligation)
	mux.HandleFunc("POST /api/obligations/{id}/toggle", s.handleToggleObligation)
	mux.HandleFunc("POST /api/obligations/{id}/materialize", s.handleMaterializeObligation)

	// Loans
	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("POST /api/loans", s.handleDisburseLoan)
	mux.HandleFunc("GET /api/loans/due", s.handleLoansDue)
	mux.HandleFunc("GET /api/loans/statistics", s.handleLoanStatistics)
	mux.HandleFunc("GET /api/loans/{id}", s.handleGetLoan)
	mux.HandleFunc("DELETE /api/loans/{id}", s.handleDeleteLoan)
	mux.HandleFunc("POST /api/loans/{id}/payments", s.handleRecordPayment)

	// Reports
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("POST /api/reports", s.handleGenerateReport)
	mux.HandleFunc("GET /api/reports/compare", s.handleCompareReports)
	mux.HandleFunc("GET /api/reports/trends", s.handleReportTrends)
	mux.HandleFunc("GET /api/reports/{period}", s.handleGetReport)

	// Data management
	mux.HandleFunc("GET /api/data/export", s.handleExport)
	mux.HandleFunc("POST /api/data/import", s.handleImport)
	mux.HandleFunc("GET /api/data/stats", s.handleStats)
	mux.HandleFunc("DELETE /api/data", s.handleClearData)
	mux.HandleFunc("GET /api/data/backups", s.handleListBackups)
	mux.HandleFunc("POST /api/data/backups", s.handleCreateBackup)
	mux.HandleFunc("POST /api/data/backups/{id}/restore", s.handleRestoreBackup)

	handler := applog.Middleware(s.logger)(s.withRequestContext(mux))
	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestContext adds security headers, rate limiting, request IDs
// and request logging to every response.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		w.Header().Set("X-Request-ID", requestID)

		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// The store opens eagerly at startup, so a live process is ready.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
