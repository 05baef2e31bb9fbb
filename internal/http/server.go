package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"billed/internal/bills"
	"billed/internal/cache"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/middleware/ratelimit"
	"billed/internal/middleware/security"
	"billed/internal/middleware/trace"
	"billed/internal/session"
	appweb "billed/web"
)

// Page template names.
const (
	pageLogin   = "login.html"
	pageBills   = "bills.html"
	pageNewBill = "new_bill.html"
)

// Options wires the server's collaborators.
type Options struct {
	Service  bills.Service
	Receipts bills.ReceiptReader // nil when receipts are served by the backend
	Ready    func(context.Context) error
	Sessions *session.Manager
	Logger   *log.Logger

	MaxUploadBytes int64
	DraftTTL       time.Duration
	ListCacheTTL   time.Duration
	RateLimit      int // POST requests per minute and client
}

func (o *Options) defaults() {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 5 << 20
	}
	if o.DraftTTL <= 0 {
		o.DraftTTL = 30 * time.Minute
	}
	if o.ListCacheTTL <= 0 {
		o.ListCacheTTL = time.Minute
	}
	if o.Logger == nil {
		o.Logger = log.New(log.DefaultConfig())
	}
}

type Server struct {
	http.Server
	pages    map[string]*template.Template
	partials *template.Template

	service  bills.Service
	receipts bills.ReceiptReader
	ready    func(context.Context) error
	sessions *session.Manager
	drafts   *bills.Drafts
	logger   *log.Logger

	// Bills list per email, dropped when that email submits.
	listCache    *cache.LRUCache[[]core.Bill]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	maxUpload    int64

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and configures routes and middleware.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("bills service is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	opts.defaults()

	pages, partials, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	listCache := cache.NewLRUCache[[]core.Bill](200, opts.ListCacheTTL)
	s := &Server{
		pages:        pages,
		partials:     partials,
		service:      cachedService{Service: opts.Service, cache: listCache},
		receipts:     opts.Receipts,
		ready:        opts.Ready,
		sessions:     opts.Sessions,
		drafts:       bills.NewDrafts(1000, opts.DraftTTL),
		logger:       logger,
		listCache:    listCache,
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		maxUpload:    opts.MaxUploadBytes,
	}
	s.cacheManager.Register(s.drafts.Cleaner())
	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(5 * time.Minute)

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.stopBackground()
		return nil, err
	}

	clientIP := security.NewClientIP()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, clientIP.Extract)
	limited := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, clientIP.Extract(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Trop de requêtes, réessayez plus tard.").Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(limited(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// parseTemplates builds one template set per page, each with the shared
// layout and partials, plus a partials-only set for HTMX fragments.
func parseTemplates(fsys fs.FS) (map[string]*template.Template, *template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, page := range []string{pageLogin, pageBills, pageNewBill} {
		t, err := template.ParseFS(fsys, "templates/layout.html", "templates/partials.html", "templates/"+page)
		if err != nil {
			return nil, nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page] = t
	}
	partials, err := template.ParseFS(fsys, "templates/partials.html")
	if err != nil {
		return nil, nil, fmt.Errorf("parse partials: %w", err)
	}
	return pages, partials, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /bills", s.withSession(s.handleBillsList))
	mux.HandleFunc("GET /bills/new", s.withSession(s.handleNewBillPage))
	mux.HandleFunc("POST /bills/new/file", s.withSession(s.handleChangeFile))
	mux.HandleFunc("POST /bills/new", s.withSession(s.handleSubmitBill))
	mux.Handle("GET /receipts/{id}", security.PrivateNoStore(s.withSession(s.handleReceipt)))
	return nil
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) stopBackground() {
	s.cacheManager.Stop()
	s.limiter.Stop()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
