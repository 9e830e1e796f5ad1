package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nao1215/formbuilder/internal/csrf"
	"github.com/nao1215/formbuilder/internal/model"
)

const (
	// DefaultMaxBodySize limits the JSON body of a submission.
	DefaultMaxBodySize = 1 << 20

	// readHeaderTimeout bounds how long a client may take to send headers.
	readHeaderTimeout = 10 * time.Second

	// shutdownTimeout is how long in-flight requests get after the context ends.
	shutdownTimeout = 5 * time.Second
)

//go:embed static
var staticFS embed.FS

// Store is the storage the server reads templates from and writes
// submissions to. *database.Store implements it.
type Store interface {
	GetActiveTemplate(ctx context.Context, id int64) (*model.Template, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]*model.Template, error)
	InsertSubmission(ctx context.Context, sub *model.Submission) error
}

// Server serves rendered forms and accepts their JSON submissions.
type Server struct {
	store       Store
	logger      *slog.Logger
	maxBodySize int64
	router      chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for requests and handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxBodySize limits the size of a submission body. Values <= 0 keep
// the default.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// New creates a Server backed by store.
func New(store Store, opts ...Option) *Server {
	s := &Server{
		store:       store,
		logger:      slog.Default(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/forms/{pk}/", s.handleRender)
	r.With(csrf.Verify).Post("/forms/{pk}/submit/", s.handleSubmit)
	r.Handle("/static/*", http.FileServerFS(staticFS))

	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("server started", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// requestLogger logs every request at Info with its status and duration.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
