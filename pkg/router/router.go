package router

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// --- Colors ---
var (
	timeColor   = color.New(color.FgCyan).SprintFunc()
	durColor    = color.New(color.FgBlue).SprintFunc()
	startColor  = color.New(color.FgGreen).SprintFunc()
	okColor     = color.New(color.FgGreen).SprintFunc()
	redirColor  = color.New(color.FgCyan).SprintFunc()
	clientColor = color.New(color.FgYellow).SprintFunc()
	errColor    = color.New(color.FgRed).SprintFunc()
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router wraps a chi router with colored request logging.
type Router struct {
	mux    chi.Router
	routes map[string]HandlerFunc // key = METHOD:PATH
}

func New() *Router {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(requestLogger)
	mux.NotFound(statusHandler(http.StatusNotFound))
	mux.MethodNotAllowed(statusHandler(http.StatusMethodNotAllowed))
	return &Router{mux: mux, routes: make(map[string]HandlerFunc)}
}

// statusHandler answers with the API's JSON error body for a bare status.
func statusHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, status)
		render.JSON(w, r, map[string]interface{}{
			"error":  http.StatusText(status),
			"status": status,
		})
	}
}

// requestLogger prints one colored line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("%s %s %s %s %s",
			timeColor("["+start.Format("2006-01-02 15:04:05")+"]"),
			methodColor(req.Method)(req.Method),
			req.URL.Path,
			statusColor(status)(status),
			durColor("(", time.Since(start), ")"),
		)
	})
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	r.routes[method+":"+path] = handler
	r.mux.Method(method, path, http.HandlerFunc(handler))
}

func (r *Router) GET(path string, handler HandlerFunc)  { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc) { r.register(http.MethodPost, path, handler) }

// Handle mounts an http.Handler for every method under pattern.
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// Routes returns the registered routes keyed by METHOD:PATH.
func (r *Router) Routes() map[string]HandlerFunc {
	return r.routes
}

// ServeHTTP makes the router usable with httptest.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// --- Start server ---

// Start serves on addr until ctx is canceled, then shuts down gracefully.
func (r *Router) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server started on %s", startColor("http://localhost"+addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("🛑 Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// --- Color helpers ---
func statusColor(code int) func(a ...interface{}) string {
	switch {
	case code >= 200 && code < 300:
		return okColor
	case code >= 300 && code < 400:
		return redirColor
	case code >= 400 && code < 500:
		return clientColor
	default:
		return errColor
	}
}

func methodColor(method string) func(a ...interface{}) string {
	switch method {
	case http.MethodGet:
		return okColor
	case http.MethodPost:
		return durColor
	case http.MethodPut, http.MethodPatch:
		return clientColor
	case http.MethodDelete:
		return errColor
	default:
		return timeColor
	}
}
