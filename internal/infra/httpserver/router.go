package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appdiag "github.com/bryanwahyu/plant-md/internal/application/diagnosis"
	domai "github.com/bryanwahyu/plant-md/internal/domain/ai"
	domain "github.com/bryanwahyu/plant-md/internal/domain/diagnosis"
	"github.com/bryanwahyu/plant-md/internal/middleware"
)

// envelopeOverhead covers the JSON keys and the mimeType field around the image.
const envelopeOverhead = 4 << 10

type Router struct {
	diagnosis    *appdiag.Service
	metrics      *middleware.Metrics
	maxBodyBytes int64
}

// Options configures the HTTP surface around the relay.
type Options struct {
	// Checkers back GET /ready.
	Checkers map[string]middleware.HealthChecker
	// CORSOrigins enables CORS for these origins when non-empty.
	CORSOrigins []string
	// Metrics backs GET /metrics; a fresh set is used when nil.
	Metrics *middleware.Metrics
}

func NewRouter(svc *appdiag.Service, opts Options) http.Handler {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = middleware.NewMetrics()
	}
	r := &Router{diagnosis: svc, metrics: metrics, maxBodyBytes: bodyLimit(svc.MaxImageBytes)}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(metrics.Middleware)
	mux.Use(middleware.Recover)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}

	mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.ReadinessHandler(opts.Checkers))
	mux.Get("/metrics", metrics.Handler)

	mux.Post("/api/analyze", r.wrap(r.handleAnalyze))

	return mux
}

// bodyLimit converts the decoded image limit into a request body limit.
func bodyLimit(maxImageBytes int) int64 {
	if maxImageBytes <= 0 {
		return 0
	}
	return int64(maxImageBytes)/3*4 + 4 + envelopeOverhead
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// requestError is a client error detected by the router itself.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Printf("api: request_id=%s path=%s status=%d kind=%s err=%v",
				chimw.GetReqID(req.Context()), req.URL.Path, status, appdiag.Kind(err), err)
		}
		writeJSON(w, status, map[string]string{"message": msg})
	}
}

// statusFor maps an error to the relay's status code and client-facing message.
func statusFor(err error) (int, string) {
	var (
		reqErr *requestError
		tooBig *http.MaxBytesError
		up     *domai.UpstreamError
	)
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.message
	case errors.As(err, &tooBig), errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "Image is too large."
	case errors.Is(err, domain.ErrMissingImage):
		return http.StatusBadRequest, "Missing image data"
	case errors.Is(err, domain.ErrInvalidImage):
		return http.StatusBadRequest, "Image data is not valid base64."
	case errors.Is(err, domain.ErrUnsupportedImage):
		return http.StatusBadRequest, "Unsupported image type."
	case errors.Is(err, domai.ErrNotConfigured):
		return http.StatusInternalServerError, "Server configuration error."
	case errors.As(err, &up):
		status := up.StatusCode
		if status < 400 {
			status = http.StatusInternalServerError
		}
		return status, up.Error()
	case errors.Is(err, domai.ErrInvalidResponse):
		return http.StatusInternalServerError, "Invalid response from AI service."
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// POST /api/analyze
// Body: {"image": "<base64>", "mimeType": "image/jpeg"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) (err error) {
	done := r.metrics.BeginAnalysis()
	defer func() {
		if rec := recover(); rec != nil {
			done("internal", 0)
			panic(rec)
		}
		done(failureKind(err), upstreamStatus(err))
	}()

	if r.maxBodyBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.maxBodyBytes)
	}

	var body struct {
		Image    string `json:"image"`
		MimeType string `json:"mimeType"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return &requestError{status: http.StatusBadRequest, message: "Invalid JSON body."}
	}

	a, err := r.diagnosis.Diagnose(req.Context(), appdiag.DiagnoseCommand{
		RequestID: chimw.GetReqID(req.Context()),
		Image:     body.Image,
		MimeType:  body.MimeType,
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, a)
	return nil
}

// failureKind extends appdiag.Kind with errors the router raises itself.
func failureKind(err error) string {
	var (
		reqErr *requestError
		tooBig *http.MaxBytesError
	)
	if errors.As(err, &reqErr) || errors.As(err, &tooBig) {
		return "input"
	}
	return appdiag.Kind(err)
}

func upstreamStatus(err error) int {
	var up *domai.UpstreamError
	if errors.As(err, &up) {
		return up.StatusCode
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}
