// Package webapi provides a web UI and json API for spam classification and user feedback.
package webapi

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/sms-spam/app/model"
	"github.com/umputun/sms-spam/app/storage"
	"github.com/umputun/sms-spam/lib/bayes"
)

//go:generate moq --out mocks/classifier.go --pkg mocks --with-resets --skip-ensure . Classifier
//go:generate moq --out mocks/feedback_store.go --pkg mocks --with-resets --skip-ensure . FeedbackStore

//go:embed assets/*.html assets/components/*.html assets/styles.css
var templateFS embed.FS

const maxRequestSize = 16 * 1024

// Server is a web API server.
type Server struct {
	Config
}

// Config defines server parameters
type Config struct {
	Version    string        // version to show in app info headers
	ListenAddr string        // listen address
	Classifier Classifier    // model store
	Feedback   FeedbackStore // feedback storage
	MaxMsgLen  int           // max message length in characters
	RateLimit  float64       // max predictions per minute from a single ip, 0 to disable
	Dbg        bool          // debug mode
}

// Classifier classifies messages with a lazily loaded model
type Classifier interface {
	Classify(msg string) (model.Result, error)
	IsLoaded() bool
	RestartRequired() bool
	Manifest() *model.Manifest
}

// FeedbackStore keeps user feedback
type FeedbackStore interface {
	Add(ctx context.Context, rec storage.FeedbackRecord) (int64, error)
	Stats(ctx context.Context) (storage.FeedbackStats, error)
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	if config.MaxMsgLen <= 0 {
		config.MaxMsgLen = 1000
	}
	return &Server{Config: config}
}

// Run starts server and accepts requests until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 30 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()), rest.RealIP, rest.Throttle(1000),
		rest.AppInfo("sms-spam", "umputun", s.Version), rest.Ping, rest.SizeLimit(maxRequestSize))
	if s.Dbg {
		router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	router.HandleFunc("GET /{$}", s.htmlPageHandler("index.html")) // form page
	router.HandleFunc("GET /about", s.htmlPageHandler("about.html"))
	router.HandleFunc("GET /styles.css", s.stylesHandler)
	router.HandleFunc("GET /health", s.healthHandler)
	router.HandleFunc("POST /feedback", s.feedbackHandler)

	router.Group().Route(func(r *routegroup.Bundle) {
		if s.RateLimit > 0 {
			r.Use(s.rateLimiter())
		}
		r.HandleFunc("POST /predict", s.predictHandler)
	})
	return router
}

// rateLimiter limits predictions per client ip, RateLimit requests per minute with the same burst
func (s *Server) rateLimiter() func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(s.RateLimit/60, &limiter.ExpirableOptions{DefaultExpirationTTL: 10 * time.Minute})
	lmt.SetBurst(max(int(s.RateLimit), 1))
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessage("Rate limit exceeded. Please try again later.")
	lmt.SetMessageContentType("text/plain; charset=utf-8")
	lmt.SetOnLimitReached(func(_ http.ResponseWriter, r *http.Request) {
		log.Printf("[WARN] rate limit reached for %s", r.RemoteAddr)
	})
	return func(next http.Handler) http.Handler { return tollbooth.LimitHandler(lmt, next) }
}

// resultView is the data for result.html
type resultView struct {
	Error             string
	Message           string
	Prediction        string
	Label             int
	Confidence        float64
	ConfidenceStr     string
	ConfidencePercent int
}

// predictHandler handles POST /predict. Accepts a form with "message" field or json {"message": "..."},
// responds with html result for forms and json for json requests.
func (s *Server) predictHandler(w http.ResponseWriter, r *http.Request) {
	isJSON := isJSONRequest(r)

	var req struct {
		Message string `json:"message"`
	}
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			renderJSON(w, http.StatusBadRequest, rest.JSON{"error": "can't decode request", "details": err.Error()})
			return
		}
	} else {
		req.Message = r.FormValue("message")
	}
	msg := strings.TrimSpace(req.Message)

	if msg == "" {
		s.predictError(w, isJSON, http.StatusBadRequest, "Please enter a message")
		return
	}
	if utf8.RuneCountInString(msg) > s.MaxMsgLen {
		s.predictError(w, isJSON, http.StatusBadRequest, fmt.Sprintf("Message too long (max %d characters)", s.MaxMsgLen))
		return
	}

	res, err := s.Classifier.Classify(msg)
	if err != nil {
		if errors.Is(err, model.ErrModelUnavailable) {
			log.Printf("[WARN] can't classify, %v", err)
			if isJSON {
				renderJSON(w, http.StatusServiceUnavailable, rest.JSON{"error": "model unavailable"})
				return
			}
			s.render(w, http.StatusServiceUnavailable, "model_missing.html", nil)
			return
		}
		log.Printf("[ERROR] classification failed: %v", err)
		s.predictError(w, isJSON, http.StatusInternalServerError, "An error occurred")
		return
	}
	log.Printf("[DEBUG] classified as %s (%.4f), msg: %q", res.Label, res.Confidence, shorten(msg, 80))

	if isJSON {
		rest.RenderJSON(w, rest.JSON{"label": res.Label.String(), "spam": res.Label == bayes.Spam,
			"confidence": res.Confidence})
		return
	}
	s.render(w, http.StatusOK, "result.html", resultView{
		Message:           msg,
		Prediction:        res.Label.String(),
		Label:             int(res.Label),
		Confidence:        res.Confidence,
		ConfidenceStr:     fmt.Sprintf("%.2f%%", res.Confidence*100),
		ConfidencePercent: int(res.Confidence * 100),
	})
}

func (s *Server) predictError(w http.ResponseWriter, isJSON bool, status int, msg string) {
	if isJSON {
		renderJSON(w, status, rest.JSON{"error": msg})
		return
	}
	s.render(w, status, "result.html", resultView{Prediction: "Error", Error: msg})
}

// feedbackHandler handles POST /feedback. Accepts a form or json with message, predicted_label,
// optional user_label and confidence.
func (s *Server) feedbackHandler(w http.ResponseWriter, r *http.Request) {
	isJSON := isJSONRequest(r)

	rec, err := parseFeedback(r, isJSON)
	if err == nil && utf8.RuneCountInString(rec.Message) > s.MaxMsgLen {
		err = fmt.Errorf("message too long (max %d characters)", s.MaxMsgLen)
	}
	if err != nil {
		s.feedbackResponse(w, isJSON, http.StatusBadRequest, rest.JSON{"error": "invalid feedback", "details": err.Error()})
		return
	}

	id, err := s.Feedback.Add(r.Context(), rec)
	switch {
	case errors.Is(err, storage.ErrInvalidFeedback):
		s.feedbackResponse(w, isJSON, http.StatusBadRequest, rest.JSON{"error": "invalid feedback", "details": err.Error()})
		return
	case err != nil:
		log.Printf("[ERROR] can't save feedback: %v", err)
		s.feedbackResponse(w, isJSON, http.StatusInternalServerError, rest.JSON{"error": "can't save feedback"})
		return
	}
	s.feedbackResponse(w, isJSON, http.StatusOK, rest.JSON{"status": "ok", "id": id})
}

func (s *Server) feedbackResponse(w http.ResponseWriter, isJSON bool, status int, resp rest.JSON) {
	if isJSON {
		renderJSON(w, status, resp)
		return
	}
	s.render(w, status, "feedback.html", resp)
}

func parseFeedback(r *http.Request, isJSON bool) (storage.FeedbackRecord, error) {
	if isJSON {
		var req struct {
			Message        string   `json:"message"`
			PredictedLabel *int     `json:"predicted_label"`
			UserLabel      *int     `json:"user_label"`
			Confidence     *float64 `json:"confidence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return storage.FeedbackRecord{}, fmt.Errorf("can't decode request: %w", err)
		}
		if req.PredictedLabel == nil {
			return storage.FeedbackRecord{}, errors.New("predicted_label is required")
		}
		rec := storage.FeedbackRecord{Message: strings.TrimSpace(req.Message), PredictedLabel: bayes.Label(*req.PredictedLabel)}
		if req.UserLabel != nil {
			l := bayes.Label(*req.UserLabel)
			rec.UserLabel = &l
		}
		if req.Confidence != nil {
			rec.Confidence = *req.Confidence
		}
		return rec, nil
	}

	predicted, err := bayes.ParseLabel(r.FormValue("predicted_label"))
	if err != nil {
		return storage.FeedbackRecord{}, fmt.Errorf("predicted_label: %w", err)
	}
	rec := storage.FeedbackRecord{Message: strings.TrimSpace(r.FormValue("message")), PredictedLabel: predicted}
	if v := strings.TrimSpace(r.FormValue("user_label")); v != "" {
		l, err := bayes.ParseLabel(v)
		if err != nil {
			return storage.FeedbackRecord{}, fmt.Errorf("user_label: %w", err)
		}
		rec.UserLabel = &l
	}
	if v := strings.TrimSpace(r.FormValue("confidence")); v != "" {
		if rec.Confidence, err = strconv.ParseFloat(v, 64); err != nil {
			return storage.FeedbackRecord{}, fmt.Errorf("confidence: %w", err)
		}
	}
	return rec, nil
}

// healthHandler handles GET /health. Never triggers model loading, 503 if the model is not loaded yet.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	loaded := s.Classifier.IsLoaded()
	resp := rest.JSON{"status": "healthy", "model_loaded": loaded, "restart_required": s.Classifier.RestartRequired()}
	if m := s.Classifier.Manifest(); m != nil {
		resp["manifest"] = m
	}
	if s.Feedback != nil {
		if stats, err := s.Feedback.Stats(r.Context()); err == nil {
			resp["feedback"] = stats
		} else {
			log.Printf("[WARN] can't get feedback stats: %v", err)
		}
	}
	status := http.StatusOK
	if !loaded {
		resp["status"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	renderJSON(w, status, resp)
}

// htmlPageHandler renders a static page
func (s *Server) htmlPageHandler(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.render(w, http.StatusOK, page, nil)
	}
}

// stylesHandler handles GET /styles.css request. It returns styles.css file.
func (s *Server) stylesHandler(w http.ResponseWriter, _ *http.Request) {
	body, err := templateFS.ReadFile("assets/styles.css")
	if err != nil {
		log.Printf("[WARN] can't read styles.css: %v", err)
		http.Error(w, "Error reading styles.css", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// render executes page template with shared components and writes it with the given status
func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, err := template.New("").ParseFS(templateFS, "assets/"+page, "assets/components/*.html")
	if err != nil {
		log.Printf("[WARN] can't load template %s: %v", page, err)
		http.Error(w, "Error loading template", http.StatusInternalServerError)
		return
	}
	tmplData := struct {
		Version string
		Data    any
	}{Version: s.Version, Data: data}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, tmplData); err != nil {
		log.Printf("[WARN] can't execute template %s: %v", page, err)
		http.Error(w, "Error executing template", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderJSON sends json response with the given status
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	rest.RenderJSON(w, data)
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

func shorten(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
