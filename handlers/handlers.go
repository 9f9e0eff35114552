// Package handlers serves the score entry form, the rendered scorecard and
// its PNG export.
package handlers

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nilsimda/court-scorecard/components"
	"github.com/nilsimda/court-scorecard/metrics"
	"github.com/nilsimda/court-scorecard/models"
	"github.com/nilsimda/court-scorecard/scorecard"
	"github.com/nilsimda/court-scorecard/session"
)

const (
	actionField  = "_action"
	actionSubmit = "submit"
	actionEdit   = "edit"
	actionExport = "export"

	exportFailedNotice = "Could not save image. Please try again."
)

// Options configures Handlers.
type Options struct {
	Courts     []string
	CookieName string
	Assets     fs.FS
	Limiter    *IPRateLimiter
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Metrics    *metrics.Metrics
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
}

type Handlers struct {
	store      *session.Store
	exporter   *scorecard.Exporter
	courts     []string
	cookieName string
	assets     fs.FS
	limiter    *IPRateLimiter
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *metrics.Metrics
	metricsH   http.Handler
}

func New(store *session.Store, exporter *scorecard.Exporter, opts Options) *Handlers {
	h := &Handlers{
		store:      store,
		exporter:   exporter,
		courts:     opts.Courts,
		cookieName: opts.CookieName,
		assets:     opts.Assets,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
		metricsH:   opts.MetricsHandler,
	}
	if h.cookieName == "" {
		h.cookieName = "scorecard_session"
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer("github.com/nilsimda/court-scorecard/handlers")
	}
	return h
}

// Router builds the chi router.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.getIndex)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	if h.assets != nil {
		r.Handle("/assets/*", http.FileServer(http.FS(h.assets)))
	}
	if h.metricsH != nil {
		r.Handle("/metrics", h.metricsH)
	}

	r.Route("/court/{courtID}", func(r chi.Router) {
		r.Get("/", h.getCourt)
		r.Post("/", h.postCourt)
		r.With(RateLimitMiddleware(h.limiter)).Get("/scorecard.png", h.getScorecardPNG)
	})

	return r
}

func (h *Handlers) getIndex(w http.ResponseWriter, r *http.Request) {
	if len(h.courts) == 0 {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, CourtPath(h.courts[0]), http.StatusSeeOther)
}

// CourtPath returns the page URL for a court.
func CourtPath(courtID string) string {
	return "/court/" + url.PathEscape(courtID)
}

// courtID returns the decoded court segment. chi matches on RawPath when the
// request has one, and only then is the parameter still escaped.
func courtID(r *http.Request) string {
	id := chi.URLParam(r, "courtID")
	if r.URL.RawPath == "" {
		return id
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

// sessionID returns the caller's session id, issuing a new cookie when needed.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(h.cookieName); err == nil && session.ValidID(c.Value) {
		return c.Value
	}
	id := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handlers) with(w http.ResponseWriter, r *http.Request, fn func(*scorecard.Session) error) error {
	err := h.store.With(h.sessionID(w, r), courtID(r), fn)
	h.metrics.SetActiveSessions(h.store.Len())
	return err
}

// peek runs fn on the caller's existing session without issuing a cookie or
// creating state. It reports whether a session was found.
func (h *Handlers) peek(r *http.Request, fn func(*scorecard.Session) error) (bool, error) {
	c, err := r.Cookie(h.cookieName)
	if err != nil || !session.ValidID(c.Value) {
		return false, nil
	}
	return h.store.Peek(c.Value, courtID(r), fn)
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

// view returns the page for the session's current state.
func view(s *scorecard.Session, notice string) templ.Component {
	if card := s.Card(); card != nil {
		return components.ReviewPage(*card, notice)
	}
	return components.EntryPage(s.CourtID(), s.Form(), s.Errors())
}

func emptyEntryPage(courtID string) templ.Component {
	return components.EntryPage(courtID, models.FormValues{}, nil)
}

// getCourt only reads sessions; a visitor without one gets the empty form.
func (h *Handlers) getCourt(w http.ResponseWriter, r *http.Request) {
	page := emptyEntryPage(courtID(r))
	_, _ = h.peek(r, func(s *scorecard.Session) error {
		page = view(s, "")
		return nil
	})
	render(w, r, http.StatusOK, page)
}

func (h *Handlers) postCourt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	switch action := r.PostForm.Get(actionField); action {
	case "", actionSubmit:
		h.submit(w, r)
	case actionEdit:
		h.edit(w, r)
	case actionExport:
		if !h.limiter.Allow(r) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		h.export(w, r, true)
	default:
		http.Error(w, "unknown action "+strconv.Quote(action), http.StatusBadRequest)
	}
}

func formValues(r *http.Request) models.FormValues {
	return models.FormValues{
		PlayerName:    r.PostForm.Get(string(models.PlayerName)),
		PlayerScore:   r.PostForm.Get(string(models.PlayerScore)),
		OpponentName:  r.PostForm.Get(string(models.OpponentName)),
		OpponentScore: r.PostForm.Get(string(models.OpponentScore)),
	}
}

func (h *Handlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handlers.Submit",
		trace.WithAttributes(attribute.String("court.id", courtID(r))))
	defer span.End()

	var page templ.Component
	err := h.with(w, r, func(s *scorecard.Session) error {
		err := s.Submit(formValues(r))
		if err != nil {
			page = view(s, "")
		}
		return err
	})

	var verrs models.ValidationErrors
	switch {
	case err == nil:
		h.metrics.ObserveSubmit(nil)
		h.logger.InfoContext(ctx, "Scorecard generated", slog.String("court_id", courtID(r)))
		http.Redirect(w, r, CourtPath(courtID(r)), http.StatusSeeOther)
	case errors.As(err, &verrs):
		h.metrics.ObserveSubmit(verrs.Fields())
		span.SetAttributes(attribute.Int("validation.failures", len(verrs)))
		render(w, r, http.StatusUnprocessableEntity, page)
	case errors.Is(err, scorecard.ErrNotEntering):
		http.Redirect(w, r, CourtPath(courtID(r)), http.StatusSeeOther)
	default:
		h.logger.ErrorContext(ctx, "Submit failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handlers) edit(w http.ResponseWriter, r *http.Request) {
	_, _ = h.peek(r, func(s *scorecard.Session) error {
		s.Edit()
		return nil
	})
	http.Redirect(w, r, CourtPath(courtID(r)), http.StatusSeeOther)
}

func (h *Handlers) getScorecardPNG(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, false)
}

// export writes the PNG download. On failure the session is untouched; HTML
// requests get the current page back with a notice. Without a session there
// is nothing rendered to export.
func (h *Handlers) export(w http.ResponseWriter, r *http.Request, html bool) {
	var (
		img  *scorecard.Image
		page templ.Component
	)
	found, err := h.peek(r, func(s *scorecard.Session) error {
		var err error
		img, err = s.Export(r.Context(), h.exporter)
		if err != nil {
			page = view(s, exportFailedNotice)
		}
		return err
	})
	if !found {
		id := courtID(r)
		img, err = h.exporter.Export(r.Context(), id, nil)
		page = emptyEntryPage(id)
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scorecard.ErrCardUnavailable) {
			status = http.StatusConflict
		}
		if html {
			render(w, r, status, page)
			return
		}
		http.Error(w, exportFailedNotice, status)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": img.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to write image", slog.Any("error", err))
	}
}
