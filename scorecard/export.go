package scorecard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nilsimda/court-scorecard/metrics"
)

const (
	// DefaultPixelRatio renders exports at twice the on-screen density.
	DefaultPixelRatio = 2.0
	ContentTypePNG    = "image/png"
)

var (
	// ErrCardUnavailable is returned when there is no rendered card to export.
	ErrCardUnavailable = errors.New("scorecard is not rendered")
	ErrEmptyImage      = errors.New("rasterizer returned no data")
)

// ExportError reports a failed export attempt. The session is left as is.
type ExportError struct {
	CourtID string
	Err     error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export scorecard for court %q: %v", e.CourtID, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Rasterizer converts a card into an encoded PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, card Card, pixelRatio float64) ([]byte, error)
}

// Image is a finished export ready to be downloaded.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Filename returns the download name for a court's scorecard.
func Filename(courtID string) string {
	return "scorecard-court" + courtID + ".png"
}

type Exporter struct {
	raster     Rasterizer
	pixelRatio float64
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *metrics.Metrics
}

type ExporterOption func(*Exporter)

func WithPixelRatio(ratio float64) ExporterOption {
	return func(e *Exporter) {
		if ratio > 0 {
			e.pixelRatio = ratio
		}
	}
}

func WithLogger(logger *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) ExporterOption {
	return func(e *Exporter) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

func WithMetrics(m *metrics.Metrics) ExporterOption {
	return func(e *Exporter) {
		e.metrics = m
	}
}

func NewExporter(r Rasterizer, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		raster:     r,
		pixelRatio: DefaultPixelRatio,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.Tracer("github.com/nilsimda/court-scorecard/scorecard"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exporter) PixelRatio() float64 {
	return e.pixelRatio
}

// Export rasterizes card and names the file after the court. Failures are
// logged and returned as *ExportError; no retry is attempted.
func (e *Exporter) Export(ctx context.Context, courtID string, card *Card) (img *Image, err error) {
	ctx, span := e.tracer.Start(ctx, "scorecard.Export",
		trace.WithAttributes(attribute.String("court.id", courtID)))
	defer span.End()

	start := time.Now()
	defer func() {
		e.metrics.ObserveExport(err == nil, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.logger.ErrorContext(ctx, "Failed to save image",
				slog.String("court_id", courtID),
				slog.Any("error", err))
		}
	}()

	if card == nil {
		return nil, &ExportError{CourtID: courtID, Err: ErrCardUnavailable}
	}
	if err := ctx.Err(); err != nil {
		return nil, &ExportError{CourtID: courtID, Err: err}
	}

	data, err := e.raster.Rasterize(ctx, *card, e.pixelRatio)
	if err != nil {
		return nil, &ExportError{CourtID: courtID, Err: fmt.Errorf("rasterize: %w", err)}
	}
	if len(data) == 0 {
		return nil, &ExportError{CourtID: courtID, Err: ErrEmptyImage}
	}

	e.logger.InfoContext(ctx, "Scorecard exported",
		slog.String("court_id", courtID),
		slog.Int("bytes", len(data)))

	return &Image{
		Filename:    Filename(courtID),
		ContentType: ContentTypePNG,
		Data:        data,
	}, nil
}
