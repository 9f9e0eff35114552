package scorecard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nilsimda/court-scorecard/metrics"
)

var errBoom = errors.New("boom")

type fakeRasterizer struct {
	data   []byte
	err    error
	cards  []Card
	ratios []float64
}

func (f *fakeRasterizer) Rasterize(ctx context.Context, card Card, pixelRatio float64) ([]byte, error) {
	f.cards = append(f.cards, card)
	f.ratios = append(f.ratios, pixelRatio)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func testCard(t *testing.T) *Card {
	t.Helper()
	rec, err := Validate(validValues())
	require.NoError(t, err)
	c := Compose(rec, "3", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	return &c
}

func TestExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		courtID   string
		card      func(t *testing.T) *Card
		raster    *fakeRasterizer
		ctx       func() context.Context
		wantFile  string
		wantErrIs error
	}{
		{
			name:     "success",
			courtID:  "3",
			card:     testCard,
			raster:   &fakeRasterizer{data: []byte{0x89, 'P', 'N', 'G'}},
			wantFile: "scorecard-court3.png",
		},
		{
			name:     "court id is used verbatim",
			courtID:  "center-court",
			card:     testCard,
			raster:   &fakeRasterizer{data: []byte{1}},
			wantFile: "scorecard-courtcenter-court.png",
		},
		{
			name:      "card unavailable",
			courtID:   "3",
			card:      func(*testing.T) *Card { return nil },
			raster:    &fakeRasterizer{data: []byte{1}},
			wantErrIs: ErrCardUnavailable,
		},
		{
			name:      "rasterizer failure",
			courtID:   "3",
			card:      testCard,
			raster:    &fakeRasterizer{err: errBoom},
			wantErrIs: errBoom,
		},
		{
			name:      "empty image",
			courtID:   "3",
			card:      testCard,
			raster:    &fakeRasterizer{},
			wantErrIs: ErrEmptyImage,
		},
		{
			name:    "canceled",
			courtID: "3",
			card:    testCard,
			raster:  &fakeRasterizer{data: []byte{1}},
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErrIs: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			e := NewExporter(tt.raster,
				WithLogger(logger),
				WithTracer(noop.NewTracerProvider().Tracer("test")),
				WithMetrics(metrics.New(prometheus.NewRegistry())),
			)

			ctx := context.Background()
			if tt.ctx != nil {
				ctx = tt.ctx()
			}

			img, err := e.Export(ctx, tt.courtID, tt.card(t))
			if tt.wantErrIs != nil {
				var exportErr *ExportError
				require.True(t, errors.As(err, &exportErr))
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, img)
				assert.Contains(t, logs.String(), "Failed to save image")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFile, img.Filename)
			assert.Equal(t, ContentTypePNG, img.ContentType)
			assert.Equal(t, tt.raster.data, img.Data)
			assert.Equal(t, []float64{DefaultPixelRatio}, tt.raster.ratios)
		})
	}
}

func TestExporter_PixelRatio(t *testing.T) {
	raster := &fakeRasterizer{data: []byte{1}}
	e := NewExporter(raster, WithPixelRatio(3), WithPixelRatio(-1))

	_, err := e.Export(context.Background(), "1", testCard(t))
	require.NoError(t, err)
	assert.Equal(t, 3.0, e.PixelRatio())
	assert.Equal(t, []float64{3}, raster.ratios)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "scorecard-court3.png", Filename("3"))
	assert.Equal(t, "scorecard-court.png", Filename(""))
}
