package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"

	"github.com/nilsimda/court-scorecard/components"
	"github.com/nilsimda/court-scorecard/config"
	"github.com/nilsimda/court-scorecard/handlers"
	"github.com/nilsimda/court-scorecard/metrics"
	"github.com/nilsimda/court-scorecard/models"
	"github.com/nilsimda/court-scorecard/raster"
	"github.com/nilsimda/court-scorecard/scorecard"
	"github.com/nilsimda/court-scorecard/session"
)

const tracerName = "github.com/nilsimda/court-scorecard"

func newRasterizer(cfg *config.Config) (*raster.Rasterizer, error) {
	if cfg.Scorecard.FontPath == "" {
		return raster.New(nil)
	}
	font, err := raster.LoadFont(cfg.Scorecard.FontPath)
	if err != nil {
		return nil, err
	}
	return raster.New(font)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			r, err := newRasterizer(cfg)
			if err != nil {
				return err
			}

			var (
				m        *metrics.Metrics
				metricsH http.Handler
			)
			if cfg.Observability.MetricsEnabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m = metrics.New(reg)
				metricsH = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
			}

			tracer := otel.Tracer(tracerName)
			exporter := scorecard.NewExporter(r,
				scorecard.WithPixelRatio(cfg.Scorecard.PixelRatio),
				scorecard.WithLogger(logger),
				scorecard.WithTracer(tracer),
				scorecard.WithMetrics(m),
			)
			loc, err := cfg.Scorecard.Location()
			if err != nil {
				return err
			}
			store := session.NewStore(cfg.Session.IdleTTL,
				session.WithMaxEntries(cfg.Session.MaxEntries),
				session.WithSessionOptions(scorecard.WithLocation(loc)),
			)

			h := handlers.New(store, exporter, handlers.Options{
				Courts:         cfg.Courts,
				CookieName:     cfg.Session.CookieName,
				Assets:         assets,
				Limiter:        handlers.NewIPRateLimiter(handlers.PerMinute(cfg.RateLimit.ExportsPerMinute), cfg.RateLimit.Burst),
				Logger:         logger,
				Tracer:         tracer,
				Metrics:        m,
				MetricsHandler: metricsH,
			})

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      h.Router(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			go pruneSessions(ctx, store, m, cfg.Session.IdleTTL)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server...", slog.String("addr", cfg.Server.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}
}

// pruneSessions drops idle sessions once per TTL until ctx is done.
func pruneSessions(ctx context.Context, store *session.Store, m *metrics.Metrics, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetActiveSessions(store.Prune())
		}
	}
}

func courtsCommand() *cli.Command {
	return &cli.Command{
		Name:  "courts",
		Usage: "list the configured courts",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			color.Yellow("\nConfigured Courts")
			writeCourts(os.Stdout, cfg.Courts)
			return nil
		},
	}
}

func writeCourts(w io.Writer, courts []string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Court", "Path", "Image"})
	for _, id := range courts {
		path := handlers.CourtPath(id)
		table.Append([]string{id, path, path + "/scorecard.png"})
	}
	table.Render()
}

func prerenderCommand() *cli.Command {
	return &cli.Command{
		Name:  "prerender",
		Usage: "write the empty entry page of every configured court",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "dist", Usage: "output directory"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			out := c.String("out")
			if err := prerender(c.Context, out, cfg.Courts); err != nil {
				color.Red("Prerender failed: %v", err)
				return err
			}
			if err := copyAssets(out); err != nil {
				return err
			}
			color.Green("Wrote %d court pages to %s", len(cfg.Courts), out)
			return nil
		},
	}
}

// prerender writes out/court/{id}/index.html for every court.
func prerender(ctx context.Context, out string, courts []string) error {
	for _, id := range courts {
		dir := filepath.Join(out, "court", id)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		f, err := os.Create(filepath.Join(dir, "index.html"))
		if err != nil {
			return fmt.Errorf("failed to create page for court %s: %w", id, err)
		}
		err = components.EntryPage(id, models.FormValues{}, nil).Render(ctx, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to render court %s: %w", id, err)
		}
	}
	return nil
}

func copyAssets(out string) error {
	return fs.WalkDir(assets, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := assets.ReadFile(path)
		if err != nil {
			return err
		}
		dst := filepath.Join(out, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "generate a scorecard image without the server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "court", Value: "1", Usage: "court id"},
			&cli.StringFlag{Name: "player", Usage: "your name"},
			&cli.StringFlag{Name: "player-score", Usage: "your score"},
			&cli.StringFlag{Name: "opponent", Usage: "opponent's name"},
			&cli.StringFlag{Name: "opponent-score", Usage: "opponent's score"},
			&cli.StringFlag{Name: "out", Value: ".", Usage: "output directory"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			r, err := newRasterizer(cfg)
			if err != nil {
				return err
			}
			exporter := scorecard.NewExporter(r,
				scorecard.WithPixelRatio(cfg.Scorecard.PixelRatio),
				scorecard.WithLogger(newLogger(cfg)),
			)

			values := models.FormValues{
				PlayerName:    c.String("player"),
				PlayerScore:   c.String("player-score"),
				OpponentName:  c.String("opponent"),
				OpponentScore: c.String("opponent-score"),
			}
			loc, err := cfg.Scorecard.Location()
			if err != nil {
				return err
			}
			path, err := renderScorecard(c.Context, exporter, c.String("court"), values, c.String("out"),
				scorecard.WithLocation(loc))
			var verrs models.ValidationErrors
			if errors.As(err, &verrs) {
				for _, e := range verrs {
					color.Red("  %s: %s", e.Field.Label(), e.Message)
				}
				return cli.Exit("invalid score", 2)
			}
			if err != nil {
				return err
			}
			color.Green("Saved %s", path)
			return nil
		},
	}
}

// renderScorecard runs a fresh session through submit and export and writes
// the image into dir. It returns the written path.
func renderScorecard(ctx context.Context, exporter *scorecard.Exporter, courtID string, values models.FormValues, dir string, opts ...scorecard.SessionOption) (string, error) {
	s := scorecard.NewSession(courtID, opts...)
	if err := s.Submit(values); err != nil {
		return "", err
	}
	img, err := s.Export(ctx, exporter)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, img.Filename)
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
