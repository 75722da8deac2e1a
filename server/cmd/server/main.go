package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moodmate/moodmate/server/internal/analysis"
	"github.com/moodmate/moodmate/server/internal/api"
	"github.com/moodmate/moodmate/server/internal/auth"
	"github.com/moodmate/moodmate/server/internal/config"
	"github.com/moodmate/moodmate/server/internal/metrics"
	"github.com/moodmate/moodmate/server/internal/ratelimit"
	"github.com/moodmate/moodmate/server/internal/sentiment"
	"github.com/moodmate/moodmate/server/internal/store"
	"github.com/moodmate/moodmate/server/internal/suggest"
	"github.com/moodmate/moodmate/server/internal/web"
	"github.com/moodmate/moodmate/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file; empty runs with defaults")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("moodmate-server failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	sc := cfg.Server

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: sc.SlogLevel()}))
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"config", configPath,
		"addr", sc.Addr(),
		"auth_mode", sc.Auth.Mode,
		"history_ttl", sc.History.TTL,
		"max_text_length", sc.Analysis.MaxTextLength,
		"suggestions", sc.Suggestions.File,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// Step catalog, optionally loaded from disk and hot-reloaded.
	catalog := suggest.NewProvider(nil)
	if sc.Suggestions.File != "" {
		cat, err := suggest.LoadFile(sc.Suggestions.File)
		if err != nil {
			return err
		}
		catalog.Set(cat)
		if sc.Suggestions.Watch {
			g.Go(func() error {
				if err := suggest.Watch(ctx, sc.Suggestions.File, catalog); err != nil {
					slog.Warn("catalog watch stopped", "path", sc.Suggestions.File, "err", err)
				}
				return nil
			})
		}
	}

	// Recent results with background TTL eviction.
	st := store.New(sc.History.TTL)
	g.Go(func() error {
		st.Run(ctx)
		return nil
	})

	m := metrics.New()
	vader := sentiment.NewVADER()

	svc, err := analysis.New(analysis.Options{
		Analyzer:      vader,
		Catalog:       catalog,
		History:       st,
		Observer:      m,
		MaxTextLength: sc.Analysis.MaxTextLength,
	})
	if err != nil {
		return err
	}

	page, err := web.New(sc.Analysis.MaxTextLength)
	if err != nil {
		return err
	}

	var limiter *ratelimit.Limiter
	if sc.RateLimit.Enabled {
		limiter = ratelimit.New(sc.RateLimit.RPS, sc.RateLimit.Burst, 10*time.Minute)
	}

	// WebSocket hub: stats every interval, analyses on request.
	hub := ws.New(st, sc.Stream.Interval, api.StreamAnalyzer(svc, m))
	if limiter != nil {
		hub.LimitFrames(limiter)
	}
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	apiHandler := api.New(api.Options{
		Service:      svc,
		Store:        st,
		Errors:       m,
		AnalyzerName: vader.Name(),
	})

	mux := newMux(routes{
		page:       page,
		api:        apiHandler,
		stream:     hub,
		metrics:    m,
		limiter:    limiter,
		requireKey: auth.APIKey(sc.Auth.Mode, sc.Auth.EffectiveHeader(), sc.Auth.Key()),
	})

	srv := &http.Server{
		Addr:              sc.Addr(),
		Handler:           logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("moodmate-server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack lets the stats stream upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijack not supported")
	}
	r.code = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", time.Since(start),
		)
	})
}
