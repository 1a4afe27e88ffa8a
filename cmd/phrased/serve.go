package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"phrased/internal/app"
	"phrased/internal/config"
	"phrased/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr, cors string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  phrased serve --addr :8080 --models-dir ~/Models",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolveConfig(config.Config{Addr: addr, CORSOrigins: splitCSV(cors)})
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default :8080)")
	cmd.Flags().StringVar(&cors, "cors-origins", "", "Comma-separated allowed CORS origins; empty disables CORS")
	return cmd
}

// serve runs the API until ctx is done. When ready is non-nil it receives
// the bound address once the listener is open.
func serve(ctx context.Context, cfg config.Config, ready chan<- string) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	httpapi.SetBaseContext(ctx)
	defer httpapi.SetBaseContext(context.Background())
	httpapi.SetCORSOptions(len(cfg.CORSOrigins) > 0, cfg.CORSOrigins, nil, nil)
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(a),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	logger.Info().
		Str("addr", ln.Addr().String()).
		Str("models_dir", a.ModelsDir()).
		Str("engine", cfg.Engine).
		Msg("phrased listening")
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	return g.Wait()
}
