package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	iobs "github.com/Sumatoshi-tech/repometrics/internal/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/config"
	"github.com/Sumatoshi-tech/repometrics/pkg/observability"
	"github.com/Sumatoshi-tech/repometrics/pkg/version"
)

const (
	metricsPath              = "/metrics"
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 5 * time.Second
)

// globalFlag reads a persistent root flag. Commands built outside the root
// command see false.
func globalFlag(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return false
	}

	return flag.Value.String() == "true"
}

func initObservability(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) (observability.Providers, error) {
	obsCfg, err := observabilityConfig(cmd, cfg, mode)
	if err != nil {
		return observability.Providers{}, err
	}

	return observability.Init(obsCfg)
}

// observabilityConfig maps the logging section and the global verbosity
// flags onto the provider configuration.
func observabilityConfig(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) (observability.Config, error) {
	level, err := config.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Config{}, err
	}

	obsCfg := observability.ConfigFromEnv(mode)
	obsCfg.ServiceVersion = version.Version
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON || mode == observability.ModeMCP
	obsCfg.LogWriter = cmd.ErrOrStderr()
	obsCfg.SampleRatio = cfg.Logging.TraceSampleRatio

	switch {
	case globalFlag(cmd, "verbose"):
		obsCfg.LogLevel = slog.LevelDebug
	case globalFlag(cmd, "quiet"):
		obsCfg.LogLevel = slog.LevelError
	default:
		obsCfg.LogLevel = level
	}

	return obsCfg, nil
}

func shutdownObservability(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// startMetrics builds the run metrics. With an empty addr they record into
// the OTel meter; otherwise a Prometheus endpoint serves them at addr until
// the returned stop function runs.
func startMetrics(
	ctx context.Context, addr string, providers observability.Providers,
) (*iobs.RunMetrics, func(), error) {
	if addr == "" {
		metrics, err := iobs.NewRunMetrics(providers.Meter)

		return metrics, func() {}, err
	}

	handler, mp, err := iobs.PrometheusHandler()
	if err != nil {
		return nil, nil, err
	}

	metrics, err := iobs.NewRunMetrics(mp.Meter("repometrics"))
	if err != nil {
		return nil, nil, errors.Join(err, mp.Shutdown(ctx))
	}

	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("listen on %s: %w", addr, err), mp.Shutdown(ctx))
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, handler)

	server := &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			providers.Logger.Error("metrics server stopped", "error", serveErr)
		}
	}()

	providers.Logger.InfoContext(ctx, "serving metrics", "addr", listener.Addr().String(), "path", metricsPath)

	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		err := errors.Join(server.Shutdown(shutdownCtx), mp.Shutdown(shutdownCtx))
		if err != nil {
			providers.Logger.Warn("metrics shutdown failed", "error", err)
		}
	}

	return metrics, stop, nil
}
