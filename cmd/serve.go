package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"intercom-cli/internal/api"
	"intercom-cli/internal/client"
	"intercom-cli/internal/config"
	"intercom-cli/internal/coordinator"
	"intercom-cli/internal/logging"
	"intercom-cli/internal/metrics"
	"intercom-cli/internal/store"
)

// Variables to hold flag values
var (
	serveAddr     string
	serviceAction string
)

// --- SERVICE WRAPPER ---

// program implements the kardianos/service interface
type program struct {
	settings config.Settings

	exit   chan struct{}
	wg     sync.WaitGroup
	server *http.Server
	cache  *store.Store
}

func (p *program) Start(s service.Service) error {
	// Start should not block. Do the actual work async.
	p.exit = make(chan struct{})

	if err := os.MkdirAll(p.settings.CacheDir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	cache, err := store.Open(store.Config{Dir: p.settings.CacheDir})
	if err != nil {
		return err
	}
	p.cache = cache

	go p.run()
	return nil
}

func (p *program) run() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	remote := client.New(client.ClientConfig{
		BaseURL:      p.settings.BaseURL,
		ProbeTimeout: p.settings.ProbeTimeout,
	})
	coord := coordinator.New(remote, p.cache, metrics.NewRecorder(registry))
	registry.MustRegister(&metrics.CacheCollector{Source: coord})

	// 1. Initial load: cache first, network only for what is missing.
	if err := coord.LoadAll(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("initial load incomplete, serving what is available")
	}

	// 2. Periodic refresh of both collections.
	p.wg.Add(1)
	go p.refreshLoop(coord)

	p.server = &http.Server{
		Addr:              p.settings.ListenAddr,
		Handler:           api.NewRouter(coord, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info().Str("addr", p.settings.ListenAddr).Str("backend", p.settings.BaseURL).Msg("intercom service listening")

	// Blocking call to listen
	if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error().Err(err).Msg("HTTP server error")
	}
}

func (p *program) refreshLoop(coord *coordinator.Coordinator) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.settings.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.exit:
			return
		case <-ticker.C:
			cams := coord.RefreshAsync(coordinator.Cameras)
			doors := coord.RefreshAsync(coordinator.Doors)
			// failures are logged by the coordinator; the stale snapshot stays
			<-cams
			<-doors
		}
	}
}

func (p *program) Stop(s service.Service) error {
	// Stop should not block for long. Signal the app to stop.
	logging.Info().Msg("stopping service")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("server forced to shutdown")
		}
	}
	close(p.exit)
	p.wg.Wait()

	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// --- COMMAND ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cache as a background service with an HTTP API",
	Long: `Starts a long-running service that keeps the camera and door cache fresh
and serves it over HTTP, together with Prometheus metrics.
Can be installed as a system service.`,
	Run: func(cmd *cobra.Command, args []string) {
		settings := config.Load()
		if serveAddr != "" {
			settings.ListenAddr = serveAddr
		}
		if err := settings.Validate(); err != nil {
			log.Fatal(err)
		}

		// 1. Define Service Configuration
		svcConfig := &service.Config{
			Name:        "intercom-cache",
			DisplayName: "Intercom Cache Service",
			Description: "Caches intercom cameras and doors and serves them over HTTP",
			// Arguments passed to the binary when run as a service
			Arguments: []string{"serve", "--addr", settings.ListenAddr},
		}
		if cfgFile != "" {
			svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgFile)
		}

		prg := &program{settings: settings}

		s, err := service.New(prg, svcConfig)
		if err != nil {
			log.Fatal(err)
		}

		// 2. Handle Service Control Actions (Install, Start, Stop, Uninstall)
		if serviceAction != "" {
			err = service.Control(s, serviceAction)
			if err != nil {
				log.Fatalf("Failed to %s service: %v", serviceAction, err)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		// 3. Run the Service (Blocking)
		logger, err := s.Logger(nil)
		if err != nil {
			log.Fatal(err)
		}
		if err = s.Run(); err != nil {
			logger.Error(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from listen_addr)")
	serveCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")
}
