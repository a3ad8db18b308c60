// Command redistill runs the Redis-wire-compatible cache server: load
// configuration, construct the store/eviction engine/dispatcher/listener,
// and serve until a termination signal requests a graceful shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaikh-shahid/redistill/internal/command"
	"github.com/shaikh-shahid/redistill/internal/config"
	"github.com/shaikh-shahid/redistill/internal/eviction"
	"github.com/shaikh-shahid/redistill/internal/metrics"
	"github.com/shaikh-shahid/redistill/internal/server"
	"github.com/shaikh-shahid/redistill/internal/store"
)

// Exit codes per spec §6: 0 clean, non-zero on bind/TLS/config failure.
const (
	exitOK          = 0
	exitConfigError = 1
	exitBindError   = 2
	exitTLSError    = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file (used when REDISTILL_CONFIG is unset)")
	flag.Parse()

	path := config.ConfigPathFromEnv(*configPath)
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Printf("redistill: config error: %v", err)
			return exitConfigError
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Printf("redistill: config error: %v", err)
		return exitConfigError
	}

	policy, err := store.ParseEvictionPolicy(cfg.Memory.EvictionPolicy)
	if err != nil {
		log.Printf("redistill: config error: %v", err)
		return exitConfigError
	}

	s := store.New(store.Options{
		Shards:    cfg.Server.NumShards,
		Policy:    policy,
		MaxMemory: cfg.Memory.MaxMemory,
	})

	eng := eviction.New(s, eviction.Options{
		SampleSize: cfg.Memory.EvictionSampleSize,
	})
	s.SetGrowthTrigger(eng)

	promAdapter := metrics.New(nil, "redistill")

	srv, err := server.New(s, nil, server.Options{
		Bind:                cfg.Addr(),
		MaxConnections:      cfg.Server.MaxConnections,
		ConnectionRateLimit: cfg.Server.ConnectionRateLimit,
		ConnectionTimeout:   cfg.Server.ConnectionTimeout,
		BatchSize:           cfg.Server.BatchSize,
		BufferPoolSize:      cfg.Server.BufferPoolSize,
		BufferSize:          cfg.Server.BufferSize,
		TLSEnabled:          cfg.Security.TLSEnabled,
		TLSCertPath:         cfg.Security.TLSCertPath,
		TLSKeyPath:          cfg.Security.TLSKeyPath,
		TCPNoDelay:          cfg.Performance.TCPNoDelay,
		TCPKeepAlive:        cfg.Performance.TCPKeepAlive,
	})
	if err != nil {
		log.Printf("redistill: TLS material error: %v", err)
		return exitTLSError
	}

	dispatcher := command.New(s, eng, command.Options{
		Password: cfg.Security.Password,
		Metrics:  server.NewFanoutMetrics(srv.CommandMetrics(), promAdapter),
		Stats:    srv,
	})
	server.AttachDispatcher(srv, dispatcher)

	if err := srv.Listen(); err != nil {
		log.Printf("redistill: bind error: %v", err)
		return exitBindError
	}
	log.Printf("redistill: listening on %s", srv.Addr())

	reportStop := startMetricsReporter(srv, promAdapter)
	defer reportStop()

	if cfg.Server.HealthCheckPort > 0 {
		startHealthServer(cfg.Server.HealthCheckPort, srv, promAdapter)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(eng) }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Printf("redistill: serve error: %v", err)
			return exitBindError
		}
	case <-stop:
		log.Println("redistill: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("redistill: shutdown error: %v", err)
		}
	}

	log.Printf("redistill: stopped (total_commands=%d evicted_keys=%d)", srv.TotalCommands(), s.EvictedKeys())
	return exitOK
}

func startMetricsReporter(srv *server.Server, adapter *metrics.Adapter) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				adapter.Report(srv.UsedMemory(), srv.Store().DBSize(), srv.EvictedKeys(),
					srv.ActiveConnections(), srv.TotalConnections(), srv.RejectedConnections())
			}
		}
	}()
	return cancel
}

func startHealthServer(port int, srv *server.Server, adapter *metrics.Adapter) {
	mux := http.NewServeMux()
	mux.Handle("/health", srv.HealthHandler())
	mux.Handle("/metrics", promhttp.Handler())
	addr := ":" + strconv.Itoa(port)
	go func() {
		log.Printf("redistill: health/metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("redistill: health server error: %v", err)
		}
	}()
}
