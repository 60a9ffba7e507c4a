package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"jaincal/internal/cache"
	"jaincal/internal/capture"
	"jaincal/internal/config"
	"jaincal/internal/content"
	appLog "jaincal/internal/log"
	"jaincal/internal/panchang"
	"jaincal/internal/scheduler"
	"jaincal/internal/store"
	"jaincal/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	logLevel   string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()

	appLog.SetDevelopment(flags.debug)
	appLog.SetLevel(appLog.Level(flags.logLevel))
	defer appLog.Sync()

	appLog.Info("jaincal starting", "version", version)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	zone := conf.Zone()

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", zone.String(),
		"language", conf.Language,
		"location", conf.Location.Name,
		"refresh", conf.RefreshCron,
		"tick", conf.TickCron,
		"ics_count", len(conf.ICS),
		"redis", conf.Redis.URL != "",
		"database", conf.Database.Host != "",
		"widget", conf.Widget.Enabled,
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := content.NewClient(conf.Content)
	loader := &cache.Loader{Source: client}
	if conf.Redis.URL != "" {
		rdb, err := cache.NewRedis(ctx, conf.Redis.URL)
		if err != nil {
			// The service still works without a cache, only slower.
			appLog.Error("redis unavailable; dashboard cache disabled", err)
		} else {
			defer rdb.Close()
			loader.Cache = cache.NewDashboardCache(rdb, conf.Redis.TTL())
		}
	}

	var db *sql.DB
	var calendar *store.Service
	if conf.Database.Host != "" {
		db, err = store.Open(ctx, conf.Database)
		if err != nil {
			appLog.Error("failed to open database", err, "host", conf.Database.Host)
			os.Exit(1)
		}
		defer db.Close()
		if err := store.Migrate(db); err != nil {
			appLog.Error("failed to migrate database", err)
			os.Exit(1)
		}
		calendar = store.NewService(store.NewRepository(db), zone)
	}

	refresh := &scheduler.Refresh{
		Dashboards: loader,
		Location:   conf.Location,
		Language:   conf.Language,
		ICS:        conf.ICS,
		Zone:       zone,
	}
	deps := web.Deps{Dashboards: loader, Reference: client}
	if calendar != nil {
		refresh.Calendar = client
		refresh.Store = calendar
		// Feeds are third-party URLs: a separate fetcher without the API key.
		refresh.Feeds = content.NewFetcher(filepath.Join(conf.Content.CacheDir, "ics"), conf.Content.Timeout(), 0)
		deps.Store = calendar
	}

	tick := &scheduler.Tick{
		Dashboards: loader,
		Location:   conf.Location,
		Language:   conf.Language,
		Zone:       zone,
	}
	if conf.Widget.Enabled {
		tick.OnTransition = func(ctx context.Context, _ panchang.Snapshot) error {
			return capture.CaptureWidgetPNG(ctx, capture.Options{
				URL:        widgetURL(conf),
				OutputPath: conf.Widget.OutputPath,
				Width:      conf.Widget.Width,
				Height:     conf.Widget.Height,
			})
		}
	}

	if flags.once {
		runOnce(ctx, refresh, tick)
		return
	}

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(conf, deps).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	sched := scheduler.New(zone)
	if err := sched.Add("refresh", conf.RefreshCron, refresh.Run); err != nil {
		appLog.Error("failed to schedule refresh", err)
		os.Exit(1)
	}
	if err := sched.Add("tick", conf.TickCron, tick.Job); err != nil {
		appLog.Error("failed to schedule tick", err)
		os.Exit(1)
	}
	sched.Start()

	// Warm the cache and the store without waiting for the first schedule.
	go func() {
		if err := refresh.Run(ctx); err != nil {
			appLog.Error("initial refresh failed", err)
		}
	}()

	select {
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	case err := <-srvErr:
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
	appLog.Info("jaincal exiting")
}

// runOnce performs one refresh and one evaluation pass and exits.
func runOnce(ctx context.Context, refresh *scheduler.Refresh, tick *scheduler.Tick) {
	if err := refresh.Run(ctx); err != nil {
		appLog.Error("refresh failed", err)
	}
	if _, err := tick.Run(ctx); err != nil {
		appLog.Error("tick failed", err)
	}
	if s, ok := tick.Last(); ok {
		active := panchang.Placeholder
		if iv, ok := s.ActivePachhakkhanInterval(); ok {
			active = iv.Label
		}
		appLog.Info("evaluated",
			"now", s.Now.String(),
			"phase", string(s.Phase),
			"sunrise", panchang.FormatOptional(s.Sunrise),
			"sunset", panchang.FormatOptional(s.Sunset),
			"pachhakkhan", active,
			"warnings", len(s.Warnings),
		)
	}
}

// widgetURL is the local address of the widget page, with basic auth
// credentials when enabled.
func widgetURL(conf *config.Config) string {
	host, port, err := net.SplitHostPort(conf.Listen)
	if err != nil {
		host, port = "127.0.0.1", "8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: "/widget"}
	if ba := conf.BasicAuth; ba != nil && ba.Username != "" && ba.Password != "" {
		u.User = url.UserPassword(ba.Username, ba.Password)
	}
	return u.String()
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/jaincal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh and evaluation pass and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Human-readable console logging")

	flag.Parse()

	return cfg
}
