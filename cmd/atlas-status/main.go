package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AtlasStatus/internal/collector"
	"AtlasStatus/internal/config"
	"AtlasStatus/internal/metrics"
	"AtlasStatus/internal/recorder"
	"AtlasStatus/internal/scheduler"
	"AtlasStatus/internal/server"
	"AtlasStatus/internal/site"
)

func main() {
	renderOnce := flag.Bool("render", false, "render the static page once and exit")
	serve := flag.Bool("serve", false, "serve the interactive page (default when server.listen_addr is set)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] AtlasStatus starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init collector: http(s) sources go remote, everything else is read from the data dir
	remote := collector.NewHTTPFetcher(cfg.Proxy, cfg.FetchTimeout)
	local := collector.NewFileFetcher(cfg.DataDir)
	col := collector.NewCollector(remote, local)
	log.Printf("[INFO] data sources: soc=%s temperature=%s", cfg.Charts.SoC.Source, cfg.Charts.Temperature.Source)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	m := metrics.NewMetrics()
	st, err := site.New(cfg, col, rec, m)
	if err != nil {
		log.Fatalf("[FATAL] init site: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serving := *serve || cfg.Server.ListenAddr != ""
	if *renderOnce || (!serving && cfg.Schedule.RenderCron == "") {
		if err := st.RenderStatic(ctx); err != nil {
			log.Fatalf("[FATAL] render: %v", err)
		}
		log.Println("[INFO] AtlasStatus rendered, exiting")
		return
	}

	// Init scheduler
	if cfg.Schedule.RenderCron != "" {
		sched := scheduler.NewScheduler(ctx, st)
		if err := sched.RegisterRender(cfg.Schedule.RenderCron); err != nil {
			log.Fatalf("[FATAL] register cron tasks: %v", err)
		}
		sched.Start()
		defer sched.Stop()

		if os.Getenv("RUN_ON_START") == "true" {
			log.Println("[INFO] RUN_ON_START enabled, rendering now")
			go sched.RunRenderNow()
		}
	}

	var srv *server.Server
	if serving {
		addr := cfg.Server.ListenAddr
		if addr == "" {
			addr = ":8080"
		}
		if err := st.Reload(ctx); err != nil {
			log.Fatalf("[FATAL] load page: %v", err)
		}
		srv = server.New(addr, st, m)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("[ERROR] %v", err)
				cancel()
			}
		}()
	}

	log.Println("[INFO] AtlasStatus is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] http shutdown: %v", err)
		}
		if err := st.SaveState(); err != nil {
			log.Printf("[WARN] save view state: %v", err)
		}
	}
	cancel()
	log.Println("[INFO] AtlasStatus stopped")
}
