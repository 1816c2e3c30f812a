// Command spinget captures a bounded slice of a station's live broadcast
// from its ARK segment archive and joins it into a single media file.
//
// Usage:
//
//	spinget [flags] MM/DD/YYYY HH:MM HOURS
//	spinget [flags] -batch schedule.csv
//
// Station profiles come from a JSON stations file; runtime defaults from the
// environment or a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"spinget/internal/ark"
	"spinget/internal/batch"
	"spinget/internal/capture"
	"spinget/internal/muxer"
	"spinget/internal/platform/config"
	"spinget/internal/platform/logger"
	"spinget/internal/platform/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		stationFlag = flag.String("station", "", "station id (default from STATION env)")
		keepFlag    = flag.Bool("keep", false, "keep segment cache and manifest after a successful mux")
		batchFlag   = flag.String("batch", "", "capture every date,time,hours row of this CSV schedule")
		envFlag     = flag.String("env", "", "load environment from this file instead of .env")
	)
	flag.Usage = usage
	flag.Parse()

	if *envFlag != "" {
		if err := config.Load(*envFlag); err != nil {
			fmt.Fprintf(os.Stderr, "spinget: %v\n", err)
			return 1
		}
	} else {
		_ = config.Load()
	}

	log := logger.New(
		config.GetEnv("LOG_LEVEL", "info"),
		config.GetEnv("LOG_FORMAT", "text"),
		config.GetEnv("LOG_FILE", ""),
	)

	stations, err := config.LoadStations(config.GetEnv("STATIONS_FILE", "stations.json"))
	if err != nil {
		log.Error("station configuration failed", "error", err)
		return 1
	}

	stationID := *stationFlag
	if stationID == "" {
		stationID = config.GetEnv("STATION", "")
	}
	profile, err := stations.Lookup(stationID)
	if err != nil {
		log.Error("station lookup failed", "error", err)
		return 1
	}

	cacheDir := config.GetEnv("CACHE_DIR", ".")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		log.Error("cache directory failed", "dir", cacheDir, "error", err)
		return 1
	}

	met := metrics.New()
	if addr := config.GetEnv("METRICS_ADDR", ""); addr != "" {
		go serveMetrics(addr, met, log)
	}

	httpClient := &http.Client{
		Timeout: time.Duration(config.GetEnvInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
	}
	userAgent := config.GetEnv("USER_AGENT", "spinget/1.0")

	svc := capture.NewService(
		capture.NewResolver(),
		capture.NewWalker(ark.NewClient(httpClient, log, userAgent), log, met, cacheDir),
		capture.NewFetcher(httpClient, log, met, config.GetEnvInt("FETCH_WORKERS", capture.DefaultFetchWorkers)),
		capture.NewAssembler(muxer.New(config.GetEnv("FFMPEG_BIN", "ffmpeg"), log), log),
		log,
		met,
		config.GetEnv("OUTPUT_DIR", "."),
	)

	ctx := context.Background()

	if *batchFlag != "" {
		runner := batch.NewRunner(svc, log)
		if err := runner.Run(ctx, *batchFlag, profile, *keepFlag); err != nil {
			log.Error("batch capture finished with failures", "error", err)
			return 1
		}
		return 0
	}

	req, err := requestFromArgs(flag.Args(), stationID, *keepFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spinget: %v\n", err)
		usage()
		return 2
	}

	output, err := svc.Run(ctx, req, profile)
	if err != nil {
		log.Error("capture failed", "error", err)
		if errors.Is(err, capture.ErrIndexNotFound) {
			fmt.Fprintln(os.Stderr, "The index for that time is not available yet; try again later.")
		}
		return 1
	}

	fmt.Printf("Done! Output written to %s\n", output)
	return 0
}

// requestFromArgs builds a ShowRequest from positional DATE TIME HOURS args.
func requestFromArgs(args []string, station string, keep bool) (capture.ShowRequest, error) {
	if len(args) != 3 {
		return capture.ShowRequest{}, fmt.Errorf("expected MM/DD/YYYY HH:MM HOURS, got %d arguments", len(args))
	}
	hours, err := strconv.Atoi(args[2])
	if err != nil {
		return capture.ShowRequest{}, fmt.Errorf("hours must be a number: %q", args[2])
	}
	return capture.ShowRequest{
		Station: station,
		Date:    args[0],
		Time:    args[1],
		Hours:   hours,
		Keep:    keep,
	}, nil
}

// serveMetrics exposes the Prometheus registry for long batch runs.
func serveMetrics(addr string, met *metrics.Metrics, log *slog.Logger) {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Get("/metrics", met.Handler().ServeHTTP)
	log.Info("metrics listener starting", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error("metrics listener failed", "error", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  spinget [flags] MM/DD/YYYY HH:MM HOURS
  spinget [flags] -batch schedule.csv

Flags:
`)
	flag.PrintDefaults()
}
