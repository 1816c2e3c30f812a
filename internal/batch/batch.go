// Package batch drives repeated captures from a CSV schedule, one row per
// show: date,time,hours. Invalid rows and failed captures are logged and
// skipped so a single bad show does not sink the rest of the schedule.
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"spinget/internal/capture"
)

var (
	timePattern  = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
	hoursPattern = regexp.MustCompile(`^[1-9][0-9]*$`)
)

// Capturer runs one capture. Satisfied by *capture.Service.
type Capturer interface {
	Run(ctx context.Context, req capture.ShowRequest, profile capture.StationProfile) (string, error)
}

// Runner executes a CSV schedule of captures against a single station.
type Runner struct {
	capturer Capturer
	log      *slog.Logger
}

// NewRunner returns a batch runner using capturer for each row.
func NewRunner(capturer Capturer, log *slog.Logger) *Runner {
	return &Runner{capturer: capturer, log: log}
}

// Run reads the schedule at csvPath and captures every valid row. It returns
// an error only if the file cannot be read at all, or with a summary error
// when one or more rows failed.
func (r *Runner) Run(ctx context.Context, csvPath string, profile capture.StationProfile, keep bool) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open schedule %s: %w", csvPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read schedule %s: %w", csvPath, err)
	}

	failed := 0
	for i, row := range rows {
		req, err := parseRow(row)
		if err != nil {
			r.log.Warn("skipping schedule row", "row", i+1, "error", err)
			failed++
			continue
		}
		req.Station = profile.ID
		req.Keep = keep

		r.log.Info("running scheduled capture", "row", i+1, "date", req.Date, "time", req.Time, "hours", req.Hours)
		if _, err := r.capturer.Run(ctx, req, profile); err != nil {
			r.log.Error("scheduled capture failed", "row", i+1, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d schedule rows failed", failed, len(rows))
	}
	return nil
}

// parseRow validates one date,time,hours record.
func parseRow(row []string) (capture.ShowRequest, error) {
	if len(row) != 3 {
		return capture.ShowRequest{}, fmt.Errorf("expected 3 fields, got %d", len(row))
	}

	date := strings.TrimSpace(row[0])
	timeArg := strings.TrimSpace(row[1])
	hoursArg := strings.TrimSpace(row[2])
	if !timePattern.MatchString(timeArg) {
		return capture.ShowRequest{}, fmt.Errorf("invalid time %q, expected HH:MM", timeArg)
	}
	if !hoursPattern.MatchString(hoursArg) {
		return capture.ShowRequest{}, fmt.Errorf("invalid hours %q", hoursArg)
	}
	hours, err := strconv.Atoi(hoursArg)
	if err != nil {
		return capture.ShowRequest{}, fmt.Errorf("invalid hours %q: %w", hoursArg, err)
	}

	return capture.ShowRequest{Date: date, Time: timeArg, Hours: hours}, nil
}
