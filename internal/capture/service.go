package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"spinget/internal/platform/metrics"
)

// Service runs the capture pipeline: resolve the start time, walk the index,
// fetch the segments, assemble the output. Each stage is sequential; only
// the fetcher is internally concurrent.
type Service struct {
	resolver  *Resolver
	walker    *Walker
	fetcher   *Fetcher
	assembler *Assembler
	log       *slog.Logger
	metrics   *metrics.Metrics
	outputDir string
}

// NewService wires the pipeline stages together. metrics may be nil.
func NewService(resolver *Resolver, walker *Walker, fetcher *Fetcher, assembler *Assembler, log *slog.Logger, m *metrics.Metrics, outputDir string) *Service {
	return &Service{
		resolver:  resolver,
		walker:    walker,
		fetcher:   fetcher,
		assembler: assembler,
		log:       log,
		metrics:   m,
		outputDir: outputDir,
	}
}

// Run captures one show and returns the output file path. Any stage failure
// aborts the remaining stages; the segment cache is never invalidated by a
// failure, so rerunning the same request resumes where it stopped.
func (s *Service) Run(ctx context.Context, req ShowRequest, profile StationProfile) (string, error) {
	log := s.log.With("run_id", uuid.NewString(), "station", profile.ID)
	s.metrics.IncCapturesStarted()

	if err := req.Validate(); err != nil {
		s.metrics.IncCapturesFailed()
		return "", err
	}

	anchor, err := s.resolver.Resolve(req, profile)
	if err != nil {
		s.metrics.IncCapturesFailed()
		return "", fmt.Errorf("resolve start time: %w", err)
	}
	log.Info("show start resolved", "show_id", anchor.ShowID(), "hours", req.Hours)

	list, err := s.walker.Accumulate(ctx, profile, anchor, req.RequiredSeconds())
	if err != nil {
		s.metrics.IncCapturesFailed()
		return "", fmt.Errorf("walk index: %w", err)
	}
	s.metrics.AddSegmentsDiscovered(len(list))

	log.Info("downloading segments", "count", len(list))
	if _, ok := s.fetcher.FetchAll(ctx, list); !ok {
		s.metrics.IncCapturesFailed()
		return "", ErrFetchIncomplete
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		s.metrics.IncCapturesFailed()
		return "", fmt.Errorf("create output dir: %w", err)
	}
	output := DeriveOutputPath(s.outputDir, profile.Shortcode, anchor.ShowID(), req.Hours)

	if err := s.assembler.Assemble(ctx, list, output, !req.Keep); err != nil {
		s.metrics.IncCapturesFailed()
		return "", fmt.Errorf("assemble output: %w", err)
	}

	s.metrics.IncCapturesSucceeded()
	log.Info("capture complete", "output", output)
	return output, nil
}
