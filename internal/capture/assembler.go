package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Muxer performs a lossless stream-copy concatenation of the files listed in
// a concat-demuxer manifest. Implemented by internal/muxer against ffmpeg;
// faked in tests.
type Muxer interface {
	Concat(ctx context.Context, manifestPath, outputPath string) error
}

// Assembler turns a frozen segment list into the final output file.
type Assembler struct {
	muxer Muxer
	log   *slog.Logger
}

// NewAssembler returns an assembler backed by the given muxer.
func NewAssembler(muxer Muxer, log *slog.Logger) *Assembler {
	return &Assembler{muxer: muxer, log: log}
}

// ManifestPath derives the manifest file path for an output file.
func ManifestPath(outputPath string) string {
	return outputPath + ".index"
}

// Assemble writes the concat manifest in strict ordinal order and invokes
// the muxer. Ordinal order is the one correctness-critical ordering in the
// whole pipeline: a scrambled manifest still muxes cleanly and produces a
// corrupted file with no error signal.
//
// On muxer failure the manifest and the segment cache are left in place for
// inspection and a later retry, regardless of removeIntermediates. Cleanup
// happens only after a confirmed success, and cleanup failures are logged
// rather than returned.
func (a *Assembler) Assemble(ctx context.Context, list SegmentList, outputPath string, removeIntermediates bool) error {
	manifest := ManifestPath(outputPath)
	a.log.Info("writing manifest", "path", manifest, "segments", len(list))

	var b strings.Builder
	for _, seg := range list {
		fmt.Fprintf(&b, "file %s\n", seg.CacheFile)
	}
	if err := os.WriteFile(manifest, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", manifest, err)
	}

	a.log.Info("concatenating", "output", outputPath)
	if err := a.muxer.Concat(ctx, manifest, outputPath); err != nil {
		return fmt.Errorf("mux %s: %w", outputPath, err)
	}

	if removeIntermediates {
		a.cleanup(list, manifest)
	}
	return nil
}

func (a *Assembler) cleanup(list SegmentList, manifest string) {
	a.log.Info("removing intermediate files", "count", len(list)+1)
	for _, seg := range list {
		if err := os.Remove(seg.CacheFile); err != nil {
			a.log.Warn("could not remove segment file", "file", seg.CacheFile, "error", err)
		}
	}
	if err := os.Remove(manifest); err != nil {
		a.log.Warn("could not remove manifest", "file", manifest, "error", err)
	}
}
