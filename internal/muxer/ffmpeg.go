// Package muxer wraps the external ffmpeg binary behind the capture.Muxer
// interface so the assembler can be tested without spawning a process.
package muxer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// FFmpeg runs the concat demuxer in stream-copy mode: no re-encoding, the
// segments are joined byte-for-byte.
type FFmpeg struct {
	binary string
	log    *slog.Logger
}

// New returns an FFmpeg muxer. binary is the executable to invoke; empty
// means "ffmpeg" from PATH.
func New(binary string, log *slog.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, log: log}
}

// Args builds the ffmpeg argument list for concatenating the manifest into
// outputPath. -safe 0 allows the manifest to reference arbitrary paths.
func Args(manifestPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		outputPath,
	}
}

// Concat invokes ffmpeg and returns an error carrying the combined output
// when the exit status is non-zero.
func (f *FFmpeg) Concat(ctx context.Context, manifestPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, f.binary, Args(manifestPath, outputPath)...)
	f.log.Debug("running muxer", "cmd", cmd.String())

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", f.binary, err, tail(out, 2048))
	}
	return nil
}

// tail returns at most n trailing bytes of b; ffmpeg errors sit at the end
// of its output.
func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
