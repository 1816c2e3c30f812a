package muxer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	got := Args("/tmp/show.mp4.index", "/tmp/show.mp4")
	assert.Equal(t, []string{
		"-hide_banner",
		"-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", "/tmp/show.mp4.index",
		"-c", "copy",
		"/tmp/show.mp4",
	}, got)
}

func TestFFmpeg_Concat_success(t *testing.T) {
	// "true" ignores the ffmpeg arguments and exits 0, which is all Concat
	// inspects on the happy path.
	f := New("true", slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := f.Concat(context.Background(), "manifest.index", "out.mp4")
	assert.NoError(t, err)
}

func TestFFmpeg_Concat_nonZeroExit(t *testing.T) {
	f := New("false", slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := f.Concat(context.Background(), "manifest.index", "out.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false failed")
}

func TestFFmpeg_Concat_missingBinary(t *testing.T) {
	f := New("definitely-not-ffmpeg-binary", slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := f.Concat(context.Background(), "manifest.index", "out.mp4")
	assert.Error(t, err)
}

func TestNew_defaultBinary(t *testing.T) {
	f := New("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "ffmpeg", f.binary)
}
