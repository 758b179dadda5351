package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "iris.onnx")
	require.NoError(t, os.WriteFile(artifact, []byte("v1"), 0o644))

	var reloads atomic.Int32
	w, err := NewWatcher(artifact, func() error {
		reloads.Add(1)
		return nil
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// give the watch loop a moment to start before touching the file
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(artifact, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		return reloads.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "iris.onnx")
	require.NoError(t, os.WriteFile(artifact, []byte("v1"), 0o644))

	var reloads atomic.Int32
	w, err := NewWatcher(artifact, func() error {
		reloads.Add(1)
		return nil
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	time.Sleep(200 * time.Millisecond)
	require.Zero(t, reloads.Load())
}

func TestWatcherSurvivesReloadFailure(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "iris.onnx")
	require.NoError(t, os.WriteFile(artifact, []byte("v1"), 0o644))

	var calls atomic.Int32
	w, err := NewWatcher(artifact, func() error {
		if calls.Add(1) == 1 {
			return errors.New("bad artifact")
		}
		return nil
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(artifact, []byte("v2"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(artifact, []byte("v3"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherMissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "iris.onnx"), func() error { return nil }, zerolog.Nop())
	require.Error(t, err)
}
