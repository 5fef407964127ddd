package gallery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbydaniel/pipcam/internal/domain/recording"
)

func TestSave_CopiesAndIndexes(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(t.TempDir(), "recording_1.mp4")
	require.NoError(t, os.WriteFile(src, []byte("video"), 0o644))

	g := New(root)
	g.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, g.Save(context.Background(), src, recording.SaveOptions{Type: "video", Album: "PipCam"}))

	b, err := os.ReadFile(filepath.Join(root, "PipCam", "recording_1.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "video", string(b))
	assert.FileExists(t, src)

	entries, err := g.Entries("PipCam")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "recording_1.mp4", entries[0].Name)
	assert.Equal(t, "video", entries[0].Type)
	assert.Equal(t, src, entries[0].Source)
	assert.NotEmpty(t, entries[0].ID)
	assert.True(t, entries[0].SavedAt.Equal(g.now()))
}

func TestSave_AppendsToIndex(t *testing.T) {
	root := t.TempDir()
	srcDir := t.TempDir()
	g := New(root)

	for _, name := range []string{"a.mp4", "b.mp4"} {
		src := filepath.Join(srcDir, name)
		require.NoError(t, os.WriteFile(src, []byte(name), 0o644))
		require.NoError(t, g.Save(context.Background(), src, recording.SaveOptions{Type: "video", Album: "PipCam"}))
	}

	entries, err := g.Entries("PipCam")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b.mp4", entries[1].Name)
}

func TestSave_Rejects(t *testing.T) {
	g := New(t.TempDir())
	src := filepath.Join(t.TempDir(), "a.mp4")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	assert.Error(t, g.Save(context.Background(), src, recording.SaveOptions{Type: "audio", Album: "PipCam"}))
	assert.Error(t, g.Save(context.Background(), src, recording.SaveOptions{Type: "video"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Save(ctx, src, recording.SaveOptions{Type: "video", Album: "PipCam"}), context.Canceled)

	assert.Error(t, g.Save(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), recording.SaveOptions{Type: "video", Album: "PipCam"}))
}

func TestEntries_EmptyAlbum(t *testing.T) {
	entries, err := New(t.TempDir()).Entries("nothing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
