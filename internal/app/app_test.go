package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbydaniel/pipcam/config"
	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/domain/video"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		DataDir:            filepath.Join(root, "data"),
		DownloadsDir:       filepath.Join(root, "Downloads"),
		GalleryDir:         filepath.Join(root, "Videos"),
		Album:              config.DefaultAlbum,
		DeviceFile:         filepath.Join(root, "device.toml"),
		SDKVersion:         34,
		CameraFormat:       "v4l2",
		CameraDevice:       filepath.Join(root, "video0"),
		CameraSize:         "720p",
		MaxDuration:        time.Minute,
		TranscodeTimeout:   time.Minute,
		Transcode:          config.TranscodeConfig{Width: 960, Height: 540, FrameRate: 25, Codec: "libx265", CRF: 23, AudioBitrate: "128k"},
		AutoRecord:         true,
		LogLevel:           "error",
		SpecialUnavailable: "granted",
	}
}

func TestNew_Wires(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, video.Samples, a.Videos)
	assert.Equal(t, 34, a.Permissions.Info().Version)
	assert.Equal(t, recording.Idle, a.Pipeline.State())
	assert.False(t, a.Pipeline.CameraReady(), "camera device does not exist")
	assert.NotNil(t, a.NewSession(true))
}

func TestNew_BadCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.VideosFile = filepath.Join(t.TempDir(), "videos.toml")
	require.NoError(t, os.WriteFile(cfg.VideosFile, []byte("[[video]]\ntitle = \"no uri\"\n"), 0o644))

	_, err := New(cfg)
	assert.ErrorContains(t, err, "loading videos")
}

func TestLoadVideos_WarnsWhenIndexIgnored(t *testing.T) {
	cfg := testConfig(t)
	cfg.VideosFile = filepath.Join(t.TempDir(), "videos.toml")
	cfg.VideosIndex = filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(cfg.VideosFile, []byte("[[video]]\nuri = \"a.mp4\"\n"), 0o644))

	var buf bytes.Buffer
	videos, err := loadVideos(cfg, log.NewStdLogger(&buf))
	require.NoError(t, err)
	assert.Len(t, videos, 1)
	assert.Contains(t, buf.String(), "videos_index")
	assert.Contains(t, buf.String(), "takes precedence")
}

type observerFunc func(id uuid.UUID, from, to recording.State)

func (f observerFunc) StateChanged(id uuid.UUID, from, to recording.State) { f(id, from, to) }

func TestStateRelay(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)

	var got []recording.State
	a.ObserveRecording(observerFunc(func(_ uuid.UUID, _, to recording.State) {
		got = append(got, to)
	}))
	a.relay.StateChanged(uuid.New(), recording.Idle, recording.Recording)
	a.ObserveRecording(nil)
	a.relay.StateChanged(uuid.New(), recording.Recording, recording.Stopped)

	assert.Equal(t, []recording.State{recording.Recording}, got)
}
