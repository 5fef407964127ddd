package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	for _, k := range []string{
		"PIPCAM_DATA_DIR", "PIPCAM_DOWNLOADS_DIR", "PIPCAM_GALLERY_DIR",
		"PIPCAM_LOG_LEVEL", "PIPCAM_CAMERA_DEVICE", "PIPCAM_SDK_VERSION",
	} {
		t.Setenv(k, "")
	}
	return root
}

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, "config", "pipcam")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	root := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "data", "pipcam"), cfg.DataDir)
	assert.Equal(t, filepath.Join(root, "Downloads"), cfg.DownloadsDir)
	assert.Equal(t, filepath.Join(root, "config", "pipcam", "device.toml"), cfg.DeviceFile)
	assert.Equal(t, DefaultAlbum, cfg.Album)
	assert.Equal(t, 5*time.Minute, cfg.MaxDuration)
	assert.Equal(t, 10*time.Minute, cfg.TranscodeTimeout)
	assert.Equal(t, "libx265", cfg.Transcode.Codec)
	assert.Equal(t, 960, cfg.Transcode.Width)
	assert.True(t, cfg.AutoRecord)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "granted", cfg.SpecialUnavailable)
	assert.Empty(t, cfg.VideosFile)
	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, cfg.GalleryDir)
}

func TestLoad_File(t *testing.T) {
	root := isolate(t)
	writeConfig(t, root, `
data_dir = "~/pip"
album = "Clips"
sdk_version = 29
max_duration = "90s"
auto_record = false
special_unavailable = "denied"

[transcode]
codec = "libx264"
crf = 28
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "pip"), cfg.DataDir)
	assert.Equal(t, "Clips", cfg.Album)
	assert.Equal(t, 29, cfg.SDKVersion)
	assert.Equal(t, 90*time.Second, cfg.MaxDuration)
	assert.False(t, cfg.AutoRecord)
	assert.Equal(t, "denied", cfg.SpecialUnavailable)
	assert.Equal(t, "libx264", cfg.Transcode.Codec)
	assert.Equal(t, 28, cfg.Transcode.CRF)
	assert.Equal(t, 540, cfg.Transcode.Height)
}

func TestLoad_VideosFileDiscovered(t *testing.T) {
	root := isolate(t)
	writeConfig(t, root, "")
	videos := filepath.Join(root, "config", "pipcam", "videos.toml")
	require.NoError(t, os.WriteFile(videos, []byte(""), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, videos, cfg.VideosFile)
}

func TestLoad_EnvOverrides(t *testing.T) {
	root := isolate(t)
	writeConfig(t, root, `downloads_dir = "/nowhere"`)
	t.Setenv("PIPCAM_DOWNLOADS_DIR", filepath.Join(root, "dl"))
	t.Setenv("PIPCAM_SDK_VERSION", "33")
	t.Setenv("PIPCAM_CAMERA_DEVICE", "/dev/video2")
	t.Setenv("PIPCAM_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dl"), cfg.DownloadsDir)
	assert.Equal(t, 33, cfg.SDKVersion)
	assert.Equal(t, "/dev/video2", cfg.CameraDevice)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	root := isolate(t)
	require.NoError(t, os.Unsetenv("PIPCAM_SDK_VERSION"))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("PIPCAM_SDK_VERSION=30\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PIPCAM_SDK_VERSION") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.SDKVersion)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"duration": `max_duration = "soon"`,
		"policy":   `special_unavailable = "maybe"`,
		"level":    `log_level = "loud"`,
		"syntax":   `album = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			root := isolate(t)
			writeConfig(t, root, body)
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("sdk env", func(t *testing.T) {
		isolate(t)
		t.Setenv("PIPCAM_SDK_VERSION", "fourteen")
		_, err := Load()
		assert.Error(t, err)
	})
}
