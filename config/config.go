package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const appName = "pipcam"

// DefaultAlbum is the gallery album and Downloads subfolder recordings go to.
const DefaultAlbum = "PipCam"

type TranscodeConfig struct {
	Width        int
	Height       int
	FrameRate    int
	Bitrate      string
	Codec        string
	CRF          int
	AudioBitrate string
}

type Config struct {
	DataDir      string // app documents root; recordings live under DataDir/recordings
	DownloadsDir string
	GalleryDir   string
	Album        string
	DeviceFile   string // permission grant file
	SDKVersion   int    // 0 means read it from the grant file

	CameraFormat string
	CameraDevice string
	CameraAudio  string
	CameraSize   string

	MaxDuration      time.Duration
	TranscodeTimeout time.Duration
	Transcode        TranscodeConfig
	AutoRecord       bool

	VideosFile  string
	VideosIndex string

	LogLevel           string
	SpecialUnavailable string // granted or denied
}

type fileConfig struct {
	DataDir            string `toml:"data_dir"`
	DownloadsDir       string `toml:"downloads_dir"`
	GalleryDir         string `toml:"gallery_dir"`
	Album              string `toml:"album"`
	DeviceFile         string `toml:"device_file"`
	SDKVersion         int    `toml:"sdk_version"`
	CameraFormat       string `toml:"camera_format"`
	CameraDevice       string `toml:"camera_device"`
	CameraAudio        string `toml:"camera_audio"`
	CameraSize         string `toml:"camera_size"`
	MaxDuration        string `toml:"max_duration"`
	TranscodeTimeout   string `toml:"transcode_timeout"`
	AutoRecord         *bool  `toml:"auto_record"`
	VideosFile         string `toml:"videos_file"`
	VideosIndex        string `toml:"videos_index"`
	LogLevel           string `toml:"log_level"`
	SpecialUnavailable string `toml:"special_unavailable"`

	Transcode struct {
		Width        int    `toml:"width"`
		Height       int    `toml:"height"`
		FrameRate    int    `toml:"frame_rate"`
		Bitrate      string `toml:"bitrate"`
		Codec        string `toml:"codec"`
		CRF          int    `toml:"crf"`
		AudioBitrate string `toml:"audio_bitrate"`
	} `toml:"transcode"`
}

func Load() (*Config, error) {
	// Values already in the environment win over .env files.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := defaults()

	if configPath := configFilePath("config.toml"); configPath != "" {
		if err := applyFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Ensure directories exist
	for _, dir := range []string{cfg.DataDir, cfg.DownloadsDir, cfg.GalleryDir, filepath.Dir(cfg.DeviceFile)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func defaults() *Config {
	home, _ := os.UserHomeDir()
	format, device := defaultCamera()
	cfg := &Config{
		DataDir:      defaultDataDir(home),
		DownloadsDir: filepath.Join(home, "Downloads"),
		GalleryDir:   filepath.Join(home, "Videos"),
		Album:        DefaultAlbum,
		DeviceFile:   filepath.Join(configDir(), "device.toml"),
		CameraFormat: format,
		CameraDevice: device,
		CameraSize:   "720p",

		MaxDuration:      5 * time.Minute,
		TranscodeTimeout: 10 * time.Minute,
		Transcode: TranscodeConfig{
			Width:        960,
			Height:       540,
			FrameRate:    25,
			Bitrate:      "2M",
			Codec:        "libx265",
			CRF:          23,
			AudioBitrate: "128k",
		},
		AutoRecord: true,

		VideosFile:         configFilePath("videos.toml"),
		LogLevel:           "warn",
		SpecialUnavailable: "granted",
	}
	if runtime.GOOS == "darwin" {
		cfg.GalleryDir = filepath.Join(home, "Movies")
	}
	return cfg
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	setPath(&cfg.DataDir, fc.DataDir)
	setPath(&cfg.DownloadsDir, fc.DownloadsDir)
	setPath(&cfg.GalleryDir, fc.GalleryDir)
	setPath(&cfg.DeviceFile, fc.DeviceFile)
	setPath(&cfg.VideosFile, fc.VideosFile)
	setPath(&cfg.VideosIndex, fc.VideosIndex)
	setString(&cfg.Album, fc.Album)
	setString(&cfg.CameraFormat, fc.CameraFormat)
	setString(&cfg.CameraDevice, fc.CameraDevice)
	setString(&cfg.CameraAudio, fc.CameraAudio)
	setString(&cfg.CameraSize, fc.CameraSize)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.SpecialUnavailable, fc.SpecialUnavailable)
	if fc.SDKVersion > 0 {
		cfg.SDKVersion = fc.SDKVersion
	}
	if fc.AutoRecord != nil {
		cfg.AutoRecord = *fc.AutoRecord
	}
	if err := setDuration(&cfg.MaxDuration, "max_duration", fc.MaxDuration); err != nil {
		return err
	}
	if err := setDuration(&cfg.TranscodeTimeout, "transcode_timeout", fc.TranscodeTimeout); err != nil {
		return err
	}

	t := &cfg.Transcode
	setInt(&t.Width, fc.Transcode.Width)
	setInt(&t.Height, fc.Transcode.Height)
	setInt(&t.FrameRate, fc.Transcode.FrameRate)
	setInt(&t.CRF, fc.Transcode.CRF)
	setString(&t.Bitrate, fc.Transcode.Bitrate)
	setString(&t.Codec, fc.Transcode.Codec)
	setString(&t.AudioBitrate, fc.Transcode.AudioBitrate)
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PIPCAM_DATA_DIR"); v != "" {
		cfg.DataDir = expandTilde(v)
	}
	if v := os.Getenv("PIPCAM_DOWNLOADS_DIR"); v != "" {
		cfg.DownloadsDir = expandTilde(v)
	}
	if v := os.Getenv("PIPCAM_GALLERY_DIR"); v != "" {
		cfg.GalleryDir = expandTilde(v)
	}
	if v := os.Getenv("PIPCAM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PIPCAM_CAMERA_DEVICE"); v != "" {
		cfg.CameraDevice = v
	}
	if v := os.Getenv("PIPCAM_SDK_VERSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PIPCAM_SDK_VERSION: %w", err)
		}
		cfg.SDKVersion = n
	}
	return nil
}

func (c *Config) validate() error {
	switch c.SpecialUnavailable {
	case "granted", "denied":
	default:
		return fmt.Errorf("special_unavailable must be granted or denied, got %q", c.SpecialUnavailable)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.MaxDuration <= 0 {
		return fmt.Errorf("max_duration must be positive")
	}
	if c.Album == "" {
		return fmt.Errorf("album must not be empty")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPath(dst *string, v string) {
	if v != "" {
		*dst = expandTilde(v)
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func defaultCamera() (format, device string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", "0"
	case "windows":
		return "dshow", "video=Integrated Camera"
	default:
		return "v4l2", "/dev/video0"
	}
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appName)
	}
	return filepath.Join(".", "."+appName)
}

// configFilePath returns name inside the config directory, or "" if it does not exist.
func configFilePath(name string) string {
	path := filepath.Join(configDir(), name)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func defaultDataDir(home string) string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if home != "" {
		return filepath.Join(home, ".local", "share", appName)
	}
	return filepath.Join(".", appName)
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
