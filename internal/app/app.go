package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/devbydaniel/pipcam/config"
	"github.com/devbydaniel/pipcam/internal/device"
	"github.com/devbydaniel/pipcam/internal/domain/permission"
	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/domain/video"
	"github.com/devbydaniel/pipcam/internal/ffmpeg"
	"github.com/devbydaniel/pipcam/internal/fsx"
	"github.com/devbydaniel/pipcam/internal/gallery"
)

type App struct {
	Permissions *permission.Engine
	Pipeline    *recording.Pipeline
	Camera      *ffmpeg.Camera
	Player      *ffmpeg.Player
	Gallery     *gallery.Gallery
	Videos      []video.Video
	Logger      log.Logger

	relay *stateRelay
}

func New(cfg *config.Config) (*App, error) {
	logger := NewLogger(cfg.LogLevel)

	videos, err := loadVideos(cfg, logger)
	if err != nil {
		return nil, err
	}

	policy := permission.AssumeGranted
	if cfg.SpecialUnavailable == "denied" {
		policy = permission.AssumeDenied
	}
	dev := device.New(cfg.DeviceFile, cfg.SDKVersion, os.Stdin, os.Stdout)
	engine := permission.NewEngine(dev,
		permission.WithUnavailablePolicy(policy),
		permission.WithLogger(log.With(logger, "module", "permission")),
	)

	camera := &ffmpeg.Camera{
		Format:      cfg.CameraFormat,
		Device:      cfg.CameraDevice,
		AudioDevice: cfg.CameraAudio,
		CaptureDir:  filepath.Join(os.TempDir(), "pipcam"),
	}
	gal := gallery.New(cfg.GalleryDir)
	relay := &stateRelay{log: log.NewHelper(log.With(logger, "module", "recording"))}

	pipeline := recording.NewPipeline(camera, fsx.New(), ffmpeg.NewTranscoder(), gal,
		recording.Layout{
			DocumentsDir: cfg.DataDir,
			DownloadsDir: cfg.DownloadsDir,
			Album:        cfg.Album,
		},
		recording.WithProfile(profile(cfg.Transcode)),
		recording.WithMaxDuration(cfg.MaxDuration),
		recording.WithQuality(cfg.CameraSize),
		recording.WithTranscodeTimeout(cfg.TranscodeTimeout),
		recording.WithObserver(relay),
		recording.WithLogger(log.With(logger, "module", "recording")),
	)

	return &App{
		Permissions: engine,
		Pipeline:    pipeline,
		Camera:      camera,
		Player:      ffmpeg.NewPlayer(),
		Gallery:     gal,
		Videos:      videos,
		Logger:      logger,
		relay:       relay,
	}, nil
}

// NewLogger builds the process logger filtered at level.
func NewLogger(level string) log.Logger {
	logger := log.With(log.NewStdLogger(os.Stderr),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
	)
	return log.NewFilter(logger, log.FilterLevel(log.ParseLevel(level)))
}

// NewSession couples a playback to the pipeline.
func (a *App) NewSession(autoRecord bool) *recording.Session {
	return recording.NewSession(a.Pipeline, autoRecord, log.With(a.Logger, "module", "playback"))
}

// ObserveRecording routes pipeline state changes to o until replaced.
func (a *App) ObserveRecording(o recording.Observer) {
	a.relay.set(o)
}

func loadVideos(cfg *config.Config, logger log.Logger) ([]video.Video, error) {
	if cfg.VideosFile != "" && cfg.VideosIndex != "" {
		log.NewHelper(logger).Warnf("videos_index %s ignored: %s takes precedence", cfg.VideosIndex, cfg.VideosFile)
	}
	videos, err := video.Load(cfg.VideosFile, cfg.VideosIndex)
	if err != nil {
		return nil, fmt.Errorf("loading videos: %w", err)
	}
	return videos, nil
}

func profile(t config.TranscodeConfig) recording.Profile {
	return recording.Profile{
		Width:        t.Width,
		Height:       t.Height,
		FrameRate:    t.FrameRate,
		Bitrate:      t.Bitrate,
		Codec:        t.Codec,
		CRF:          t.CRF,
		AudioBitrate: t.AudioBitrate,
	}
}

type stateRelay struct {
	log *log.Helper

	mu     sync.RWMutex
	target recording.Observer
}

func (r *stateRelay) set(o recording.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = o
}

func (r *stateRelay) StateChanged(id uuid.UUID, from, to recording.State) {
	r.log.Debugw("msg", "state changed", "recording", id.String(), "from", from.String(), "to", to.String())
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target != nil {
		target.StateChanged(id, from, to)
	}
}
