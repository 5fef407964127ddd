package recording

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MaxDuration is the default recording ceiling.
const MaxDuration = 5 * time.Minute

// RecordOptions are handed to the camera when a recording starts.
type RecordOptions struct {
	Quality     string
	MaxDuration time.Duration
	Mute        bool
}

// Camera is the front camera capability.
type Camera interface {
	Ready() bool
	// Record blocks until stop is closed or opts.MaxDuration elapses and
	// returns the path of the raw capture. stop may already be closed when
	// Record is called; the capture then ends as soon as it has started.
	Record(ctx context.Context, opts RecordOptions, stop <-chan struct{}) (string, error)
}

// FileSystem is the device filesystem as seen by the pipeline.
type FileSystem interface {
	Exists(path string) (bool, error)
	MkdirAll(path string) error
	Move(src, dst string) error
	Copy(src, dst string) error
	Remove(path string) error
}

// Profile is the fixed transcode target.
type Profile struct {
	Width        int
	Height       int
	FrameRate    int
	Bitrate      string // upper bound, e.g. "2M"
	Codec        string
	CRF          int
	AudioBitrate string
}

// DefaultProfile downsamples to 960x540 at 25fps with HEVC.
var DefaultProfile = Profile{
	Width:        960,
	Height:       540,
	FrameRate:    25,
	Bitrate:      "2M",
	Codec:        "libx265",
	CRF:          23,
	AudioBitrate: "128k",
}

// Transcoder compresses in into out using the given profile.
type Transcoder interface {
	Compress(ctx context.Context, in, out string, p Profile) error
}

// SaveOptions describe a gallery entry.
type SaveOptions struct {
	Type  string
	Album string
}

// Gallery is the system media gallery.
type Gallery interface {
	Save(ctx context.Context, path string, opts SaveOptions) error
}

// Layout holds the fixed roots the pipeline writes under.
type Layout struct {
	DocumentsDir string
	DownloadsDir string
	Album        string
}

// RecordingsDir is the app-private directory for temp and final recordings.
func (l Layout) RecordingsDir() string {
	return filepath.Join(l.DocumentsDir, "recordings")
}

// AlbumDownloadsDir is the public downloads folder for copies.
func (l Layout) AlbumDownloadsDir() string {
	return filepath.Join(l.DownloadsDir, l.Album)
}

func (l Layout) TempPath(ts int64) string {
	return filepath.Join(l.RecordingsDir(), fmt.Sprintf("temp_recording_%d.mp4", ts))
}

func (l Layout) TranscodePath(ts int64) string {
	return filepath.Join(l.RecordingsDir(), fmt.Sprintf("transcode_recording_%d.mp4", ts))
}

func (l Layout) FinalPath(ts int64) string {
	return filepath.Join(l.RecordingsDir(), fmt.Sprintf("recording_%d.mp4", ts))
}

func (l Layout) DownloadsPath(ts int64) string {
	return filepath.Join(l.AlbumDownloadsDir(), fmt.Sprintf("recording_%d.mp4", ts))
}

// Result describes one finished recording lifecycle.
type Result struct {
	ID        uuid.UUID
	Album     string
	StartedAt time.Time
	StoppedAt time.Time

	FinalPath     string
	DownloadsPath string

	Transcoded      bool
	DownloadsCopied bool
	GallerySaved    bool

	// Err is set only when no artifact survived.
	Err error
}

func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Message is the user-facing summary. Best-effort stage failures narrow the
// wording but never turn a success into a failure.
func (r Result) Message() string {
	if r.Err != nil {
		return "Recording completed but failed to save."
	}
	verb := "processed and saved"
	if !r.Transcoded {
		verb = "saved"
	}
	downloads := "Downloads/" + r.Album
	switch {
	case r.GallerySaved && r.DownloadsCopied:
		return fmt.Sprintf("Video has been %s to Gallery and %s.", verb, downloads)
	case r.GallerySaved:
		return fmt.Sprintf("Video has been %s to Gallery.", verb)
	case r.DownloadsCopied:
		return fmt.Sprintf("Video has been %s to %s.", verb, downloads)
	default:
		return fmt.Sprintf("Video has been %s to app storage.", verb)
	}
}
