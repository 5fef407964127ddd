package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/devbydaniel/pipcam/internal/domain/recording"
)

var qualitySizes = map[string]string{
	"480p":  "640x480",
	"720p":  "1280x720",
	"1080p": "1920x1080",
}

// Camera records the front camera with ffmpeg.
type Camera struct {
	Format      string // v4l2, avfoundation or dshow
	Device      string
	AudioDevice string
	CaptureDir  string
	LookPath    LookPathFunc

	mu   sync.Mutex
	busy bool
}

// Ready reports whether ffmpeg is installed and the capture device is present.
func (c *Camera) Ready() bool {
	if CheckFFmpeg(c.LookPath) != nil {
		return false
	}
	if c.Format == "v4l2" {
		if _, err := os.Stat(c.Device); err != nil {
			return false
		}
	}
	return c.Device != ""
}

// Args builds the capture command line.
func (c *Camera) Args(out string, opts recording.RecordOptions) []string {
	input := c.Device
	if c.Format == "avfoundation" && !opts.Mute && c.AudioDevice != "" {
		input = c.Device + ":" + c.AudioDevice
	}
	args := []string{"-f", c.Format}
	if size, ok := qualitySizes[opts.Quality]; ok {
		args = append(args, "-video_size", size)
	}
	args = append(args, "-i", input)
	if c.Format != "avfoundation" && !opts.Mute && c.AudioDevice != "" {
		args = append(args, "-f", audioFormat(c.Format), "-i", c.AudioDevice)
	}
	if opts.MaxDuration > 0 {
		args = append(args, "-t", strconv.FormatFloat(opts.MaxDuration.Seconds(), 'f', -1, 64))
	}
	if opts.Mute {
		args = append(args, "-an")
	}
	return append(args,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-y",
		out,
	)
}

func audioFormat(videoFormat string) string {
	switch videoFormat {
	case "dshow":
		return "dshow"
	default:
		return "pulse"
	}
}

// Record blocks until stop is closed, opts.MaxDuration elapses or ctx is
// cancelled, and returns the path of the capture. A stop closed before ffmpeg
// is up is delivered as soon as the process starts. Cancellation ends the
// capture like a stop; only an empty capture is reported as ctx.Err().
func (c *Camera) Record(ctx context.Context, opts recording.RecordOptions, stop <-chan struct{}) (string, error) {
	dir := c.CaptureDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating capture directory: %w", err)
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", errors.New("camera is already recording")
	}
	c.busy = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	out := filepath.Join(dir, "capture-"+uuid.NewString()+".mp4")
	logPath := out + ".ffmpeg.log"

	cmd := exec.CommandContext(ctx, "ffmpeg", c.Args(out, opts)...)
	// SIGINT lets ffmpeg finalize the mp4 container.
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 10 * time.Second

	if logFile, err := os.Create(logPath); err == nil {
		cmd.Stderr = logFile
		defer logFile.Close()
	}

	if err := cmd.Start(); err != nil {
		_ = os.Remove(logPath)
		return "", fmt.Errorf("starting ffmpeg: %w", err)
	}

	var stopped atomic.Bool
	done := make(chan struct{})
	go func() {
		select {
		case <-stop:
			stopped.Store(true)
			if err := cmd.Process.Signal(os.Interrupt); err != nil {
				_ = cmd.Process.Kill()
			}
		case <-done:
		}
	}()

	err := cmd.Wait()
	close(done)

	captured := nonEmpty(out)
	if ctx.Err() != nil && !captured {
		removeCapture(out, logPath)
		return "", ctx.Err()
	}
	// ffmpeg exits non-zero after an interrupt even when the file is complete.
	if err != nil && !stopped.Load() && ctx.Err() == nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("recording: %w (see %s)", err, logPath)
	}
	if !captured {
		_ = os.Remove(out)
		return "", fmt.Errorf("recording produced no output (see %s)", logPath)
	}
	_ = os.Remove(logPath)
	return out, nil
}

func nonEmpty(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > 0
}

func removeCapture(out, logPath string) {
	_ = os.Remove(out)
	_ = os.Remove(logPath)
}
