package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/devbydaniel/pipcam/internal/domain/permission"
	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/domain/video"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5m00s", formatDuration(5*time.Minute))
	assert.Equal(t, "42s", formatDuration(41600*time.Millisecond))
	assert.Equal(t, "1h02m03s", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}

func TestRecordingSaved(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)

	f.RecordingSaved(recording.Result{
		Album:           "PipCam",
		FinalPath:       "/docs/recordings/recording_1.mp4",
		DownloadsPath:   "/dl/PipCam/recording_1.mp4",
		Transcoded:      true,
		DownloadsCopied: true,
		GallerySaved:    true,
	})
	assert.Contains(t, buf.String(), "✅ Video has been processed and saved to Gallery and Downloads/PipCam.")
	assert.Contains(t, buf.String(), "/dl/PipCam/recording_1.mp4")

	buf.Reset()
	f.RecordingSaved(recording.Result{Err: errors.New("disk full")})
	assert.Contains(t, buf.String(), "❌ Recording completed but failed to save.")
	assert.Contains(t, buf.String(), "disk full")
}

func TestStateChanged(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	id := uuid.New()

	f.StateChanged(id, recording.Recording, recording.Stopped)
	f.StateChanged(id, recording.Stopped, recording.PersistedTemp)
	f.StateChanged(id, recording.PersistedTemp, recording.Transcoding)

	assert.Equal(t, "💾 Saving recording...\n🎞️  Processing video...\n", buf.String())
}

func TestPermissionReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	info := permission.Classify(34)

	f.PermissionReport(&permission.Result{
		Info: info,
		Status: permission.Status{
			permission.Camera:          true,
			permission.FineLocation:    false,
			permission.CoarseLocation:  true,
			permission.ReadMediaVideo:  true,
			permission.ReadMediaImages: true,
			permission.ManageStorage:   false,
		},
		Satisfied: true,
	})

	out := buf.String()
	assert.Contains(t, out, "SDK 34, granular-media storage")
	assert.Contains(t, out, "✅ Camera (required)")
	assert.Contains(t, out, "All required permissions granted")
}

func TestDeniedHint(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)

	f.DeniedHint(nil, true)
	assert.Empty(t, buf.String())

	f.DeniedHint([]permission.Key{permission.Camera}, true)
	assert.Contains(t, buf.String(), "Missing: Camera")
	assert.Contains(t, buf.String(), "pipcam permissions settings")
}

func TestVideoListItem(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)

	f.VideoListItem(video.Video{ID: "1", Title: "Intro", Duration: "2:30", Size: "15 MB"})
	f.VideoListItem(video.Video{ID: "2", Title: "Bare"})

	assert.Equal(t, "  1   Intro (2:30, 15 MB)\n  2   Bare\n", buf.String())
}
