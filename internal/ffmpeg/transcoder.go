package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/devbydaniel/pipcam/internal/domain/recording"
)

// Transcoder compresses recordings with ffmpeg.
type Transcoder struct{}

func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// TranscodeArgs builds the ffmpeg command line that re-encodes in into out.
func TranscodeArgs(in, out string, p recording.Profile) []string {
	args := []string{
		"-i", in,
		"-vf", fmt.Sprintf("scale=%d:%d", p.Width, p.Height),
		"-r", strconv.Itoa(p.FrameRate),
		"-c:v", p.Codec,
		"-preset", "medium",
		"-crf", strconv.Itoa(p.CRF),
	}
	if p.Bitrate != "" {
		args = append(args, "-maxrate", p.Bitrate, "-bufsize", p.Bitrate)
	}
	if p.Codec == "libx265" {
		// Apple players only accept HEVC tagged as hvc1.
		args = append(args, "-tag:v", "hvc1")
	}
	return append(args,
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-movflags", "+faststart",
		"-y",
		out,
	)
}

// Compress runs ffmpeg until it finishes or ctx is done.
func (t *Transcoder) Compress(ctx context.Context, in, out string, p recording.Profile) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", TranscodeArgs(in, out, p)...)
	output, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return fmt.Errorf("transcoding: %w", ctx.Err())
	}
	if err != nil {
		return fmt.Errorf("transcoding: %w\n%s", err, string(output))
	}
	return nil
}
