package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/spf13/cobra"

	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/domain/video"
	"github.com/devbydaniel/pipcam/internal/ffmpeg"
	"github.com/devbydaniel/pipcam/internal/output"
)

func NewPlayCmd(deps *Dependencies) *cobra.Command {
	var noRecord bool
	var hideCamera bool

	cmd := &cobra.Command{
		Use:   "play <video-id>",
		Short: "Play a video and record the camera alongside",
		Long:  "Play a video with ffplay. Recording starts when playback starts and stops when it ends.\nPress Enter to toggle recording manually.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			v, err := video.Find(deps.App.Videos, args[0])
			if err != nil {
				return err
			}
			if err := ffmpeg.CheckFFplay(nil); err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			autoRecord := deps.Config.AutoRecord && !noRecord
			if autoRecord || !hideCamera {
				if err := requirePermissions(sigCtx, deps, formatter); err != nil {
					return err
				}
			}

			deps.App.ObserveRecording(formatter)
			defer deps.App.ObserveRecording(nil)

			session := deps.App.NewSession(autoRecord)
			session.SetCameraVisible(!hideCamera)
			if !hideCamera && !deps.App.Pipeline.CameraReady() {
				formatter.Warning("Camera not ready; playing without recording")
			}

			go toggleOnEnter(cmd.Context(), os.Stdin, session.Toggle, formatter)

			formatter.NowPlaying(v, autoRecord)
			playErr := deps.App.Player.Play(sigCtx, v.SourceURI, v.Title, func() {
				if session.SetPlaying(cmd.Context(), true) {
					formatter.RecordingStarted(deps.Config.MaxDuration)
				}
			})

			if err := session.End(); err != nil {
				formatter.Warning(err.Error())
			}
			session.Close()
			for res := range session.Results() {
				formatter.RecordingSaved(res)
			}
			return playErr
		},
	}

	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Do not start recording when playback starts")
	cmd.Flags().BoolVar(&hideCamera, "hide-camera", false, "Hide the camera preview (disables auto-record)")

	return cmd
}

// toggleOnEnter flips recording on every line read from r. Rejected toggles
// are reported and the loop keeps listening until the session is closed.
func toggleOnEnter(ctx context.Context, r io.Reader, toggle func(context.Context) error, f *output.Formatter) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		err := toggle(ctx)
		if errors.Is(err, recording.ErrSessionClosed) {
			return
		}
		if err != nil {
			f.Warning(errors.FromError(err).Message)
		}
	}
}
