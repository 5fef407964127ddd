package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devbydaniel/pipcam/internal/domain/recording"
	"github.com/devbydaniel/pipcam/internal/output"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Record the camera until Ctrl+C",
		Long:  "Record from the front camera in the foreground. Ctrl+C stops the recording, which is then compressed and saved to the gallery and Downloads.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := requirePermissions(sigCtx, deps, formatter); err != nil {
				return err
			}

			deps.App.ObserveRecording(formatter)
			defer deps.App.ObserveRecording(nil)

			// The recording must outlive the signal context so Ctrl+C stops it
			// cleanly instead of aborting it.
			results, err := deps.App.Pipeline.Start(cmd.Context())
			if err != nil {
				return err
			}
			startedAt := time.Now()
			formatter.RecordingStarted(deps.Config.MaxDuration)

			var res recording.Result
			select {
			case <-sigCtx.Done():
				formatter.RecordingStopped(time.Since(startedAt))
				if err := deps.App.Pipeline.Stop(); err != nil {
					return err
				}
				res = <-results
			case res = <-results:
				if res.Err == nil {
					formatter.Info("Maximum recording duration reached")
				}
			}

			formatter.RecordingSaved(res)
			return res.Err
		},
	}
}
