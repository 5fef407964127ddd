package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devbydaniel/pipcam/internal/ffmpeg"
	"github.com/devbydaniel/pipcam/internal/output"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ok := true

			if err := ffmpeg.CheckFFmpeg(nil); err != nil {
				f.SetupCheck("ffmpeg", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("ffmpeg", true, "installed")
			}

			if err := ffmpeg.CheckFFplay(nil); err != nil {
				f.SetupCheck("ffplay", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("ffplay", true, "installed")
			}

			if deps.App.Pipeline.CameraReady() {
				f.SetupCheck("Camera", true, deps.Config.CameraDevice)
			} else {
				f.SetupCheck("Camera", false, fmt.Sprintf("%s (%s) not available", deps.Config.CameraDevice, deps.Config.CameraFormat))
				ok = false
			}

			res, err := deps.App.Permissions.CheckAll(cmd.Context())
			switch {
			case err != nil:
				f.SetupCheck("Permissions", false, err.Error())
				ok = false
			case res.Satisfied:
				f.SetupCheck("Permissions", true, "granted")
			default:
				f.SetupCheck("Permissions", false, "missing. Run 'pipcam permissions request'")
				ok = false
			}

			f.SetupCheck("Recordings directory", true, deps.Config.DataDir)
			f.SetupCheck("Downloads directory", true, deps.Config.DownloadsDir)
			f.SetupCheck("Gallery directory", true, deps.Config.GalleryDir)

			if ok {
				f.Success("\nAll prerequisites met. Ready to record!")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}
