package cli

import (
	"github.com/spf13/cobra"

	"github.com/devbydaniel/pipcam/config"
	"github.com/devbydaniel/pipcam/internal/app"
	"github.com/devbydaniel/pipcam/internal/version"
)

type Dependencies struct {
	App    *app.App
	Config *config.Config
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pipcam",
		Short: "Record yourself while watching videos",
		Long:  "A CLI tool that plays videos and records the front camera alongside, then compresses and archives the recording to the gallery and Downloads.",
	}

	rootCmd.Version = version.Get().Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(NewPermissionsCmd(deps))
	rootCmd.AddCommand(NewVideosCmd(deps))
	rootCmd.AddCommand(NewPlayCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}
