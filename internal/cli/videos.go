package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/devbydaniel/pipcam/internal/output"
)

func NewVideosCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "videos",
		Aliases: []string{"list"},
		Short:   "List playable videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)

			if len(deps.App.Videos) == 0 {
				formatter.Info("No videos found")
				return nil
			}

			formatter.VideoListHeader()
			for _, v := range deps.App.Videos {
				formatter.VideoListItem(v)
			}
			return nil
		},
	}
}
