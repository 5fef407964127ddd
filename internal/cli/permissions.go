package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/devbydaniel/pipcam/internal/domain/permission"
	"github.com/devbydaniel/pipcam/internal/output"
)

func NewPermissionsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Show which permissions are required and granted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPermissionsCheck(cmd.Context(), deps, output.NewFormatter(os.Stdout))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check the current permission state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPermissionsCheck(cmd.Context(), deps, output.NewFormatter(os.Stdout))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "request",
		Short: "Request every required permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			res, err := deps.App.Permissions.RequestAll(cmd.Context())
			if err != nil {
				return err
			}
			f.PermissionReport(res)
			f.DeniedHint(permission.Denied(res.Status, res.Info), permission.NeedsSettings(res.Info))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "settings",
		Short: "Open the permission settings, then re-check",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			if err := deps.App.Permissions.OpenSettings(cmd.Context()); err != nil {
				return err
			}
			return runPermissionsCheck(cmd.Context(), deps, f)
		},
	})

	return cmd
}

func runPermissionsCheck(ctx context.Context, deps *Dependencies, f *output.Formatter) error {
	res, err := deps.App.Permissions.CheckAll(ctx)
	if err != nil {
		return err
	}
	f.PermissionReport(res)
	f.DeniedHint(permission.Denied(res.Status, res.Info), permission.NeedsSettings(res.Info))
	return nil
}

// requirePermissions checks the verdict and asks for missing permissions once.
func requirePermissions(ctx context.Context, deps *Dependencies, f *output.Formatter) error {
	res, err := deps.App.Permissions.CheckAll(ctx)
	if err != nil {
		return err
	}
	if res.Satisfied {
		return nil
	}

	f.Info("PipCam needs a few permissions to record")
	res, err = deps.App.Permissions.RequestAll(ctx)
	if err != nil {
		return err
	}
	if res.Satisfied {
		return nil
	}
	f.Error("Required permissions were not granted")
	f.DeniedHint(permission.Denied(res.Status, res.Info), permission.NeedsSettings(res.Info))
	return permission.ErrNotSatisfied
}
