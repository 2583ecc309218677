package main

import (
	"github.com/spf13/cobra"

	initcmd "github.com/npratt/okline/internal/init"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config to .okline/",
		Long: `Write a commented config.yaml holding the default settings, plus a
.gitignore for logs, locks and backups, to .okline/ in the current directory.
With --global the config goes to ~/.config/okline/ instead.

Existing files that differ are shown as a diff and left alone unless --force
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			dryRun, _ := flags.GetBool(FlagDryRun)
			force, _ := flags.GetBool(FlagForce)
			global, _ := flags.GetBool(FlagGlobal)

			_, err := initcmd.Run(initcmd.Options{
				DryRun: dryRun,
				Force:  force,
				Global: global,
				Writer: cmd.OutOrStdout(),
			})
			return err
		},
	}
	cmd.Flags().Bool(FlagDryRun, false, "Show what would be written")
	cmd.Flags().Bool(FlagForce, false, "Overwrite files that differ")
	cmd.Flags().Bool(FlagGlobal, false, "Write the user config instead of the project config")
	return cmd
}
