package main

import (
	"fmt"
	"os/exec"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that ghostscript can be found and run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := a.engine()
			path, err := exec.LookPath(a.cfg.GhostscriptPath)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s not found\n", color.RedString("✗"), a.cfg.GhostscriptPath)
				return err
			}
			version, err := engine.Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s did not run\n", color.RedString("✗"), path)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ghostscript %s (%s)\n", color.GreenString("✓"), version, path)
			return nil
		},
	}
}
