package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentlabs/internal/config"
	"github.com/ShayCichocki/agentlabs/internal/version"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "engineering-team version %s\n", version.Get())
		if !versionVerbose {
			return nil
		}

		if err := config.LoadDotEnv(config.DefaultDotEnvPath, false); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		fmt.Fprintf(w, "credentials: %s\n", config.CredentialSummary(cfg))
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "Also show which credentials are configured")
}
