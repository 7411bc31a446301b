package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ownerscan-go/internal/config"
)

var configInitFlags struct {
	force bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the ownerscan config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to --config",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Default()
		cfg.ApplyEnv()
		if err := config.Save(rootFlags.configPath, cfg, configInitFlags.force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", rootFlags.configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitFlags.force, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
}
