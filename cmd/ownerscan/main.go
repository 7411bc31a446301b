// ownerscan reports who holds the tokens of a CW721 collection on Sei.
//
// Usage:
//
//	ownerscan owners --contract=<addr> --start=1 --end=3333 --batch=25 --name=<prefix> [--mode=count]
//	ownerscan modes
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "internal/config/config.yaml"

// version is set at build time via -ldflags.
var version = "dev"

// errReported marks failures already shown to the user.
var errReported = errors.New("reported")

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:           "ownerscan",
	Short:         "Scan CW721 token ownership over a token id range",
	SilenceErrors: true,
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", defaultConfigPath, "Path to the YAML config")
	rootCmd.AddCommand(ownersCmd)
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
