package main

import (
	"fmt"
	"os"

	"github.com/handiism/tiledl/internal/config"
	"github.com/handiism/tiledl/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:           "tiledl-tui",
		Short:         "Interactive map tile downloader",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return tui.Run(settings)
		},
	}
	config.RegisterFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
