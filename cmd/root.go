package cmd

import (
	"github.com/spf13/cobra"

	"github.com/varunaditya27/EduSynth/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(server(config))
	return rootCmd
}
