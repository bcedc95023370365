package cmd

import (
	"github.com/spf13/cobra"

	"github.com/varunaditya27/EduSynth/config"
	server2 "github.com/varunaditya27/EduSynth/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and job consumers",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
