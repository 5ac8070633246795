package main

import (
	"os"

	"jepet/config"
	"jepet/utils"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "jepet",
		Short: "JE Pet storefront backend",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			utils.InitializeLogger()
		},
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newWorkerCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
