package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

func newRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "imgcompress",
		Short:         "Compress images into modern formats",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zlog.Init()
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress")

	rootCmd.AddCommand(newConvertCommand())

	return rootCmd
}
