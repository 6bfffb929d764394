package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	cmdCtx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "spool",
		Short: "Assemble narrated reels from job specs and asset bundles",
		Long: `Spool builds short vertical videos from a JSON job spec and a bundle of
still images and narration clips. Each slide is encoded with ffmpeg,
segments are joined with optional blend transitions, subtitles are burned
in, and an ending video and background music round out the final render.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := cmdCtx.ensureConfig()
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to the configuration file")

	rootCmd.AddCommand(newRenderCommand(cmdCtx))
	rootCmd.AddCommand(newSubtitlesCommand(cmdCtx))
	rootCmd.AddCommand(newProbeCommand(cmdCtx))
	rootCmd.AddCommand(newDoctorCommand(cmdCtx))
	rootCmd.AddCommand(newHistoryCommand(cmdCtx))
	rootCmd.AddCommand(newConfigCommand(cmdCtx))

	return rootCmd
}
