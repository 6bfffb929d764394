package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"spool/internal/bundle"
	"spool/internal/jobspec"
	"spool/internal/logging"
	"spool/internal/pipeline"
)

func newSubtitlesCommand(cmdCtx *commandContext) *cobra.Command {
	var bundlePath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "subtitles <job.json>",
		Short: "Generate the subtitle overlay without rendering",
		Long: `Builds the ASS subtitle document a render would burn in and writes it to
a file. With --bundle the chunk narration clips are probed for exact
timing; without it timing falls back to explicit chunk values and the
reading-speed estimate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			specPath := strings.TrimSpace(args[0])
			job, err := jobspec.Load(specPath)
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			var bnd *bundle.Bundle
			if dir := strings.TrimSpace(bundlePath); dir != "" {
				bnd, err = bundle.Materialize(dir, logger)
				if err != nil {
					return err
				}
				defer bnd.Cleanup()
			}

			doc, dialogues, err := pipeline.New(cfg, pipeline.WithLogger(logger)).Overlay(cmd.Context(), job, bnd)
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outPath)
			if target == "" {
				target = strings.TrimSuffix(specPath, filepath.Ext(specPath)) + ".ass"
			}
			if err := os.WriteFile(target, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("write subtitle overlay: %w", err)
			}

			out := cmd.OutOrStdout()
			if dialogues == 0 {
				fmt.Fprintf(out, "Wrote %s with no dialogue lines (all chunks hidden or empty)\n", target)
				return nil
			}
			fmt.Fprintf(out, "Wrote %d dialogue lines to %s\n", dialogues, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&bundlePath, "bundle", "b", "", "Asset bundle for narration probing")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: spec path with .ass extension)")

	return cmd
}
