package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/cogdistort/internal/inference"
	"github.com/abhisek/cogdistort/internal/tui"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Type statements and classify them one at a time",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		loaded, err := env.loadBundle()
		if err != nil {
			return err
		}

		return tui.Run(inference.New(loaded.Bundle, inference.Options{
			Logger: env.logger,
			Strict: env.cfg.Classify.Strict,
		}))
	},
}
