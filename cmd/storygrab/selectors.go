package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newSelectorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "selectors",
		Short: "Print the active selector profile as YAML",
		Long: `selectors prints the built-in selector profile, or the one given with
--selectors, in the format --selectors reads. Save it, edit it, pass it back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.cfg.Story()
			if err != nil {
				return err
			}
			data, err := cfg.Selectors.YAML()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
