package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/team-pogie-react/page-service/internal/config"
)

func pagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the page types the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.SEO.DBPath = ":memory:"
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, name := range a.engine.Pages() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
