package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/team-pogie-react/page-service/internal/config"
	"github.com/team-pogie-react/page-service/internal/storage"
)

func seoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seo",
		Short: "Manage SEO page metadata",
	}
	cmd.AddCommand(seoImportCmd(), seoListCmd())
	return cmd
}

func openStore() (*storage.SEOStore, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return storage.NewSEOStore(cfg.SEO.DBPath)
}

func seoImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import page metadata templates",
		Long: `Import page metadata templates from YAML.

The whole file is validated before anything is written. Example:

  pages:
    - domain: carparts.com
      page: part_page
      title: "{make} {model} {part} | CarParts.com"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Import(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d page templates\n", n)
			return nil
		},
	}
}

func seoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored page metadata templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			pages, err := store.List(context.Background())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DOMAIN\tPAGE\tTITLE")
			for _, p := range pages {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Domain, p.PageKey, p.Title)
			}
			return w.Flush()
		},
	}
}
