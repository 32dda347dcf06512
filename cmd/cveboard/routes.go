package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vango-dev/cveboard/internal/routes"
)

func routesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := routes.Definitions()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATTERN\tNAME\tVIEW\tLOADING")
			for _, d := range defs {
				loading := "eager"
				if d.Lazy {
					loading = "lazy"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Path, d.Name, d.File, loading)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}
